package handler

import (
	"context"
	"time"

	appintegration "github.com/erp/channelsync/internal/application/integration"
	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/interfaces/http/dto"
	"github.com/erp/channelsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChannelFinder loads channels by ID
type ChannelFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*channel.Channel, error)
}

// ChannelSyncService runs sync operations against a channel's storefront
type ChannelSyncService interface {
	Run(ctx context.Context, ch *channel.Channel, op integration.Operation) (*integration.SyncResult, error)
	ImportProduct(ctx context.Context, ch *channel.Channel, sku string) (*catalog.Product, error)
	TestConnection(ctx context.Context, ch *channel.Channel) error
}

// ChannelSyncHandler exposes the manual sync actions of a sale channel
type ChannelSyncHandler struct {
	BaseHandler
	channels ChannelFinder
	sync     ChannelSyncService
}

// NewChannelSyncHandler creates a new ChannelSyncHandler
func NewChannelSyncHandler(channels ChannelFinder, sync ChannelSyncService) *ChannelSyncHandler {
	return &ChannelSyncHandler{channels: channels, sync: sync}
}

// ChannelResponse describes a channel and its sync checkpoints
// @Description Sale channel with watermarks
type ChannelResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Source     string                `json:"source"`
	StoreURL   string                `json:"store_url,omitempty"`
	Watermarks map[string]*time.Time `json:"watermarks"`
}

func toChannelResponse(ch *channel.Channel) ChannelResponse {
	marks := make(map[string]*time.Time, len(channel.AllWatermarkKinds()))
	for _, kind := range channel.AllWatermarkKinds() {
		marks[string(kind)] = ch.Watermark(kind)
	}
	return ChannelResponse{
		ID:         ch.ID.String(),
		Name:       ch.Name,
		Source:     string(ch.Source),
		StoreURL:   ch.Magento.URL,
		Watermarks: marks,
	}
}

// loadChannel binds the :id parameter and loads the channel, writing the
// error response itself when it fails.
func (h *ChannelSyncHandler) loadChannel(c *gin.Context) (*channel.Channel, bool) {
	var uri dto.ChannelRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return nil, false
	}

	ch, err := h.channels.FindByID(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return ch, true
}

// GetChannel godoc
// @ID           getChannel
// @Summary      Get a sale channel
// @Description  Returns the channel with its five sync watermarks
// @Tags         channels
// @Produce      json
// @Param        id path string true "Channel ID" format(uuid)
// @Success      200 {object} APIResponse[ChannelResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id} [get]
func (h *ChannelSyncHandler) GetChannel(c *gin.Context) {
	ch, ok := h.loadChannel(c)
	if !ok {
		return
	}
	h.Success(c, toChannelResponse(ch))
}

// RunSync godoc
// @ID           runChannelSync
// @Summary      Run a sync operation
// @Description  Runs one import or export operation on the channel and waits for it to finish
// @Tags         channels
// @Produce      json
// @Param        id path string true "Channel ID" format(uuid)
// @Param        operation path string true "Sync operation" Enums(import_order_states, import_carriers, import_products, import_orders, export_order_status, export_shipment_status, export_product_catalog, export_product_prices, update_order_status)
// @Success      200 {object} SyncResultResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id}/sync/{operation} [post]
func (h *ChannelSyncHandler) RunSync(c *gin.Context) {
	var uri dto.ChannelOperationRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	op, err := integration.ParseOperation(uri.Operation)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ch, ok := h.loadChannel(c)
	if !ok {
		return
	}

	result, err := h.sync.Run(c.Request.Context(), ch, op)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if len(result.FailedItems) > 0 {
		requestLogger(c).Warn("sync finished with skipped items",
			zap.Int("processed", result.ProcessedCount()),
			zap.Int("failed", len(result.FailedItems)),
		)
	}
	h.Success(c, appintegration.ToSyncResultDTO(result))
}

// ImportProduct godoc
// @ID           importChannelProduct
// @Summary      Import one product by SKU
// @Description  Fetches a single product from the storefront and creates or updates it locally
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        id path string true "Channel ID" format(uuid)
// @Param        request body appintegration.ImportProductRequest true "Product SKU"
// @Success      200 {object} APIResponse[appintegration.ProductDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id}/products/import [post]
func (h *ChannelSyncHandler) ImportProduct(c *gin.Context) {
	var req appintegration.ImportProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ch, ok := h.loadChannel(c)
	if !ok {
		return
	}

	product, err := h.sync.ImportProduct(c.Request.Context(), ch, req.SKU)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToProductDTO(product))
}

// TestConnection godoc
// @ID           testChannelConnection
// @Summary      Test the storefront connection
// @Description  Logs in to the storefront API with the channel credentials
// @Tags         channels
// @Produce      json
// @Param        id path string true "Channel ID" format(uuid)
// @Success      200 {object} APIResponse[ConnectionTestData]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id}/test-connection [post]
func (h *ChannelSyncHandler) TestConnection(c *gin.Context) {
	ch, ok := h.loadChannel(c)
	if !ok {
		return
	}

	if err := h.sync.TestConnection(c.Request.Context(), ch); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ConnectionTestData{
		ChannelID: ch.ID.String(),
		Connected: true,
		Message:   "Connection test successful",
	})
}
