package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/rpc"
	"regexp"
	"strconv"
	"time"

	"github.com/kolo/xmlrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/erp/channelsync/internal/domain/integration"
)

var (
	_ integration.StoreGateway = (*MagentoGateway)(nil)
	_ integration.StoreSession = (*magentoSession)(nil)
)

// faultPattern matches faults flattened into net/rpc server errors
var faultPattern = regexp.MustCompile(`(?s)^Fault\((-?\d+)\): (.*)$`)

// MagentoGateway implements integration.StoreGateway for Magento 1 stores
// speaking the XML-RPC API.
type MagentoGateway struct {
	apiPath        string
	timeoutSeconds int
	transport      http.RoundTripper
	logger         *zap.Logger
}

// MagentoGatewayOption configures a MagentoGateway
type MagentoGatewayOption func(*MagentoGateway)

// WithMagentoTransport replaces the HTTP transport, mostly useful in tests
func WithMagentoTransport(rt http.RoundTripper) MagentoGatewayOption {
	return func(g *MagentoGateway) {
		g.transport = rt
	}
}

// NewMagentoGateway creates a gateway using the given API path and timeout
func NewMagentoGateway(apiPath string, timeoutSeconds int, logger *zap.Logger, opts ...MagentoGatewayOption) *MagentoGateway {
	if apiPath == "" {
		apiPath = DefaultMagentoAPIPath
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultMagentoTimeoutSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &MagentoGateway{
		apiPath:        apiPath,
		timeoutSeconds: timeoutSeconds,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.transport == nil {
		cfg := MagentoConfig{TimeoutSeconds: timeoutSeconds}
		g.transport = otelhttp.NewTransport(&http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: cfg.Timeout()}).DialContext,
			TLSHandshakeTimeout:   cfg.Timeout(),
			ResponseHeaderTimeout: cfg.Timeout(),
		})
	}
	return g
}

// Open logs in to the store and returns a session
func (g *MagentoGateway) Open(ctx context.Context, creds integration.Credentials) (integration.StoreSession, error) {
	config := &MagentoConfig{
		URL:            creds.URL,
		APIUser:        creds.APIUser,
		APIKey:         creds.APIKey,
		APIPath:        g.apiPath,
		TimeoutSeconds: g.timeoutSeconds,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &magentoSession{
		endpoint:     config.Endpoint(),
		transport:    g.transport,
		closeTimeout: config.Timeout(),
		logger:       g.logger.With(zap.String("endpoint", config.Endpoint())),
	}

	var sessionID string
	if err := s.rpc(ctx, "login", []interface{}{config.APIUser, config.APIKey}, &sessionID); err != nil {
		return nil, fmt.Errorf("magento login: %w", err)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("magento login: %w: empty session id", integration.ErrInvalidResponse)
	}
	s.sessionID = sessionID
	return s, nil
}

// magentoSession is one authenticated API session
type magentoSession struct {
	endpoint     string
	transport    http.RoundTripper
	sessionID    string
	closeTimeout time.Duration
	logger       *zap.Logger
}

// rpc performs a single XML-RPC round trip. Each call gets its own client so
// an abandoned call is released by closing it.
func (s *magentoSession) rpc(ctx context.Context, method string, args []interface{}, reply interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := xmlrpc.NewClient(s.endpoint, s.transport)
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- client.Call(method, args, reply)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return translateFault(err)
	}
}

// call invokes a resource method through the Magento "call" entry point
func (s *magentoSession) call(ctx context.Context, resource string, args []interface{}, reply interface{}) error {
	if args == nil {
		args = []interface{}{}
	}
	var raw interface{}
	if err := s.rpc(ctx, "call", []interface{}{s.sessionID, resource, args}, &raw); err != nil {
		s.logger.Debug("Magento call failed", zap.String("method", resource), zap.Error(err))
		return fmt.Errorf("%s: %w", resource, err)
	}
	if reply == nil {
		return nil
	}
	if err := decodeInto(raw, reply); err != nil {
		return fmt.Errorf("%s: %w", resource, err)
	}
	return nil
}

// translateFault converts XML-RPC faults into integration.RemoteFault
func translateFault(err error) error {
	if err == nil {
		return nil
	}
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		return &integration.RemoteFault{Code: fault.Code, Message: fault.String}
	}
	var serverErr rpc.ServerError
	if errors.As(err, &serverErr) {
		if m := faultPattern.FindStringSubmatch(string(serverErr)); m != nil {
			code, _ := strconv.Atoi(m[1])
			return &integration.RemoteFault{Code: code, Message: m[2]}
		}
	}
	return err
}

// Close ends the session on the store. endSession is sent even when ctx is
// already cancelled, bounded by the client timeout.
func (s *magentoSession) Close(ctx context.Context) error {
	if s.sessionID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.closeTimeout)
	defer cancel()

	var ok interface{}
	err := s.rpc(ctx, "endSession", []interface{}{s.sessionID}, &ok)
	s.sessionID = ""
	return err
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// SearchOrders pages through orders. Pagination requires the
// order-search extension of the store.
func (s *magentoSession) SearchOrders(ctx context.Context, filter integration.OrderFilter, limit, page int) (*integration.OrderSearchResult, error) {
	states := make([]interface{}, 0, len(filter.States))
	for _, state := range filter.States {
		states = append(states, state)
	}
	filters := map[string]interface{}{
		"store_id": map[string]interface{}{"=": filter.StoreID},
		"state":    map[string]interface{}{"in": states},
	}

	var res magentoSearchResult
	if err := s.call(ctx, "sales_order.search", []interface{}{filters, limit, page}, &res); err != nil {
		return nil, err
	}

	result := &integration.OrderSearchResult{
		Items:   make([]integration.OrderSummary, 0, len(res.Items)),
		HasNext: bool(res.HasNext),
	}
	for _, item := range res.Items {
		result.Items = append(result.Items, integration.OrderSummary{
			OrderID:     int(item.OrderID),
			IncrementID: string(item.IncrementID),
			State:       item.State,
			Status:      item.Status,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	return result, nil
}

// OrderInfo fetches a single order by increment id
func (s *magentoSession) OrderInfo(ctx context.Context, incrementID string) (*integration.OrderData, error) {
	var order magentoOrder
	if err := s.call(ctx, "sales_order.info", []interface{}{incrementID}, &order); err != nil {
		return nil, err
	}
	return order.toDomain(), nil
}

// OrderInfoMulti fetches several orders at once. Missing orders come back as
// per-entry faults instead of failing the call.
func (s *magentoSession) OrderInfoMulti(ctx context.Context, incrementIDs []string) ([]integration.OrderInfoResult, error) {
	ids := make([]interface{}, 0, len(incrementIDs))
	for _, id := range incrementIDs {
		ids = append(ids, id)
	}

	var entries []magentoMultiEntry
	if err := s.call(ctx, "sales_order.info_multi", []interface{}{ids}, &entries); err != nil {
		return nil, err
	}

	results := make([]integration.OrderInfoResult, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		result := integration.OrderInfoResult{IncrementID: string(entry.IncrementID)}
		if i < len(incrementIDs) {
			result.IncrementID = incrementIDs[i]
		}
		if entry.IsFault {
			result.Fault = &integration.RemoteFault{Code: int(entry.FaultCode), Message: entry.FaultMessage}
		} else {
			result.Order = entry.magentoOrder.toDomain()
		}
		results = append(results, result)
	}
	return results, nil
}

// AddOrderComment sets the order status with a history comment
func (s *magentoSession) AddOrderComment(ctx context.Context, incrementID, status, comment string, notify bool) error {
	return s.call(ctx, "sales_order.addComment", []interface{}{incrementID, status, comment, notify}, nil)
}

// CancelOrder cancels the order on the store
func (s *magentoSession) CancelOrder(ctx context.Context, incrementID string) error {
	return s.call(ctx, "sales_order.cancel", []interface{}{incrementID}, nil)
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ListProducts lists every product of the store
func (s *magentoSession) ListProducts(ctx context.Context) ([]integration.ProductSummary, error) {
	var rows []magentoProductSummary
	if err := s.call(ctx, "catalog_product.list", []interface{}{map[string]interface{}{}}, &rows); err != nil {
		return nil, err
	}
	products := make([]integration.ProductSummary, 0, len(rows))
	for _, row := range rows {
		products = append(products, integration.ProductSummary{
			ProductID: int(row.ProductID),
			SKU:       row.SKU,
			Name:      row.Name,
			Type:      row.Type,
			Set:       string(row.Set),
		})
	}
	return products, nil
}

// ProductInfo fetches a product by SKU
func (s *magentoSession) ProductInfo(ctx context.Context, sku string) (*integration.ProductData, error) {
	var product magentoProduct
	if err := s.call(ctx, "catalog_product.info", []interface{}{sku}, &product); err != nil {
		return nil, err
	}
	return product.toDomain(), nil
}

// CreateProduct creates a product and returns its remote id
func (s *magentoSession) CreateProduct(ctx context.Context, productType, attributeSet string, payload integration.ProductPayload) (int, error) {
	var id flexInt
	args := []interface{}{productType, attributeSet, payload.SKU, productPayloadData(payload)}
	if err := s.call(ctx, "catalog_product.create", args, &id); err != nil {
		return 0, err
	}
	return int(id), nil
}

// UpdateProduct updates a product identified by its remote id
func (s *magentoSession) UpdateProduct(ctx context.Context, productID string, payload integration.ProductPayload) error {
	return s.call(ctx, "catalog_product.update", []interface{}{productID, productPayloadData(payload)}, nil)
}

// UpdateTierPrices replaces the tier prices of a product identified by its remote id
func (s *magentoSession) UpdateTierPrices(ctx context.Context, productID string, tiers []integration.TierPrice) error {
	data := make([]interface{}, 0, len(tiers))
	for _, tier := range tiers {
		data = append(data, map[string]interface{}{
			"website":           "all",
			"customer_group_id": "all",
			"qty":               tier.Quantity,
			"price":             tier.Price.InexactFloat64(),
		})
	}
	return s.call(ctx, "catalog_product_attribute_tier_price.update", []interface{}{productID, data, "productID"}, nil)
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// CategoryTree returns the category tree below rootID
func (s *magentoSession) CategoryTree(ctx context.Context, rootID int) (*integration.CategoryNode, error) {
	var tree magentoCategory
	if err := s.call(ctx, "catalog_category.tree", []interface{}{rootID}, &tree); err != nil {
		return nil, err
	}
	node := tree.toDomain()
	return &node, nil
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// CreateShipment ships the given order item quantities and returns the
// shipment increment id
func (s *magentoSession) CreateShipment(ctx context.Context, orderIncrementID string, itemsQty map[string]float64, comment string, notify bool) (string, error) {
	items := make(map[string]interface{}, len(itemsQty))
	for itemID, qty := range itemsQty {
		items[itemID] = qty
	}
	var incrementID flexString
	args := []interface{}{orderIncrementID, items, comment, notify, false}
	if err := s.call(ctx, "sales_order_shipment.create", args, &incrementID); err != nil {
		return "", err
	}
	return string(incrementID), nil
}

// AddTrack attaches a tracking number to a shipment
func (s *magentoSession) AddTrack(ctx context.Context, shipmentIncrementID string, track integration.ShipmentTrack) error {
	args := []interface{}{shipmentIncrementID, track.CarrierCode, track.Title, track.TrackNumber}
	return s.call(ctx, "sales_order_shipment.addTrack", args, nil)
}

// ---------------------------------------------------------------------------
// Order configuration
// ---------------------------------------------------------------------------

// OrderStates returns the order states of the store keyed by code
func (s *magentoSession) OrderStates(ctx context.Context) (map[string]string, error) {
	var states map[string]flexString
	if err := s.call(ctx, "sales_order_config.getStates", nil, &states); err != nil {
		return nil, err
	}
	result := make(map[string]string, len(states))
	for code, label := range states {
		result[code] = string(label)
	}
	return result, nil
}

// ShippingMethods returns the active shipping methods of the store
func (s *magentoSession) ShippingMethods(ctx context.Context) ([]integration.ShippingMethod, error) {
	var rows []magentoShippingMethod
	if err := s.call(ctx, "sales_order_config.getShippingMethods", nil, &rows); err != nil {
		return nil, err
	}
	methods := make([]integration.ShippingMethod, 0, len(rows))
	for _, row := range rows {
		title := row.Label
		if title == "" {
			title = row.Title
		}
		methods = append(methods, integration.ShippingMethod{Code: row.Code, Title: title})
	}
	return methods, nil
}
