package integration

import (
	"context"
	"errors"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/domain/trade"
	"github.com/erp/channelsync/internal/infrastructure/logger"
	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultOrderSearchPageSize is the page size of the remote order search
	DefaultOrderSearchPageSize = 3000
	// DefaultStatusBatchSize is the number of orders fetched per info_multi call
	DefaultStatusBatchSize = 50
	// defaultAttributeSet is the "Default" attribute set of a stock Magento install
	defaultAttributeSet = "4"
)

// Repositories groups the local stores the sync service reads and writes
type Repositories struct {
	Channels    channel.Repository
	OrderStates channel.OrderStateRepository
	Carriers    channel.CarrierRepository
	Products    catalog.ProductRepository
	Listings    catalog.ListingRepository
	Categories  catalog.CategoryRepository
	PriceLists  catalog.PriceListRepository
	Sales       trade.SaleRepository
	Shipments   trade.ShipmentRepository
}

// MagentoSyncOptions tunes the remote batching
type MagentoSyncOptions struct {
	OrderSearchPageSize int
	StatusBatchSize     int
}

// MagentoSyncService runs the synchronization operations of Magento channels.
// It implements integration.ChannelProvider for channel.SourceMagento.
type MagentoSyncService struct {
	gateway    integration.StoreGateway
	repos      Repositories
	watermarks *WatermarkTracker
	options    MagentoSyncOptions
	logger     *zap.Logger
}

var _ integration.ChannelProvider = (*MagentoSyncService)(nil)

// NewMagentoSyncService creates a new MagentoSyncService
func NewMagentoSyncService(gateway integration.StoreGateway, repos Repositories, options MagentoSyncOptions, logger *zap.Logger) *MagentoSyncService {
	if options.OrderSearchPageSize <= 0 {
		options.OrderSearchPageSize = DefaultOrderSearchPageSize
	}
	if options.StatusBatchSize <= 0 {
		options.StatusBatchSize = DefaultStatusBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MagentoSyncService{
		gateway:    gateway,
		repos:      repos,
		watermarks: NewWatermarkTracker(repos.Channels),
		options:    options,
		logger:     logger,
	}
}

// Source returns the channel source handled by this service
func (s *MagentoSyncService) Source() channel.Source {
	return channel.SourceMagento
}

// Watermarks exposes the tracker used by the service
func (s *MagentoSyncService) Watermarks() *WatermarkTracker {
	return s.watermarks
}

// begin validates the channel and prepares tracing and logging for an operation
func (s *MagentoSyncService) begin(ctx context.Context, ch *channel.Channel, op string) (context.Context, trace.Span, *zap.Logger, error) {
	if err := ch.ValidateMagento(); err != nil {
		return ctx, nil, nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "magento_sync", op,
		telemetry.WithAttribute(telemetry.SpanAttrChannelID, ch.ID.String()))
	ctx, log := logger.WithChannelID(ctx, s.logger, ch.ID.String())
	ctx, log = logger.WithOperation(ctx, log, op)
	return ctx, span, log, nil
}

// end records the outcome of an operation on its span
func end(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		telemetry.RecordError(span, err)
	} else {
		telemetry.SetOK(span)
	}
	span.End()
}

// withSession opens a remote session for the channel and always closes it
func (s *MagentoSyncService) withSession(ctx context.Context, ch *channel.Channel, fn func(integration.StoreSession) error) (err error) {
	session, err := s.gateway.Open(ctx, credentialsOf(ch))
	if err != nil {
		return err
	}
	defer func() {
		// the run context may be cancelled by a job timeout or a client disconnect
		if closeErr := session.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.L(ctx).Warn("Failed to end Magento session", zap.Error(closeErr))
			if err == nil {
				err = closeErr
			}
		}
	}()
	return fn(session)
}

func credentialsOf(ch *channel.Channel) integration.Credentials {
	return integration.Credentials{
		URL:       ch.Magento.URL,
		APIUser:   ch.Magento.APIUser,
		APIKey:    ch.Magento.APIKey,
		WebsiteID: ch.Magento.WebsiteID,
		StoreID:   ch.Magento.StoreID,
	}
}

// TestConnection logs in and out of the store. Any failure is reported as
// integration.ErrChannelConnection; the cause is only logged.
func (s *MagentoSyncService) TestConnection(ctx context.Context, ch *channel.Channel) (err error) {
	ctx, span, log, err := s.begin(ctx, ch, "test_connection")
	if err != nil {
		return err
	}
	defer func() { end(span, err) }()

	err = s.withSession(ctx, ch, func(integration.StoreSession) error { return nil })
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	log.Warn("Magento connection test failed", zap.Error(err))
	return integration.ErrChannelConnection
}
