package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultRunLockTTL bounds how long a crashed run can keep a channel locked
const DefaultRunLockTTL = 30 * time.Minute

// ProductImporter is implemented by providers that can import a single product by SKU
type ProductImporter interface {
	ImportProduct(ctx context.Context, ch *channel.Channel, sku string, data *integration.ProductData) (*catalog.Product, error)
}

// ChannelDispatcher routes sync operations to the provider registered for the
// source of the channel. Channels without a provider go to the fallback.
type ChannelDispatcher struct {
	providers map[channel.Source]integration.ChannelProvider
	fallback  integration.ChannelProvider
	lock      integration.RunLock
	lockTTL   time.Duration
	metrics   *telemetry.SyncMetrics
	logger    *zap.Logger
}

// DispatcherOption configures a ChannelDispatcher
type DispatcherOption func(*ChannelDispatcher)

// WithProvider registers a provider for its source
func WithProvider(p integration.ChannelProvider) DispatcherOption {
	return func(d *ChannelDispatcher) {
		d.providers[p.Source()] = p
	}
}

// WithFallback replaces the provider used for unregistered sources
func WithFallback(p integration.ChannelProvider) DispatcherOption {
	return func(d *ChannelDispatcher) {
		d.fallback = p
	}
}

// WithRunLock serializes runs per channel through lock
func WithRunLock(lock integration.RunLock, ttl time.Duration) DispatcherOption {
	return func(d *ChannelDispatcher) {
		d.lock = lock
		if ttl > 0 {
			d.lockTTL = ttl
		}
	}
}

// NewChannelDispatcher creates a dispatcher. Without WithFallback every
// unregistered source answers integration.ErrOperationNotSupported.
func NewChannelDispatcher(logger *zap.Logger, opts ...DispatcherOption) *ChannelDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &ChannelDispatcher{
		providers: make(map[channel.Source]integration.ChannelProvider),
		lockTTL:   DefaultRunLockTTL,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.fallback == nil {
		d.fallback = integration.NewUnsupportedProvider("")
	}
	return d
}

// SetSyncMetrics sets the metrics recorder (nil disables metrics)
func (d *ChannelDispatcher) SetSyncMetrics(m *telemetry.SyncMetrics) {
	d.metrics = m
}

// ProviderFor returns the provider handling the channel
func (d *ChannelDispatcher) ProviderFor(ch *channel.Channel) integration.ChannelProvider {
	if p, ok := d.providers[ch.Source]; ok {
		return p
	}
	return d.fallback
}

// Run executes one sync operation on the channel
func (d *ChannelDispatcher) Run(ctx context.Context, ch *channel.Channel, op integration.Operation) (*integration.SyncResult, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("%w: %q", integration.ErrUnknownOperation, op)
	}

	release, err := d.acquire(ctx, ch)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *integration.SyncResult
	start := time.Now()
	labels := telemetry.SyncRunLabels(ch.ID.String(), string(ch.Source), string(op))
	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		result, err = d.invoke(c, d.ProviderFor(ch), ch, op)
	})
	d.record(ctx, ch, op, result, err, time.Since(start))
	return result, err
}

func (d *ChannelDispatcher) invoke(ctx context.Context, p integration.ChannelProvider, ch *channel.Channel, op integration.Operation) (*integration.SyncResult, error) {
	switch op {
	case integration.OperationImportOrderStates:
		return p.ImportOrderStates(ctx, ch)
	case integration.OperationImportCarriers:
		return p.ImportCarriers(ctx, ch)
	case integration.OperationImportProducts:
		return p.ImportProducts(ctx, ch)
	case integration.OperationImportOrders:
		return p.ImportOrders(ctx, ch)
	case integration.OperationExportOrderStatus:
		return p.ExportOrderStatus(ctx, ch)
	case integration.OperationExportShipmentStatus:
		return p.ExportShipmentStatus(ctx, ch)
	case integration.OperationExportProductCatalog:
		return p.ExportProductCatalog(ctx, ch)
	case integration.OperationExportProductPrices:
		return p.ExportProductPrices(ctx, ch)
	case integration.OperationUpdateOrderStatus:
		return p.UpdateOrderStatus(ctx, ch)
	default:
		return nil, fmt.Errorf("%w: %q", integration.ErrUnknownOperation, op)
	}
}

// ImportProduct imports a single SKU when the channel provider supports it
func (d *ChannelDispatcher) ImportProduct(ctx context.Context, ch *channel.Channel, sku string) (*catalog.Product, error) {
	importer, ok := d.ProviderFor(ch).(ProductImporter)
	if !ok {
		return nil, integration.ErrOperationNotSupported
	}
	return importer.ImportProduct(ctx, ch, strings.TrimSpace(sku), nil)
}

// TestConnection checks the credentials of the channel
func (d *ChannelDispatcher) TestConnection(ctx context.Context, ch *channel.Channel) error {
	return d.ProviderFor(ch).TestConnection(ctx, ch)
}

func (d *ChannelDispatcher) acquire(ctx context.Context, ch *channel.Channel) (func(), error) {
	if d.lock == nil {
		return func() {}, nil
	}
	key := "channel-sync:" + ch.ID.String()
	ok, err := d.lock.TryLock(ctx, key, d.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, integration.ErrChannelBusy
	}
	return func() {
		// the run context may already be cancelled
		if err := d.lock.Unlock(context.WithoutCancel(ctx), key); err != nil {
			d.logger.Warn("Failed to release channel run lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (d *ChannelDispatcher) record(ctx context.Context, ch *channel.Channel, op integration.Operation, result *integration.SyncResult, err error, elapsed time.Duration) {
	outcome := telemetry.SyncOutcomeFailed
	processed, skipped := 0, 0
	if err == nil && result != nil {
		outcome = telemetry.SyncOutcomeSuccess
		if result.Status() == integration.SyncStatusPartial {
			outcome = telemetry.SyncOutcomePartial
		}
		processed, skipped = result.ProcessedCount(), len(result.FailedItems)
	}
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "sync_run_finished",
		telemetry.SpanAttrChannelID, ch.ID.String(),
		telemetry.SpanAttrOperation, op.String(),
		telemetry.SpanAttrOutcome, string(outcome),
		telemetry.SpanAttrItemCount, processed,
		telemetry.SpanAttrFailedCount, skipped,
	)
	if d.metrics != nil {
		d.metrics.RecordRun(ctx, ch.ID, op.String(), outcome, processed, skipped, elapsed)
	}
}
