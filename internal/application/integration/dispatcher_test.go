package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type MockChannelProvider struct {
	mock.Mock
	source channel.Source
}

func (m *MockChannelProvider) Source() channel.Source { return m.source }

func (m *MockChannelProvider) run(ctx context.Context, op integration.Operation, ch *channel.Channel) (*integration.SyncResult, error) {
	args := m.Called(ctx, op, ch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockChannelProvider) ImportOrderStates(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationImportOrderStates, ch)
}

func (m *MockChannelProvider) ImportCarriers(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationImportCarriers, ch)
}

func (m *MockChannelProvider) ImportProducts(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationImportProducts, ch)
}

func (m *MockChannelProvider) ImportOrders(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationImportOrders, ch)
}

func (m *MockChannelProvider) ExportOrderStatus(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationExportOrderStatus, ch)
}

func (m *MockChannelProvider) ExportShipmentStatus(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationExportShipmentStatus, ch)
}

func (m *MockChannelProvider) ExportProductCatalog(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationExportProductCatalog, ch)
}

func (m *MockChannelProvider) ExportProductPrices(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationExportProductPrices, ch)
}

func (m *MockChannelProvider) UpdateOrderStatus(ctx context.Context, ch *channel.Channel) (*integration.SyncResult, error) {
	return m.run(ctx, integration.OperationUpdateOrderStatus, ch)
}

func (m *MockChannelProvider) TestConnection(ctx context.Context, ch *channel.Channel) error {
	return m.Called(ctx, ch).Error(0)
}

type memLock struct {
	mu      sync.Mutex
	held    map[string]bool
	unlocks int
	err     error
}

func (l *memLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.unlocks++
	return nil
}

func TestChannelDispatcher_RoutesBySource(t *testing.T) {
	magento := &MockChannelProvider{source: channel.SourceMagento}
	d := NewChannelDispatcher(zap.NewNop(), WithProvider(magento))
	ch := newMagentoChannel()

	for _, op := range integration.AllOperations() {
		result := integration.NewSyncResult(op, ch.ID)
		magento.On("run", mock.Anything, op, ch).Return(result, nil).Once()

		got, err := d.Run(t.Context(), ch, op)
		require.NoError(t, err, op)
		assert.Same(t, result, got)
	}
	magento.AssertExpectations(t)
}

func TestChannelDispatcher_FallbackForOtherSources(t *testing.T) {
	magento := &MockChannelProvider{source: channel.SourceMagento}
	d := NewChannelDispatcher(nil, WithProvider(magento))
	manual, err := channel.NewChannel("Counter", channel.SourceManual)
	require.NoError(t, err)

	_, err = d.Run(t.Context(), manual, integration.OperationImportOrders)
	assert.ErrorIs(t, err, integration.ErrOperationNotSupported)
	assert.ErrorIs(t, d.TestConnection(t.Context(), manual), integration.ErrOperationNotSupported)
	magento.AssertNotCalled(t, "run", mock.Anything, mock.Anything, mock.Anything)
}

func TestChannelDispatcher_CustomFallback(t *testing.T) {
	fallback := &MockChannelProvider{source: channel.SourceWebservice}
	d := NewChannelDispatcher(nil, WithFallback(fallback))
	ch, err := channel.NewChannel("Feed", channel.SourceWebservice)
	require.NoError(t, err)

	fallback.On("TestConnection", mock.Anything, ch).Return(nil).Once()
	assert.NoError(t, d.TestConnection(t.Context(), ch))
	fallback.AssertExpectations(t)
}

func TestChannelDispatcher_UnknownOperation(t *testing.T) {
	d := NewChannelDispatcher(nil)

	_, err := d.Run(t.Context(), newMagentoChannel(), integration.Operation("export_everything"))
	assert.ErrorIs(t, err, integration.ErrUnknownOperation)
}

func TestChannelDispatcher_RunLock(t *testing.T) {
	magento := &MockChannelProvider{source: channel.SourceMagento}
	lock := &memLock{held: make(map[string]bool)}
	d := NewChannelDispatcher(nil, WithProvider(magento), WithRunLock(lock, time.Minute))
	ch := newMagentoChannel()

	t.Run("busy", func(t *testing.T) {
		lock.held["channel-sync:"+ch.ID.String()] = true
		defer delete(lock.held, "channel-sync:"+ch.ID.String())

		_, err := d.Run(t.Context(), ch, integration.OperationImportOrders)
		assert.ErrorIs(t, err, integration.ErrChannelBusy)
	})

	t.Run("released after failure", func(t *testing.T) {
		magento.On("run", mock.Anything, integration.OperationImportOrders, ch).Return(nil, errors.New("boom")).Once()

		_, err := d.Run(t.Context(), ch, integration.OperationImportOrders)
		require.Error(t, err)
		assert.Empty(t, lock.held)
		assert.Equal(t, 1, lock.unlocks)
	})

	t.Run("lock error", func(t *testing.T) {
		lock.err = errors.New("redis down")
		defer func() { lock.err = nil }()

		_, err := d.Run(t.Context(), ch, integration.OperationImportOrders)
		assert.ErrorIs(t, err, lock.err)
	})
}

func TestChannelDispatcher_ImportProduct(t *testing.T) {
	f := newSyncFixture()
	d := NewChannelDispatcher(nil, WithProvider(f.service))

	f.expectSession()
	f.session.On("ProductInfo", mock.Anything, "SKU-A").Return(remoteProduct(41, "SKU-A"), nil)

	product, err := d.ImportProduct(t.Context(), f.ch, " SKU-A ")
	require.NoError(t, err)
	assert.Equal(t, "SKU-A", product.Code)

	_, err = NewChannelDispatcher(nil).ImportProduct(t.Context(), f.ch, "SKU-A")
	assert.ErrorIs(t, err, integration.ErrOperationNotSupported)
}

func TestChannelDispatcher_RecordsMetrics(t *testing.T) {
	magento := &MockChannelProvider{source: channel.SourceMagento}
	d := NewChannelDispatcher(nil, WithProvider(magento))
	metrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)
	d.SetSyncMetrics(metrics)
	ch := newMagentoChannel()

	result := integration.NewSyncResult(integration.OperationUpdateOrderStatus, ch.ID)
	result.Add("mag_1")
	result.Skip("2", &integration.RemoteFault{Code: 100, Message: "Requested order not exists."})
	magento.On("run", mock.Anything, integration.OperationUpdateOrderStatus, ch).Return(result, nil).Once()

	got, err := d.Run(t.Context(), ch, integration.OperationUpdateOrderStatus)
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusPartial, got.Status())
}
