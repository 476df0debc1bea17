package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/google/uuid"
)

// Operation names a sync operation a channel provider can run
type Operation string

const (
	OperationImportOrderStates    Operation = "import_order_states"
	OperationImportCarriers       Operation = "import_carriers"
	OperationImportProducts       Operation = "import_products"
	OperationImportOrders         Operation = "import_orders"
	OperationExportOrderStatus    Operation = "export_order_status"
	OperationExportShipmentStatus Operation = "export_shipment_status"
	OperationExportProductCatalog Operation = "export_product_catalog"
	OperationExportProductPrices  Operation = "export_product_prices"
	OperationUpdateOrderStatus    Operation = "update_order_status"
)

// AllOperations returns all sync operations
func AllOperations() []Operation {
	return []Operation{
		OperationImportOrderStates,
		OperationImportCarriers,
		OperationImportProducts,
		OperationImportOrders,
		OperationExportOrderStatus,
		OperationExportShipmentStatus,
		OperationExportProductCatalog,
		OperationExportProductPrices,
		OperationUpdateOrderStatus,
	}
}

// IsValid returns true if the operation exists
func (o Operation) IsValid() bool {
	for _, op := range AllOperations() {
		if op == o {
			return true
		}
	}
	return false
}

// ParseOperation converts a name to an Operation, failing with ErrUnknownOperation
func ParseOperation(name string) (Operation, error) {
	op := Operation(strings.TrimSpace(name))
	if !op.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, nil
}

// String returns the string representation of Operation
func (o Operation) String() string {
	return string(o)
}

// SyncStatus represents the outcome of a sync operation
type SyncStatus string

const (
	// SyncStatusSuccess indicates every item was processed
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some items were skipped
	SyncStatusPartial SyncStatus = "PARTIAL"
)

// SyncFailure represents a skipped item
type SyncFailure struct {
	// ItemID is the identifier of the skipped item
	ItemID string
	// ErrorCode is the remote fault code, empty for local errors
	ErrorCode string
	// ErrorMessage is the error description
	ErrorMessage string
}

// SyncResult represents the result of a sync operation
type SyncResult struct {
	Operation Operation
	ChannelID uuid.UUID
	// Items holds the references of processed records
	Items       []string
	FailedItems []SyncFailure
	StartedAt   time.Time
	SyncedAt    time.Time
}

// NewSyncResult starts a result for an operation
func NewSyncResult(op Operation, channelID uuid.UUID) *SyncResult {
	return &SyncResult{
		Operation: op,
		ChannelID: channelID,
		Items:     []string{},
		StartedAt: time.Now().UTC(),
	}
}

// Add records a processed item
func (r *SyncResult) Add(item string) {
	r.Items = append(r.Items, item)
}

// Skip records a skipped item
func (r *SyncResult) Skip(item string, err error) {
	failure := SyncFailure{ItemID: item, ErrorMessage: err.Error()}
	if fault, ok := AsFault(err); ok {
		failure.ErrorCode = fault.Kind().String()
		failure.ErrorMessage = fault.Message
	}
	r.FailedItems = append(r.FailedItems, failure)
}

// Finish stamps the completion time and returns the result
func (r *SyncResult) Finish() *SyncResult {
	r.SyncedAt = time.Now().UTC()
	return r
}

// Status returns the overall status
func (r *SyncResult) Status() SyncStatus {
	if len(r.FailedItems) > 0 {
		return SyncStatusPartial
	}
	return SyncStatusSuccess
}

// ProcessedCount returns the number of processed items
func (r *SyncResult) ProcessedCount() int {
	return len(r.Items)
}

// ---------------------------------------------------------------------------
// ChannelProvider Capability Interface
// ---------------------------------------------------------------------------

// ChannelProvider implements the sync operations for one channel source.
type ChannelProvider interface {
	// Source returns the channel source this provider handles
	Source() channel.Source

	ImportOrderStates(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ImportCarriers(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ImportProducts(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ImportOrders(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ExportOrderStatus(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ExportShipmentStatus(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ExportProductCatalog(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	ExportProductPrices(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	UpdateOrderStatus(ctx context.Context, ch *channel.Channel) (*SyncResult, error)
	TestConnection(ctx context.Context, ch *channel.Channel) error
}

// UnsupportedProvider is the fallback for channel sources without a provider.
// Every operation fails with ErrOperationNotSupported.
type UnsupportedProvider struct {
	source channel.Source
}

// NewUnsupportedProvider creates a fallback provider
func NewUnsupportedProvider(source channel.Source) *UnsupportedProvider {
	return &UnsupportedProvider{source: source}
}

func (p *UnsupportedProvider) Source() channel.Source { return p.source }

func (p *UnsupportedProvider) ImportOrderStates(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ImportCarriers(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ImportProducts(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ImportOrders(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ExportOrderStatus(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ExportShipmentStatus(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ExportProductCatalog(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) ExportProductPrices(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) UpdateOrderStatus(context.Context, *channel.Channel) (*SyncResult, error) {
	return nil, ErrOperationNotSupported
}

func (p *UnsupportedProvider) TestConnection(context.Context, *channel.Channel) error {
	return ErrOperationNotSupported
}
