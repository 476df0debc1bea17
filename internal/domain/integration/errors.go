package integration

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelConnection is returned when the storefront cannot be reached
	// with the configured settings. The original cause is not exposed.
	ErrChannelConnection = errors.New("integration: incorrect API settings, please check and try again")
	// ErrOperationNotSupported is returned for operations a channel source does not implement
	ErrOperationNotSupported = errors.New("integration: operation not supported for channel source")
	// ErrUnknownOperation is returned for operation names that do not exist
	ErrUnknownOperation = errors.New("integration: unknown sync operation")
	// ErrInvalidResponse is returned when the storefront answers with an unexpected payload
	ErrInvalidResponse = errors.New("integration: invalid storefront response")
	// ErrChannelBusy is returned when another operation holds the run lock of the channel
	ErrChannelBusy = errors.New("integration: a sync operation is already running for this channel")
)

// FaultKind names the remote fault codes the sync logic reacts to
type FaultKind int

const (
	// FaultUnknown is any fault code without special handling
	FaultUnknown FaultKind = 0
	// FaultOrderNotFound is raised when the requested order does not exist
	FaultOrderNotFound FaultKind = 100
	// FaultShipmentExists is raised when the order already has a shipment for the items
	FaultShipmentExists FaultKind = 102
)

// String returns a readable name of the fault kind
func (k FaultKind) String() string {
	switch k {
	case FaultOrderNotFound:
		return "order_not_found"
	case FaultShipmentExists:
		return "shipment_exists"
	default:
		return "unknown"
	}
}

// RemoteFault is a fault reported by the storefront API
type RemoteFault struct {
	Code    int
	Message string
}

// Error implements the error interface
func (f *RemoteFault) Error() string {
	return fmt.Sprintf("integration: remote fault %d: %s", f.Code, f.Message)
}

// Kind maps the numeric code to a FaultKind
func (f *RemoteFault) Kind() FaultKind {
	switch FaultKind(f.Code) {
	case FaultOrderNotFound, FaultShipmentExists:
		return FaultKind(f.Code)
	default:
		return FaultUnknown
	}
}

// AsFault extracts a RemoteFault from an error chain
func AsFault(err error) (*RemoteFault, bool) {
	var fault *RemoteFault
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}

// IsFault reports whether err carries a remote fault of the given kind
func IsFault(err error, kind FaultKind) bool {
	fault, ok := AsFault(err)
	return ok && fault.Kind() == kind
}
