package integration

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Credentials identify a storefront endpoint and the API user used to reach it
type Credentials struct {
	URL       string
	APIUser   string
	APIKey    string
	WebsiteID int
	StoreID   int
}

// OrderFilter restricts an order search
type OrderFilter struct {
	// StoreID only returns orders placed in this store view
	StoreID int
	// States only returns orders in one of these remote states
	States []string
}

// OrderSummary is a single row of an order search
type OrderSummary struct {
	OrderID     int
	IncrementID string
	State       string
	Status      string
	UpdatedAt   string
}

// OrderSearchResult is one page of an order search
type OrderSearchResult struct {
	Items   []OrderSummary
	HasNext bool
}

// OrderItem is a line of a remote order
type OrderItem struct {
	ItemID       int
	ParentItemID *int
	SKU          string
	Name         string
	ProductType  string
	QtyOrdered   float64
	Price        decimal.Decimal
	TaxPercent   decimal.Decimal
}

// IsChild returns true for items that belong to a configurable or bundle parent
func (i OrderItem) IsChild() bool {
	return i.ParentItemID != nil
}

// OrderData is the full detail of a remote order
type OrderData struct {
	OrderID           int
	IncrementID       string
	State             string
	Status            string
	StoreID           int
	CustomerEmail     string
	CustomerFirstname string
	CustomerLastname  string
	CurrencyCode      string
	ShippingMethod    string
	ShippingAmount    decimal.Decimal
	Items             []OrderItem
}

// CustomerName returns first and last name joined
func (o *OrderData) CustomerName() string {
	return strings.TrimSpace(o.CustomerFirstname + " " + o.CustomerLastname)
}

// OrderInfoResult is one entry of a multi-order detail fetch.
// Exactly one of Order and Fault is set.
type OrderInfoResult struct {
	IncrementID string
	Order       *OrderData
	Fault       *RemoteFault
}

// ProductSummary is a single row of the remote product list
type ProductSummary struct {
	ProductID int
	SKU       string
	Name      string
	Type      string
	Set       string
}

// ProductData is the full detail of a remote product
type ProductData struct {
	ProductID   int
	SKU         string
	Name        string
	Description string
	Type        string
	Price       decimal.Decimal
	CategoryIDs []int
}

// ProductPayload carries the fields pushed when creating or updating a remote product
type ProductPayload struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryIDs []int
	WebsiteIDs  []int
	Enabled     bool
}

// CategoryNode is a node of the remote category tree
type CategoryNode struct {
	CategoryID int
	ParentID   int
	Name       string
	Level      int
	Children   []CategoryNode
}

// TierPrice is a quantity breakpoint pushed to the remote tier-price endpoint
type TierPrice struct {
	Quantity float64
	Price    decimal.Decimal
}

// ShippingMethod is a carrier method offered by the storefront
type ShippingMethod struct {
	Code  string
	Title string
}

// ShipmentTrack is tracking information attached to a remote shipment
type ShipmentTrack struct {
	CarrierCode string
	Title       string
	TrackNumber string
}

// ---------------------------------------------------------------------------
// StoreGateway Port Interface
// ---------------------------------------------------------------------------

// StoreGateway opens authenticated sessions against a remote storefront.
// Concrete implementations (Magento XML-RPC) live in the infrastructure layer.
type StoreGateway interface {
	// Open logs in and returns a session. Callers must Close it.
	Open(ctx context.Context, creds Credentials) (StoreSession, error)
}

// StoreSession is an authenticated storefront session.
// Faults raised by the storefront are returned as *RemoteFault.
type StoreSession interface {
	// Orders
	SearchOrders(ctx context.Context, filter OrderFilter, limit, page int) (*OrderSearchResult, error)
	OrderInfo(ctx context.Context, incrementID string) (*OrderData, error)
	OrderInfoMulti(ctx context.Context, incrementIDs []string) ([]OrderInfoResult, error)
	AddOrderComment(ctx context.Context, incrementID, status, comment string, notify bool) error
	CancelOrder(ctx context.Context, incrementID string) error

	// Products
	ListProducts(ctx context.Context) ([]ProductSummary, error)
	ProductInfo(ctx context.Context, sku string) (*ProductData, error)
	CreateProduct(ctx context.Context, productType, attributeSet string, payload ProductPayload) (int, error)
	UpdateProduct(ctx context.Context, productID string, payload ProductPayload) error
	UpdateTierPrices(ctx context.Context, productID string, tiers []TierPrice) error

	// Categories
	CategoryTree(ctx context.Context, rootID int) (*CategoryNode, error)

	// Shipments
	CreateShipment(ctx context.Context, orderIncrementID string, itemsQty map[string]float64, comment string, notify bool) (string, error)
	AddTrack(ctx context.Context, shipmentIncrementID string, track ShipmentTrack) error

	// Order configuration
	OrderStates(ctx context.Context) (map[string]string, error)
	ShippingMethods(ctx context.Context) ([]ShippingMethod, error)

	// Close ends the session
	Close(ctx context.Context) error
}
