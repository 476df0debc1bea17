package ecommerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erp/channelsync/internal/domain/integration"
)

// Magento returns most scalars as strings, and sometimes the same field as a
// number depending on the store version. The flex types accept both.

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("magento: invalid integer %q", s)
	}
	*f = flexInt(n)
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("magento: invalid number %q", s)
	}
	*f = flexFloat(n)
	return nil
}

type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch strings.ToLower(unquote(b)) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

type flexDecimal struct {
	decimal.Decimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("magento: invalid decimal %q", s)
	}
	f.Decimal = d
	return nil
}

func unquote(b []byte) string {
	return strings.Trim(strings.TrimSpace(string(b)), `"`)
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type magentoOrderSummary struct {
	OrderID     flexInt    `json:"order_id"`
	IncrementID flexString `json:"increment_id"`
	State       string     `json:"state"`
	Status      string     `json:"status"`
	UpdatedAt   string     `json:"updated_at"`
}

type magentoSearchResult struct {
	Items   []magentoOrderSummary `json:"items"`
	HasNext flexBool              `json:"hasNext"`
}

type magentoOrderItem struct {
	ItemID       flexInt     `json:"item_id"`
	ParentItemID flexInt     `json:"parent_item_id"`
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	ProductType  string      `json:"product_type"`
	QtyOrdered   flexFloat   `json:"qty_ordered"`
	Price        flexDecimal `json:"price"`
	TaxPercent   flexDecimal `json:"tax_percent"`
}

type magentoOrder struct {
	OrderID           flexInt            `json:"order_id"`
	IncrementID       flexString         `json:"increment_id"`
	State             string             `json:"state"`
	Status            string             `json:"status"`
	StoreID           flexInt            `json:"store_id"`
	CustomerEmail     string             `json:"customer_email"`
	CustomerFirstname string             `json:"customer_firstname"`
	CustomerLastname  string             `json:"customer_lastname"`
	OrderCurrencyCode string             `json:"order_currency_code"`
	ShippingMethod    string             `json:"shipping_method"`
	ShippingAmount    flexDecimal        `json:"shipping_amount"`
	Items             []magentoOrderItem `json:"items"`
}

// magentoMultiEntry is an entry of sales_order.info_multi; faults are inlined
type magentoMultiEntry struct {
	magentoOrder
	IsFault      flexBool `json:"isFault"`
	FaultCode    flexInt  `json:"faultCode"`
	FaultMessage string   `json:"faultMessage"`
}

type magentoProductSummary struct {
	ProductID flexInt    `json:"product_id"`
	SKU       string     `json:"sku"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Set       flexString `json:"set"`
}

type magentoProduct struct {
	ProductID   flexInt     `json:"product_id"`
	SKU         string      `json:"sku"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	TypeID      string      `json:"type_id"`
	Price       flexDecimal `json:"price"`
	Categories  []flexInt   `json:"categories"`
}

type magentoCategory struct {
	CategoryID flexInt           `json:"category_id"`
	ParentID   flexInt           `json:"parent_id"`
	Name       string            `json:"name"`
	Level      flexInt           `json:"level"`
	Children   []magentoCategory `json:"children"`
}

type magentoShippingMethod struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// ---------------------------------------------------------------------------
// Conversions to domain payloads
// ---------------------------------------------------------------------------

func (o *magentoOrder) toDomain() *integration.OrderData {
	order := &integration.OrderData{
		OrderID:           int(o.OrderID),
		IncrementID:       string(o.IncrementID),
		State:             o.State,
		Status:            o.Status,
		StoreID:           int(o.StoreID),
		CustomerEmail:     o.CustomerEmail,
		CustomerFirstname: o.CustomerFirstname,
		CustomerLastname:  o.CustomerLastname,
		CurrencyCode:      o.OrderCurrencyCode,
		ShippingMethod:    o.ShippingMethod,
		ShippingAmount:    o.ShippingAmount.Decimal,
		Items:             make([]integration.OrderItem, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		converted := integration.OrderItem{
			ItemID:      int(item.ItemID),
			SKU:         item.SKU,
			Name:        item.Name,
			ProductType: item.ProductType,
			QtyOrdered:  float64(item.QtyOrdered),
			Price:       item.Price.Decimal,
			TaxPercent:  item.TaxPercent.Decimal,
		}
		if item.ParentItemID != 0 {
			parent := int(item.ParentItemID)
			converted.ParentItemID = &parent
		}
		order.Items = append(order.Items, converted)
	}
	return order
}

func (p *magentoProduct) toDomain() *integration.ProductData {
	productType := p.Type
	if productType == "" {
		productType = p.TypeID
	}
	data := &integration.ProductData{
		ProductID:   int(p.ProductID),
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Type:        productType,
		Price:       p.Price.Decimal,
	}
	for _, id := range p.Categories {
		data.CategoryIDs = append(data.CategoryIDs, int(id))
	}
	return data
}

func (c *magentoCategory) toDomain() integration.CategoryNode {
	node := integration.CategoryNode{
		CategoryID: int(c.CategoryID),
		ParentID:   int(c.ParentID),
		Name:       c.Name,
		Level:      int(c.Level),
	}
	for i := range c.Children {
		node.Children = append(node.Children, c.Children[i].toDomain())
	}
	return node
}

// productPayloadData builds the catalog_product create/update data struct
func productPayloadData(p integration.ProductPayload) map[string]interface{} {
	status := 2
	if p.Enabled {
		status = 1
	}
	categories := make([]interface{}, 0, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		categories = append(categories, id)
	}
	websites := make([]interface{}, 0, len(p.WebsiteIDs))
	for _, id := range p.WebsiteIDs {
		websites = append(websites, id)
	}
	return map[string]interface{}{
		"name":              p.Name,
		"description":       p.Description,
		"short_description": p.Description,
		"price":             p.Price.InexactFloat64(),
		"categories":        categories,
		"websites":          websites,
		"status":            status,
	}
}

// decodeInto converts an untyped XML-RPC value into a typed struct
func decodeInto(raw interface{}, target interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrInvalidResponse, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrInvalidResponse, err)
	}
	return nil
}
