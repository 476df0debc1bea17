package ecommerce

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/channelsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Fake XML-RPC server
// ---------------------------------------------------------------------------

var (
	methodNameRx = regexp.MustCompile(`<methodName>([^<]*)</methodName>`)
	stringRx     = regexp.MustCompile(`<string>([^<]*)</string>`)
)

type fakeFault struct {
	code    int
	message string
}

// fakeMagento answers XML-RPC calls with canned <value> payloads keyed by
// the method name, or by the resource for "call" requests
type fakeMagento struct {
	mu        sync.Mutex
	responses map[string]string
	faults    map[string]fakeFault
	calls     []string
	bodies    map[string]string
}

func newFakeMagento() *fakeMagento {
	return &fakeMagento{
		responses: map[string]string{
			"login":      `<string>session-1</string>`,
			"endSession": `<boolean>1</boolean>`,
		},
		faults: map[string]fakeFault{},
		bodies: map[string]string{},
	}
}

func (f *fakeMagento) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	method := ""
	if m := methodNameRx.FindSubmatch(body); m != nil {
		method = string(m[1])
	}
	key := method
	if method == "call" {
		if strs := stringRx.FindAllSubmatch(body, 2); len(strs) == 2 {
			key = string(strs[1][1])
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.bodies[key] = string(body)
	fault, hasFault := f.faults[key]
	value, hasValue := f.responses[key]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	switch {
	case hasFault:
		fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><fault><value><struct>`+
			`<member><name>faultCode</name><value><int>%d</int></value></member>`+
			`<member><name>faultString</name><value><string>%s</string></value></member>`+
			`</struct></value></fault></methodResponse>`, fault.code, fault.message)
	case hasValue:
		fmt.Fprintf(w, `<?xml version="1.0"?><methodResponse><params><param><value>%s</value></param></params></methodResponse>`, value)
	default:
		fmt.Fprint(w, `<?xml version="1.0"?><methodResponse><params><param><value><boolean>1</boolean></value></param></params></methodResponse>`)
	}
}

func (f *fakeMagento) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeMagento) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func member(name, value string) string {
	return fmt.Sprintf(`<member><name>%s</name><value>%s</value></member>`, name, value)
}

func xstruct(members ...string) string {
	return `<struct>` + strings.Join(members, "") + `</struct>`
}

func xarray(values ...string) string {
	var b strings.Builder
	b.WriteString(`<array><data>`)
	for _, v := range values {
		b.WriteString(`<value>` + v + `</value>`)
	}
	b.WriteString(`</data></array>`)
	return b.String()
}

func xstr(s string) string { return `<string>` + s + `</string>` }

func openTestSession(t *testing.T, fake *fakeMagento) integration.StoreSession {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	gateway := NewMagentoGateway("", 5, nil, WithMagentoTransport(http.DefaultTransport))
	session, err := gateway.Open(context.Background(), integration.Credentials{
		URL:     server.URL,
		APIUser: "api",
		APIKey:  "secret",
	})
	require.NoError(t, err)
	return session
}

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestMagentoConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *MagentoConfig
		wantErr error
	}{
		{
			name:   "valid config",
			config: &MagentoConfig{URL: "https://shop.example.com", APIUser: "api", APIKey: "key"},
		},
		{
			name:    "missing url",
			config:  &MagentoConfig{APIUser: "api", APIKey: "key"},
			wantErr: ErrMagentoConfigMissingURL,
		},
		{
			name:    "relative url",
			config:  &MagentoConfig{URL: "shop.example.com", APIUser: "api", APIKey: "key"},
			wantErr: ErrMagentoConfigInvalidURL,
		},
		{
			name:    "missing api user",
			config:  &MagentoConfig{URL: "https://shop.example.com", APIKey: "key"},
			wantErr: ErrMagentoConfigMissingAPIUser,
		},
		{
			name:    "missing api key",
			config:  &MagentoConfig{URL: "https://shop.example.com", APIUser: "api"},
			wantErr: ErrMagentoConfigMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, DefaultMagentoAPIPath, tt.config.APIPath)
			assert.Equal(t, DefaultMagentoTimeoutSeconds, tt.config.TimeoutSeconds)
		})
	}
}

func TestMagentoConfig_Endpoint(t *testing.T) {
	config := NewMagentoConfig("https://shop.example.com/", "api", "key")
	assert.Equal(t, "https://shop.example.com/index.php/api/xmlrpc", config.Endpoint())
}

// ---------------------------------------------------------------------------
// Session Tests
// ---------------------------------------------------------------------------

func TestMagentoGateway_OpenAndClose(t *testing.T) {
	fake := newFakeMagento()
	session := openTestSession(t, fake)

	require.NoError(t, session.Close(context.Background()))
	assert.Equal(t, []string{"login", "endSession"}, fake.called())
	assert.Contains(t, fake.body("login"), "secret")
}

func TestMagentoGateway_LoginFault(t *testing.T) {
	fake := newFakeMagento()
	fake.faults["login"] = fakeFault{code: 2, message: "Access denied."}
	server := httptest.NewServer(fake)
	defer server.Close()

	gateway := NewMagentoGateway("", 5, nil, WithMagentoTransport(http.DefaultTransport))
	_, err := gateway.Open(context.Background(), integration.Credentials{URL: server.URL, APIUser: "api", APIKey: "bad"})
	require.Error(t, err)

	fault, ok := integration.AsFault(err)
	require.True(t, ok)
	assert.Equal(t, 2, fault.Code)
	assert.Equal(t, "Access denied.", fault.Message)
}

func TestMagentoGateway_InvalidCredentials(t *testing.T) {
	gateway := NewMagentoGateway("", 5, nil)
	_, err := gateway.Open(context.Background(), integration.Credentials{URL: "https://shop.example.com"})
	assert.ErrorIs(t, err, ErrMagentoConfigMissingAPIUser)
}

func TestMagentoSession_SearchOrders(t *testing.T) {
	fake := newFakeMagento()
	fake.responses["sales_order.search"] = xstruct(
		member("items", xarray(
			xstruct(member("order_id", xstr("7")), member("increment_id", xstr("100000007")), member("state", xstr("new"))),
			xstruct(member("order_id", `<int>8</int>`), member("increment_id", xstr("100000008")), member("state", xstr("processing"))),
		)),
		member("hasNext", `<boolean>1</boolean>`),
	)
	session := openTestSession(t, fake)

	res, err := session.SearchOrders(context.Background(), integration.OrderFilter{StoreID: 1, States: []string{"new", "processing"}}, 3000, 1)
	require.NoError(t, err)

	assert.True(t, res.HasNext)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 7, res.Items[0].OrderID)
	assert.Equal(t, "100000007", res.Items[0].IncrementID)
	assert.Equal(t, 8, res.Items[1].OrderID)
	assert.Contains(t, fake.body("sales_order.search"), "<int>3000</int>")
}

func TestMagentoSession_OrderInfo(t *testing.T) {
	fake := newFakeMagento()
	fake.responses["sales_order.info"] = xstruct(
		member("order_id", xstr("7")),
		member("increment_id", xstr("100000007")),
		member("state", xstr("processing")),
		member("customer_firstname", xstr("Ada")),
		member("customer_lastname", xstr("Lovelace")),
		member("order_currency_code", xstr("USD")),
		member("shipping_amount", xstr("5.0000")),
		member("items", xarray(
			xstruct(member("item_id", xstr("11")), member("sku", xstr("SKU-A ")), member("qty_ordered", xstr("2.0000")), member("price", xstr("9.9900")), member("tax_percent", xstr(""))),
			xstruct(member("item_id", xstr("12")), member("parent_item_id", xstr("11")), member("sku", xstr("SKU-A-RED")), member("qty_ordered", xstr("2.0000"))),
		)),
	)
	session := openTestSession(t, fake)

	order, err := session.OrderInfo(context.Background(), "100000007")
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", order.CustomerName())
	assert.True(t, decimal.NewFromInt(5).Equal(order.ShippingAmount))
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2.0, order.Items[0].QtyOrdered)
	assert.True(t, decimal.NewFromFloat(9.99).Equal(order.Items[0].Price))
	assert.True(t, order.Items[0].TaxPercent.IsZero())
	assert.False(t, order.Items[0].IsChild())
	assert.True(t, order.Items[1].IsChild())
}

func TestMagentoSession_OrderInfoMulti(t *testing.T) {
	fake := newFakeMagento()
	fake.responses["sales_order.info_multi"] = xarray(
		xstruct(member("isFault", `<boolean>1</boolean>`), member("faultCode", xstr("100")), member("faultMessage", xstr("Requested order not exists."))),
		xstruct(member("increment_id", xstr("100000002")), member("state", xstr("complete"))),
	)
	session := openTestSession(t, fake)

	results, err := session.OrderInfoMulti(context.Background(), []string{"100000001", "100000002"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "100000001", results[0].IncrementID)
	require.NotNil(t, results[0].Fault)
	assert.Equal(t, integration.FaultOrderNotFound, results[0].Fault.Kind())
	assert.Nil(t, results[0].Order)

	assert.Nil(t, results[1].Fault)
	require.NotNil(t, results[1].Order)
	assert.Equal(t, "complete", results[1].Order.State)
}

func TestMagentoSession_CreateShipment(t *testing.T) {
	t.Run("returns increment id", func(t *testing.T) {
		fake := newFakeMagento()
		fake.responses["sales_order_shipment.create"] = xstr("200000001")
		session := openTestSession(t, fake)

		id, err := session.CreateShipment(context.Background(), "100000007", map[string]float64{"11": 5}, "", false)
		require.NoError(t, err)
		assert.Equal(t, "200000001", id)
		assert.Contains(t, fake.body("sales_order_shipment.create"), "<name>11</name>")
	})

	t.Run("shipment exists fault", func(t *testing.T) {
		fake := newFakeMagento()
		fake.faults["sales_order_shipment.create"] = fakeFault{code: 102, message: "Cannot do shipment for order."}
		session := openTestSession(t, fake)

		_, err := session.CreateShipment(context.Background(), "100000007", map[string]float64{"11": 5}, "", false)
		require.Error(t, err)
		assert.True(t, integration.IsFault(err, integration.FaultShipmentExists))
	})
}

func TestMagentoSession_CategoryTree(t *testing.T) {
	fake := newFakeMagento()
	fake.responses["catalog_category.tree"] = xstruct(
		member("category_id", xstr("1")),
		member("name", xstr("Root")),
		member("level", xstr("0")),
		member("children", xarray(
			xstruct(member("category_id", xstr("3")), member("parent_id", xstr("1")), member("name", xstr("Shoes")), member("level", xstr("1")),
				member("children", xarray(
					xstruct(member("category_id", xstr("4")), member("parent_id", xstr("3")), member("name", xstr("Boots")), member("level", xstr("2"))),
				))),
		)),
	)
	session := openTestSession(t, fake)

	tree, err := session.CategoryTree(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Root", tree.Name)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, 3, tree.Children[0].CategoryID)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "Boots", tree.Children[0].Children[0].Name)
	assert.Equal(t, 3, tree.Children[0].Children[0].ParentID)
}

func TestMagentoSession_Products(t *testing.T) {
	fake := newFakeMagento()
	fake.responses["catalog_product.list"] = xarray(
		xstruct(member("product_id", xstr("1")), member("sku", xstr("SKU-A")), member("type", xstr("simple")), member("set", xstr("4"))),
	)
	fake.responses["catalog_product.info"] = xstruct(
		member("product_id", xstr("1")),
		member("sku", xstr("SKU-A ")),
		member("name", xstr("Product A")),
		member("type_id", xstr("virtual")),
		member("price", xstr("12.5000")),
		member("categories", xarray(xstr("3"), xstr("4"))),
	)
	fake.responses["catalog_product.create"] = `<int>42</int>`
	session := openTestSession(t, fake)
	ctx := context.Background()

	list, err := session.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "4", list[0].Set)

	info, err := session.ProductInfo(ctx, "SKU-A")
	require.NoError(t, err)
	assert.Equal(t, "virtual", info.Type)
	assert.Equal(t, []int{3, 4}, info.CategoryIDs)
	assert.True(t, decimal.NewFromFloat(12.5).Equal(info.Price))

	id, err := session.CreateProduct(ctx, "simple", "4", integration.ProductPayload{SKU: "SKU-B", Name: "B", Price: decimal.NewFromInt(3), CategoryIDs: []int{3}, Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Contains(t, fake.body("catalog_product.create"), "SKU-B")
}

func TestMagentoSession_TierPrices(t *testing.T) {
	fake := newFakeMagento()
	session := openTestSession(t, fake)

	err := session.UpdateTierPrices(context.Background(), "42", []integration.TierPrice{
		{Quantity: 10, Price: decimal.NewFromFloat(9.5)},
	})
	require.NoError(t, err)

	body := fake.body("catalog_product_attribute_tier_price.update")
	assert.Contains(t, body, "productID")
	assert.Contains(t, body, "<name>qty</name>")
}

func TestMagentoSession_OrderConfig(t *testing.T) {
	fake := newFakeMagento()
	fake.responses["sales_order_config.getStates"] = xstruct(
		member("new", xstr("New")),
		member("processing", xstr("Processing")),
	)
	fake.responses["sales_order_config.getShippingMethods"] = xarray(
		xstruct(member("code", xstr("flatrate")), member("label", xstr("Flat Rate"))),
	)
	session := openTestSession(t, fake)
	ctx := context.Background()

	states, err := session.OrderStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"new": "New", "processing": "Processing"}, states)

	methods, err := session.ShippingMethods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []integration.ShippingMethod{{Code: "flatrate", Title: "Flat Rate"}}, methods)
}

func TestMagentoSession_CancelledContext(t *testing.T) {
	fake := newFakeMagento()
	session := openTestSession(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.ListProducts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMagentoSession_CloseAfterCancel(t *testing.T) {
	fake := newFakeMagento()
	session := openTestSession(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, session.Close(ctx))
	assert.Equal(t, []string{"login", "endSession"}, fake.called())
	assert.Contains(t, fake.body("endSession"), "session-1")

	require.NoError(t, session.Close(ctx), "a closed session is not ended twice")
	assert.Len(t, fake.called(), 2)
}

func TestFlexTypes(t *testing.T) {
	var p magentoProduct
	require.NoError(t, decodeInto(map[string]interface{}{
		"product_id": int64(9),
		"price":      "",
		"sku":        "X",
	}, &p))
	assert.Equal(t, flexInt(9), p.ProductID)
	assert.True(t, p.Price.Decimal.IsZero())

	err := decodeInto(map[string]interface{}{"product_id": "abc"}, &p)
	assert.ErrorIs(t, err, integration.ErrInvalidResponse)
}
