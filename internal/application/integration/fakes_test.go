package integration

import (
	"context"
	"sync"
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// Store gateway mocks
// =============================================================================

type MockStoreGateway struct {
	mock.Mock
}

func (m *MockStoreGateway) Open(ctx context.Context, creds integration.Credentials) (integration.StoreSession, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.StoreSession), args.Error(1)
}

type MockStoreSession struct {
	mock.Mock
}

func (m *MockStoreSession) SearchOrders(ctx context.Context, filter integration.OrderFilter, limit, page int) (*integration.OrderSearchResult, error) {
	args := m.Called(ctx, filter, limit, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderSearchResult), args.Error(1)
}

func (m *MockStoreSession) OrderInfo(ctx context.Context, incrementID string) (*integration.OrderData, error) {
	args := m.Called(ctx, incrementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderData), args.Error(1)
}

func (m *MockStoreSession) OrderInfoMulti(ctx context.Context, incrementIDs []string) ([]integration.OrderInfoResult, error) {
	args := m.Called(ctx, incrementIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.OrderInfoResult), args.Error(1)
}

func (m *MockStoreSession) AddOrderComment(ctx context.Context, incrementID, status, comment string, notify bool) error {
	return m.Called(ctx, incrementID, status, comment, notify).Error(0)
}

func (m *MockStoreSession) CancelOrder(ctx context.Context, incrementID string) error {
	return m.Called(ctx, incrementID).Error(0)
}

func (m *MockStoreSession) ListProducts(ctx context.Context) ([]integration.ProductSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductSummary), args.Error(1)
}

func (m *MockStoreSession) ProductInfo(ctx context.Context, sku string) (*integration.ProductData, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductData), args.Error(1)
}

func (m *MockStoreSession) CreateProduct(ctx context.Context, productType, attributeSet string, payload integration.ProductPayload) (int, error) {
	args := m.Called(ctx, productType, attributeSet, payload)
	return args.Int(0), args.Error(1)
}

func (m *MockStoreSession) UpdateProduct(ctx context.Context, productID string, payload integration.ProductPayload) error {
	return m.Called(ctx, productID, payload).Error(0)
}

func (m *MockStoreSession) UpdateTierPrices(ctx context.Context, productID string, tiers []integration.TierPrice) error {
	return m.Called(ctx, productID, tiers).Error(0)
}

func (m *MockStoreSession) CategoryTree(ctx context.Context, rootID int) (*integration.CategoryNode, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CategoryNode), args.Error(1)
}

func (m *MockStoreSession) CreateShipment(ctx context.Context, orderIncrementID string, itemsQty map[string]float64, comment string, notify bool) (string, error) {
	args := m.Called(ctx, orderIncrementID, itemsQty, comment, notify)
	return args.String(0), args.Error(1)
}

func (m *MockStoreSession) AddTrack(ctx context.Context, shipmentIncrementID string, track integration.ShipmentTrack) error {
	return m.Called(ctx, shipmentIncrementID, track).Error(0)
}

func (m *MockStoreSession) OrderStates(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockStoreSession) ShippingMethods(ctx context.Context) ([]integration.ShippingMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ShippingMethod), args.Error(1)
}

func (m *MockStoreSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// =============================================================================
// In-memory repositories
// =============================================================================

type watermarkWrite struct {
	Kind channel.WatermarkKind
	At   time.Time
}

type memChannels struct {
	mu       sync.Mutex
	channels map[uuid.UUID]*channel.Channel
	writes   []watermarkWrite
	err      error
}

func newMemChannels(chs ...*channel.Channel) *memChannels {
	r := &memChannels{channels: make(map[uuid.UUID]*channel.Channel)}
	for _, ch := range chs {
		r.channels[ch.ID] = ch
	}
	return r
}

func (r *memChannels) FindByID(ctx context.Context, id uuid.UUID) (*channel.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, channel.ErrChannelNotFound
	}
	return ch, nil
}

func (r *memChannels) FindBySource(ctx context.Context, source channel.Source) ([]channel.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []channel.Channel
	for _, ch := range r.channels {
		if ch.Source == source {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *memChannels) Save(ctx context.Context, ch *channel.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.ID] = ch
	return nil
}

func (r *memChannels) UpdateWatermark(ctx context.Context, id uuid.UUID, kind channel.WatermarkKind, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.writes = append(r.writes, watermarkWrite{Kind: kind, At: t})
	return nil
}

type memOrderStates struct {
	states []*channel.OrderState
}

func (r *memOrderStates) FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*channel.OrderState, error) {
	for _, s := range r.states {
		if s.ChannelID == channelID && s.Code == code {
			return s, nil
		}
	}
	return nil, channel.ErrOrderStateNotFound
}

func (r *memOrderStates) FindByChannel(ctx context.Context, channelID uuid.UUID) ([]channel.OrderState, error) {
	var out []channel.OrderState
	for _, s := range r.states {
		if s.ChannelID == channelID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memOrderStates) Save(ctx context.Context, state *channel.OrderState) error {
	for i, s := range r.states {
		if s.ID == state.ID {
			r.states[i] = state
			return nil
		}
	}
	r.states = append(r.states, state)
	return nil
}

type memCarriers struct {
	carriers []*channel.Carrier
}

func (r *memCarriers) FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*channel.Carrier, error) {
	for _, c := range r.carriers {
		if c.ChannelID == channelID && c.Code == code {
			return c, nil
		}
	}
	return nil, channel.ErrCarrierNotFound
}

func (r *memCarriers) FindByLocalCarrier(ctx context.Context, channelID uuid.UUID, localCarrier string) (*channel.Carrier, error) {
	for _, c := range r.carriers {
		if c.ChannelID == channelID && c.LocalCarrier == localCarrier {
			return c, nil
		}
	}
	return nil, channel.ErrCarrierNotFound
}

func (r *memCarriers) Save(ctx context.Context, carrier *channel.Carrier) error {
	for i, c := range r.carriers {
		if c.ID == carrier.ID {
			r.carriers[i] = carrier
			return nil
		}
	}
	r.carriers = append(r.carriers, carrier)
	return nil
}

type memProducts struct {
	products map[string]*catalog.Product
}

func newMemProducts() *memProducts {
	return &memProducts{products: make(map[string]*catalog.Product)}
}

func (r *memProducts) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	if p, ok := r.products[code]; ok {
		return p, nil
	}
	return nil, catalog.ErrProductNotFound
}

func (r *memProducts) FindWithCodeModifiedSince(ctx context.Context, since *time.Time) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.Code != "" && (since == nil || !p.UpdatedAt.Before(*since)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProducts) Save(ctx context.Context, product *catalog.Product) error {
	r.products[product.Code] = product
	return nil
}

type memListings struct {
	products *memProducts
	listings []*catalog.Listing
}

func (r *memListings) FindByProductCode(ctx context.Context, channelID uuid.UUID, code string) (*catalog.Listing, error) {
	for _, l := range r.listings {
		if l.ChannelID == channelID && l.ProductCode == code {
			return l, nil
		}
	}
	return nil, catalog.ErrListingNotFound
}

func (r *memListings) FindByChannelModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]catalog.Listing, error) {
	var out []catalog.Listing
	for _, l := range r.listings {
		if l.ChannelID != channelID {
			continue
		}
		if since != nil {
			p, ok := r.products.products[l.ProductCode]
			if !ok || p.UpdatedAt.Before(*since) {
				continue
			}
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *memListings) Save(ctx context.Context, listing *catalog.Listing) error {
	for i, l := range r.listings {
		if l.ID == listing.ID {
			r.listings[i] = listing
			return nil
		}
	}
	r.listings = append(r.listings, listing)
	return nil
}

func (r *memListings) byChannel(channelID uuid.UUID) []*catalog.Listing {
	var out []*catalog.Listing
	for _, l := range r.listings {
		if l.ChannelID == channelID {
			out = append(out, l)
		}
	}
	return out
}

type memCategories struct {
	categories []*catalog.Category
}

func (r *memCategories) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (r *memCategories) FindByCode(ctx context.Context, code string) (*catalog.Category, error) {
	for _, c := range r.categories {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (r *memCategories) FindByRemoteID(ctx context.Context, channelID uuid.UUID, remoteID int) (*catalog.Category, error) {
	for _, c := range r.categories {
		if c.IsRemote() && *c.ChannelID == channelID && *c.RemoteID == remoteID {
			return c, nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (r *memCategories) FindChildren(ctx context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	var out []catalog.Category
	for _, c := range r.categories {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memCategories) Save(ctx context.Context, category *catalog.Category) error {
	for i, c := range r.categories {
		if c.ID == category.ID {
			r.categories[i] = category
			return nil
		}
	}
	r.categories = append(r.categories, category)
	return nil
}

type memPriceLists struct {
	lists map[uuid.UUID]*catalog.PriceList
}

func (r *memPriceLists) FindByID(ctx context.Context, id uuid.UUID) (*catalog.PriceList, error) {
	if pl, ok := r.lists[id]; ok {
		return pl, nil
	}
	return nil, catalog.ErrPriceListNotFound
}

func (r *memPriceLists) Save(ctx context.Context, priceList *catalog.PriceList) error {
	r.lists[priceList.ID] = priceList
	return nil
}

type memSales struct {
	sales []*trade.Sale
	saves int
}

func (r *memSales) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	for _, s := range r.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, trade.ErrSaleNotFound
}

func (r *memSales) FindByReference(ctx context.Context, channelID uuid.UUID, reference string) (*trade.Sale, error) {
	for _, s := range r.sales {
		if s.ChannelID == channelID && s.Reference == reference {
			return s, nil
		}
	}
	return nil, trade.ErrSaleNotFound
}

func (r *memSales) FindModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]trade.Sale, error) {
	var out []trade.Sale
	for _, s := range r.sales {
		if s.ChannelID == channelID && (since == nil || !s.UpdatedAt.Before(*since)) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSales) FindShippedModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]trade.Sale, error) {
	var out []trade.Sale
	for _, s := range r.sales {
		if s.ChannelID != channelID || s.ShipmentState != trade.ShipmentStateSent || !s.HasRemoteOrder() || !s.HasShipments() {
			continue
		}
		if since == nil || !s.UpdatedAt.Before(*since) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSales) FindByStates(ctx context.Context, channelID uuid.UUID, states []trade.SaleState) ([]trade.Sale, error) {
	var out []trade.Sale
	for _, s := range r.sales {
		if s.ChannelID != channelID {
			continue
		}
		for _, st := range states {
			if s.State == st {
				out = append(out, *s)
				break
			}
		}
	}
	return out, nil
}

func (r *memSales) Save(ctx context.Context, sale *trade.Sale) error {
	r.saves++
	for i, s := range r.sales {
		if s.ID == sale.ID {
			r.sales[i] = sale
			return nil
		}
	}
	r.sales = append(r.sales, sale)
	return nil
}

type memShipments struct {
	sales *memSales
}

func (r *memShipments) SetRemoteIncrementID(ctx context.Context, saleID uuid.UUID, incrementID string) error {
	sale, err := r.sales.FindByID(ctx, saleID)
	if err != nil {
		return err
	}
	for i := range sale.Shipments {
		sale.Shipments[i].RemoteIncrementID = incrementID
	}
	return nil
}

func (r *memShipments) MarkTrackingExported(ctx context.Context, shipmentID uuid.UUID) error {
	for _, s := range r.sales.sales {
		for i := range s.Shipments {
			if s.Shipments[i].ID == shipmentID {
				s.Shipments[i].TrackingExported = true
				return nil
			}
		}
	}
	return trade.ErrShipmentNotFound
}

// =============================================================================
// Fixture
// =============================================================================

type syncFixture struct {
	ch         *channel.Channel
	gateway    *MockStoreGateway
	session    *MockStoreSession
	channels   *memChannels
	states     *memOrderStates
	carriers   *memCarriers
	products   *memProducts
	listings   *memListings
	categories *memCategories
	priceLists *memPriceLists
	sales      *memSales
	service    *MagentoSyncService
	logs       *observer.ObservedLogs
}

func newMagentoChannel() *channel.Channel {
	ch, err := channel.NewMagentoChannel("Main store", channel.MagentoSettings{
		URL:       "https://shop.example.com",
		APIUser:   "erp",
		APIKey:    "secret",
		WebsiteID: 1,
		StoreID:   1,
	})
	if err != nil {
		panic(err)
	}
	return ch
}

func newSyncFixture() *syncFixture {
	core, logs := observer.New(zapcore.DebugLevel)
	f := &syncFixture{
		logs:       logs,
		ch:         newMagentoChannel(),
		gateway:    new(MockStoreGateway),
		session:    new(MockStoreSession),
		states:     &memOrderStates{},
		carriers:   &memCarriers{},
		products:   newMemProducts(),
		categories: &memCategories{},
		priceLists: &memPriceLists{lists: make(map[uuid.UUID]*catalog.PriceList)},
		sales:      &memSales{},
	}
	f.channels = newMemChannels(f.ch)
	f.listings = &memListings{products: f.products}
	f.service = NewMagentoSyncService(f.gateway, Repositories{
		Channels:    f.channels,
		OrderStates: f.states,
		Carriers:    f.carriers,
		Products:    f.products,
		Listings:    f.listings,
		Categories:  f.categories,
		PriceLists:  f.priceLists,
		Sales:       f.sales,
		Shipments:   &memShipments{sales: f.sales},
	}, MagentoSyncOptions{}, zap.New(core))
	return f
}

// expectSession lets the gateway hand out the mocked session any number of times
func (f *syncFixture) expectSession() {
	f.gateway.On("Open", mock.Anything, mock.Anything).Return(f.session, nil)
	f.session.On("Close", mock.Anything).Return(nil)
}
