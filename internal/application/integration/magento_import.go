package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/domain/trade"
	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ImportOrderStates mirrors the order states of the store, assigning the
// default action to states seen for the first time
func (s *MagentoSyncService) ImportOrderStates(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationImportOrderStates))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	var remote map[string]string
	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		var err error
		remote, err = session.OrderStates(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(remote))
	for code := range remote {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	result = integration.NewSyncResult(integration.OperationImportOrderStates, ch.ID)
	for _, code := range codes {
		state, err := s.repos.OrderStates.FindByCode(ctx, ch.ID, code)
		switch {
		case errors.Is(err, channel.ErrOrderStateNotFound):
			state, err = channel.NewOrderState(ch.ID, code, remote[code])
			if err != nil {
				result.Skip(code, err)
				continue
			}
		case err != nil:
			return nil, err
		default:
			if state.Name == remote[code] {
				result.Add(code)
				continue
			}
			state.Name = remote[code]
			state.Touch()
		}
		if err := s.repos.OrderStates.Save(ctx, state); err != nil {
			return nil, err
		}
		result.Add(code)
	}

	log.Info("Imported order states", zap.Int("count", result.ProcessedCount()))
	return result.Finish(), nil
}

// ImportCarriers mirrors the shipping methods of the store as carrier mappings
func (s *MagentoSyncService) ImportCarriers(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationImportCarriers))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	var methods []integration.ShippingMethod
	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		var err error
		methods, err = session.ShippingMethods(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationImportCarriers, ch.ID)
	for _, method := range methods {
		carrier, err := s.repos.Carriers.FindByCode(ctx, ch.ID, method.Code)
		switch {
		case errors.Is(err, channel.ErrCarrierNotFound):
			carrier, err = channel.NewCarrier(ch.ID, method.Code, method.Title)
			if err != nil {
				result.Skip(method.Code, err)
				continue
			}
		case err != nil:
			return nil, err
		default:
			carrier.Title = method.Title
			carrier.Touch()
		}
		if err := s.repos.Carriers.Save(ctx, carrier); err != nil {
			return nil, err
		}
		result.Add(carrier.Code)
	}

	log.Info("Imported carriers", zap.Int("count", result.ProcessedCount()))
	return result.Finish(), nil
}

// ImportCategoryTree mirrors the category tree below the channel root category
func (s *MagentoSyncService) ImportCategoryTree(ctx context.Context, ch *channel.Channel) (root *catalog.Category, err error) {
	ctx, span, log, err := s.begin(ctx, ch, "import_category_tree")
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	var tree *integration.CategoryNode
	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		var err error
		tree, err = session.CategoryTree(ctx, ch.Magento.RootCategoryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	count := 0
	root, err = s.mirrorCategory(ctx, ch, tree, nil, &count)
	if err != nil {
		return nil, err
	}
	log.Info("Imported category tree", zap.Int("categories", count))
	return root, nil
}

func (s *MagentoSyncService) mirrorCategory(ctx context.Context, ch *channel.Channel, node *integration.CategoryNode, parent *catalog.Category, count *int) (*catalog.Category, error) {
	category, err := s.repos.Categories.FindByRemoteID(ctx, ch.ID, node.CategoryID)
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound):
		category, err = catalog.NewRemoteCategory(ch.ID, node.CategoryID, node.Name, parent)
		if err != nil {
			return nil, err
		}
		if err := s.repos.Categories.Save(ctx, category); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case category.Name != node.Name && node.Name != "" && category.Code != catalog.UnclassifiedCategoryCode:
		category.Rename(node.Name)
		if err := s.repos.Categories.Save(ctx, category); err != nil {
			return nil, err
		}
	}
	*count++

	for i := range node.Children {
		if _, err := s.mirrorCategory(ctx, ch, &node.Children[i], category, count); err != nil {
			return nil, err
		}
	}
	return category, nil
}

// ImportProducts imports the category tree, then every product listed on the store.
// Products are fetched one at a time.
func (s *MagentoSyncService) ImportProducts(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	if err := ch.ValidateMagento(); err != nil {
		return nil, err
	}
	if _, err := s.ImportCategoryTree(ctx, ch); err != nil {
		return nil, err
	}

	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationImportProducts))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	var summaries []integration.ProductSummary
	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		var err error
		summaries, err = session.ListProducts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationImportProducts, ch.ID)
	for _, summary := range summaries {
		sku := catalog.NormalizeSKU(summary.SKU)
		if sku == "" {
			log.Warn("Skipping remote product without SKU", zap.Int("product_id", summary.ProductID))
			result.Skip(strconv.Itoa(summary.ProductID), catalog.ErrEmptySKU)
			continue
		}
		product, err := s.ImportProduct(ctx, ch, sku, nil)
		if err != nil {
			return nil, fmt.Errorf("import product %q: %w", sku, err)
		}
		result.Add(product.Code)
	}

	log.Info("Imported products", zap.Int("count", result.ProcessedCount()))
	return result.Finish(), nil
}

// ImportProduct returns the local product for a SKU, creating the product
// and its channel listing when missing. The remote product is only fetched
// when data is nil and something has to be created.
func (s *MagentoSyncService) ImportProduct(ctx context.Context, ch *channel.Channel, sku string, data *integration.ProductData) (*catalog.Product, error) {
	if err := ch.ValidateMagento(); err != nil {
		return nil, err
	}
	sku = catalog.NormalizeSKU(sku)
	if sku == "" {
		return nil, catalog.ErrEmptySKU
	}

	product, err := s.repos.Products.FindByCode(ctx, sku)
	if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
		return nil, err
	}
	listing, err := s.repos.Listings.FindByProductCode(ctx, ch.ID, sku)
	if err != nil && !errors.Is(err, catalog.ErrListingNotFound) {
		return nil, err
	}
	if product != nil && listing != nil {
		return product, nil
	}
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "import_product",
		telemetry.SpanAttrProductCode, sku)

	if data == nil {
		err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
			var err error
			data, err = session.ProductInfo(ctx, sku)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	data.SKU = catalog.NormalizeSKU(data.SKU)

	if product == nil {
		product, err = s.createProduct(ctx, ch, sku, data)
		if err != nil {
			return nil, err
		}
	}

	listing, err = catalog.NewListing(ch.ID, product, strconv.Itoa(data.ProductID))
	if err != nil {
		return nil, err
	}
	if err := s.repos.Listings.Save(ctx, listing); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *MagentoSyncService) createProduct(ctx context.Context, ch *channel.Channel, sku string, data *integration.ProductData) (*catalog.Product, error) {
	product, err := catalog.NewProduct(sku, data.Name)
	if err != nil {
		return nil, err
	}
	if err := product.Update(product.Name, data.Description); err != nil {
		return nil, err
	}
	product.Type = catalog.ProductTypeFromRemote(data.Type)
	if err := product.SetListPrice(data.Price); err != nil {
		return nil, err
	}

	for _, remoteID := range data.CategoryIDs {
		category, err := s.repos.Categories.FindByRemoteID(ctx, ch.ID, remoteID)
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		product.SetCategory(&category.ID)
		break
	}

	if err := s.repos.Products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// ImportOrders imports the orders of the channel store that are in an
// importable state. The order import watermark is advanced first.
func (s *MagentoSyncService) ImportOrders(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationImportOrders))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	states, err := s.repos.OrderStates.FindByChannel(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	filter := integration.OrderFilter{StoreID: ch.Magento.StoreID}
	for _, state := range states {
		if state.Importable() {
			filter.States = append(filter.States, state.Code)
		}
	}

	if _, err := s.watermarks.Advance(ctx, ch, channel.WatermarkOrderImport); err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationImportOrders, ch.ID)
	if len(filter.States) == 0 {
		log.Info("No importable order states, import order states first")
		return result.Finish(), nil
	}

	var summaries []integration.OrderSummary
	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		for page, hasNext := 1, true; hasNext; page++ {
			res, err := session.SearchOrders(ctx, filter, s.options.OrderSearchPageSize, page)
			if err != nil {
				return err
			}
			summaries = append(summaries, res.Items...)
			hasNext = res.HasNext
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, summary := range summaries {
		sale, err := s.ImportOrder(ctx, ch, summary)
		if err != nil {
			return nil, fmt.Errorf("import order %s: %w", summary.IncrementID, err)
		}
		result.Add(sale.Reference)
	}

	log.Info("Imported orders", zap.Int("count", result.ProcessedCount()))
	return result.Finish(), nil
}

// ImportOrder returns the sale of a remote order, creating it from the
// remote order detail when it does not exist yet
func (s *MagentoSyncService) ImportOrder(ctx context.Context, ch *channel.Channel, summary integration.OrderSummary) (*trade.Sale, error) {
	if err := ch.ValidateMagento(); err != nil {
		return nil, err
	}

	reference := ch.OrderReference(summary.IncrementID)
	sale, err := s.repos.Sales.FindByReference(ctx, ch.ID, reference)
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, trade.ErrSaleNotFound) {
		return nil, err
	}

	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "import_order",
		telemetry.SpanAttrIncrementID, summary.IncrementID)
	var data *integration.OrderData
	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		var err error
		data, err = session.OrderInfo(ctx, summary.IncrementID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.createSale(ctx, ch, data)
}

func (s *MagentoSyncService) createSale(ctx context.Context, ch *channel.Channel, data *integration.OrderData) (*trade.Sale, error) {
	action := channel.DefaultActionForState(data.State).Action
	state, err := s.repos.OrderStates.FindByCode(ctx, ch.ID, data.State)
	switch {
	case err == nil:
		action = state.Action
	case !errors.Is(err, channel.ErrOrderStateNotFound):
		return nil, err
	}

	sale, err := trade.NewSale(ch.ID, ch.OrderReference(data.IncrementID))
	if err != nil {
		return nil, err
	}
	remoteID := data.OrderID
	sale.RemoteID = &remoteID
	sale.RemoteState = data.State
	sale.State = trade.StateForAction(action)
	sale.CustomerName = data.CustomerName()
	sale.CustomerEmail = data.CustomerEmail
	sale.Currency = data.CurrencyCode
	sale.ShippingAmount = data.ShippingAmount

	for _, item := range data.Items {
		// configurable and bundle children repeat their parent line
		if item.IsChild() {
			continue
		}
		itemID := item.ItemID
		line, err := sale.AddLine(catalog.NormalizeSKU(item.SKU), item.Name, item.QtyOrdered, item.Price, &itemID)
		if err != nil {
			return nil, fmt.Errorf("order item %d: %w", item.ItemID, err)
		}
		line.TaxCodes = ch.TaxesFor(item.TaxPercent)
	}

	if err := s.repos.Sales.Save(ctx, sale); err != nil {
		return nil, err
	}
	s.logger.Info("Imported order",
		zap.String("channel_id", ch.ID.String()),
		zap.String("increment_id", data.IncrementID),
		zap.String("reference", sale.Reference),
		zap.String("state", string(sale.State)))
	return sale, nil
}
