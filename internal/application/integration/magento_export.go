package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/domain/trade"
	"go.uber.org/zap"
)

// ExportOrderStatus pushes the state of sales modified since the last run
// to the store: cancelled sales are cancelled, others get a status comment
func (s *MagentoSyncService) ExportOrderStatus(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationExportOrderStatus))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	since := s.watermarks.Get(ch, channel.WatermarkOrderExport)
	sales, err := s.repos.Sales.FindModifiedSince(ctx, ch.ID, since)
	if err != nil {
		return nil, err
	}
	if _, err := s.watermarks.Advance(ctx, ch, channel.WatermarkOrderExport); err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationExportOrderStatus, ch.ID)
	if len(sales) == 0 {
		return result.Finish(), nil
	}

	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		for i := range sales {
			sale := &sales[i]
			status, cancel := sale.RemoteStatus()
			if status == "" || !sale.HasRemoteOrder() {
				continue
			}
			incrementID := ch.IncrementID(sale.Reference)

			var err error
			if cancel {
				err = session.CancelOrder(ctx, incrementID)
			} else {
				err = session.AddOrderComment(ctx, incrementID, status, "", false)
			}
			if err != nil {
				return fmt.Errorf("export status of %s: %w", sale.Reference, err)
			}
			result.Add(sale.Reference)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Exported order status", zap.Int("count", result.ProcessedCount()))
	return result.Finish(), nil
}

// ExportShipmentStatus creates remote shipments for done shipments of sent
// sales. A shipment the store already has (FaultShipmentExists) is skipped.
func (s *MagentoSyncService) ExportShipmentStatus(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationExportShipmentStatus))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	since := s.watermarks.Get(ch, channel.WatermarkShipmentExport)
	sales, err := s.repos.Sales.FindShippedModifiedSince(ctx, ch.ID, since)
	if err != nil {
		return nil, err
	}
	if _, err := s.watermarks.Advance(ctx, ch, channel.WatermarkShipmentExport); err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationExportShipmentStatus, ch.ID)
	if len(sales) == 0 {
		return result.Finish(), nil
	}

	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		for i := range sales {
			exported, err := s.exportSaleShipments(ctx, session, ch, &sales[i], result)
			if err != nil {
				return err
			}
			if exported {
				result.Add(sales[i].Reference)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Exported shipments", zap.Int("sales", result.ProcessedCount()), zap.Int("skipped", len(result.FailedItems)))
	return result.Finish(), nil
}

func (s *MagentoSyncService) exportSaleShipments(ctx context.Context, session integration.StoreSession, ch *channel.Channel, sale *trade.Sale, result *integration.SyncResult) (bool, error) {
	incrementID := ch.IncrementID(sale.Reference)
	exported := false

	for i := range sale.Shipments {
		shipment := &sale.Shipments[i]
		if shipment.TrackingExported || shipment.State != trade.ShipmentDone || shipment.IsExported() {
			continue
		}

		items := sale.ShipmentItemsQty(shipment)
		remoteID, err := session.CreateShipment(ctx, incrementID, items, "", false)
		if integration.IsFault(err, integration.FaultShipmentExists) {
			s.logger.Info("Shipment already exists on store, skipping",
				zap.String("channel_id", ch.ID.String()),
				zap.String("increment_id", incrementID),
				zap.String("shipment_id", shipment.ID.String()))
			result.Skip(shipment.ID.String(), err)
			continue
		}
		if err != nil {
			return exported, fmt.Errorf("create shipment for %s: %w", sale.Reference, err)
		}

		// the store id is recorded on every shipment of the sale
		if err := s.repos.Shipments.SetRemoteIncrementID(ctx, sale.ID, remoteID); err != nil {
			return exported, err
		}
		for j := range sale.Shipments {
			sale.Shipments[j].RemoteIncrementID = remoteID
		}
		exported = true

		if ch.Magento.ExportTrackingInformation && shipment.TrackingNumber != "" && shipment.Carrier != "" {
			if err := s.exportTracking(ctx, session, ch, shipment, remoteID); err != nil {
				return exported, err
			}
		}
	}
	return exported, nil
}

// exportTracking attaches the tracking number of a shipment to its remote shipment
func (s *MagentoSyncService) exportTracking(ctx context.Context, session integration.StoreSession, ch *channel.Channel, shipment *trade.Shipment, remoteID string) error {
	track := integration.ShipmentTrack{
		CarrierCode: channel.CustomCarrierCode,
		Title:       shipment.Carrier,
		TrackNumber: shipment.TrackingNumber,
	}
	carrier, err := s.repos.Carriers.FindByLocalCarrier(ctx, ch.ID, shipment.Carrier)
	switch {
	case err == nil:
		track.CarrierCode = carrier.Code
		track.Title = carrier.Title
	case !errors.Is(err, channel.ErrCarrierNotFound):
		return err
	}

	if err := session.AddTrack(ctx, remoteID, track); err != nil {
		return fmt.Errorf("add track to shipment %s: %w", remoteID, err)
	}
	if err := s.repos.Shipments.MarkTrackingExported(ctx, shipment.ID); err != nil {
		return err
	}
	shipment.TrackingExported = true
	return nil
}

// ExportProductCatalog creates or updates products modified since the last run
// on the store. Products without a category of this channel are exported under
// the "Unclassified" category, which is created on first use.
func (s *MagentoSyncService) ExportProductCatalog(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationExportProductCatalog))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	since := s.watermarks.Get(ch, channel.WatermarkProductExport)
	products, err := s.repos.Products.FindWithCodeModifiedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if _, err := s.watermarks.Advance(ctx, ch, channel.WatermarkProductExport); err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationExportProductCatalog, ch.ID)
	if len(products) == 0 {
		return result.Finish(), nil
	}

	fallback, err := s.unclassifiedRemoteID(ctx, ch)
	if err != nil {
		return nil, err
	}

	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		for i := range products {
			if err := s.exportProduct(ctx, session, ch, &products[i], fallback); err != nil {
				return fmt.Errorf("export product %q: %w", products[i].Code, err)
			}
			result.Add(products[i].Code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Exported products", zap.Int("count", result.ProcessedCount()))
	return result.Finish(), nil
}

func (s *MagentoSyncService) exportProduct(ctx context.Context, session integration.StoreSession, ch *channel.Channel, product *catalog.Product, fallback int) error {
	categoryID, err := s.remoteCategoryOf(ctx, ch, product, fallback)
	if err != nil {
		return err
	}
	payload := integration.ProductPayload{
		SKU:         product.Code,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.ListPrice,
		CategoryIDs: []int{categoryID},
		WebsiteIDs:  []int{ch.Magento.WebsiteID},
		Enabled:     product.IsActive(),
	}

	listing, err := s.repos.Listings.FindByProductCode(ctx, ch.ID, product.Code)
	if err == nil {
		return session.UpdateProduct(ctx, listing.ProductIdentifier, payload)
	}
	if !errors.Is(err, catalog.ErrListingNotFound) {
		return err
	}

	remoteID, err := session.CreateProduct(ctx, remoteProductType(product.Type), defaultAttributeSet, payload)
	if err != nil {
		return err
	}
	listing, err = catalog.NewListing(ch.ID, product, strconv.Itoa(remoteID))
	if err != nil {
		return err
	}
	return s.repos.Listings.Save(ctx, listing)
}

// unclassifiedRemoteID returns the remote category of "Unclassified" on the
// channel. Unless the category was bound to a store category it maps to the
// channel root.
func (s *MagentoSyncService) unclassifiedRemoteID(ctx context.Context, ch *channel.Channel) (int, error) {
	category, err := s.repos.Categories.FindByCode(ctx, catalog.UnclassifiedCategoryCode)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		category = catalog.NewUnclassifiedCategory()
		err = s.repos.Categories.Save(ctx, category)
	}
	if err != nil {
		return 0, fmt.Errorf("unclassified category: %w", err)
	}
	if id, ok := category.RemoteIDOn(ch.ID); ok {
		return id, nil
	}
	return ch.Magento.RootCategoryID, nil
}

// remoteCategoryOf returns the remote category a product is exported under
func (s *MagentoSyncService) remoteCategoryOf(ctx context.Context, ch *channel.Channel, product *catalog.Product, fallback int) (int, error) {
	if !product.HasCategory() {
		return fallback, nil
	}
	category, err := s.repos.Categories.FindByID(ctx, *product.CategoryID)
	if errors.Is(err, catalog.ErrCategoryNotFound) {
		return fallback, nil
	}
	if err != nil {
		return 0, err
	}
	if id, ok := category.RemoteIDOn(ch.ID); ok {
		return id, nil
	}
	return fallback, nil
}

func remoteProductType(t catalog.ProductType) string {
	if t == catalog.ProductTypeService {
		return "virtual"
	}
	return "simple"
}

// ExportProductPrices pushes tier prices of listings whose product changed
// since the last run. It returns the number of listings processed.
func (s *MagentoSyncService) ExportProductPrices(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationExportProductPrices))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	since := s.watermarks.Get(ch, channel.WatermarkProductPriceExport)
	listings, err := s.repos.Listings.FindByChannelModifiedSince(ctx, ch.ID, since)
	if err != nil {
		return nil, err
	}
	if _, err := s.watermarks.Advance(ctx, ch, channel.WatermarkProductPriceExport); err != nil {
		return nil, err
	}

	result = integration.NewSyncResult(integration.OperationExportProductPrices, ch.ID)
	if len(listings) == 0 {
		return result.Finish(), nil
	}

	var priceList *catalog.PriceList
	if ch.PriceListID != nil {
		priceList, err = s.repos.PriceLists.FindByID(ctx, *ch.PriceListID)
		if err != nil {
			return nil, err
		}
	}

	err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
		for i := range listings {
			listing := &listings[i]
			tiers, err := s.tierPrices(ctx, ch, priceList, listing)
			if err != nil {
				return err
			}
			if err := session.UpdateTierPrices(ctx, listing.ProductIdentifier, tiers); err != nil {
				return fmt.Errorf("export tier prices of %q: %w", listing.ProductCode, err)
			}
			result.Add(listing.ProductCode)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Exported tier prices", zap.Int("listings", result.ProcessedCount()))
	return result.Finish(), nil
}

// tierPrices resolves the tiers of a listing: its own tiers with their
// stored prices, or the channel tiers priced through the channel price list
func (s *MagentoSyncService) tierPrices(ctx context.Context, ch *channel.Channel, priceList *catalog.PriceList, listing *catalog.Listing) ([]integration.TierPrice, error) {
	if listing.HasTiers() {
		tiers := make([]integration.TierPrice, 0, len(listing.Tiers))
		for _, tier := range listing.Tiers {
			tiers = append(tiers, integration.TierPrice{Quantity: tier.Quantity, Price: tier.Price})
		}
		return tiers, nil
	}

	if len(ch.PriceTiers) == 0 {
		return []integration.TierPrice{}, nil
	}
	product, err := s.repos.Products.FindByCode(ctx, listing.ProductCode)
	if err != nil {
		return nil, err
	}

	tiers := make([]integration.TierPrice, 0, len(ch.PriceTiers))
	for _, tier := range ch.PriceTiers {
		price := product.ListPrice
		if priceList != nil {
			price = priceList.Compute(product.ListPrice, tier.Quantity, ch.DefaultUOM)
		}
		tiers = append(tiers, integration.TierPrice{Quantity: tier.Quantity, Price: price})
	}
	return tiers, nil
}
