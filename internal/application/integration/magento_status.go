package integration

import (
	"context"
	"errors"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/domain/trade"
	"go.uber.org/zap"
)

// UpdateOrderStatus refreshes open sales from the store in batches.
// Orders the store reports as faults are logged and skipped; the rest of
// the batch is still applied.
func (s *MagentoSyncService) UpdateOrderStatus(ctx context.Context, ch *channel.Channel) (result *integration.SyncResult, err error) {
	ctx, span, log, err := s.begin(ctx, ch, string(integration.OperationUpdateOrderStatus))
	if err != nil {
		return nil, err
	}
	defer func() { end(span, err) }()

	sales, err := s.repos.Sales.FindByStates(ctx, ch.ID, []trade.SaleState{trade.SaleStateConfirmed, trade.SaleStateProcessing})
	if err != nil {
		return nil, err
	}

	byIncrementID := make(map[string]*trade.Sale, len(sales))
	incrementIDs := make([]string, 0, len(sales))
	for i := range sales {
		incrementID := ch.IncrementID(sales[i].Reference)
		byIncrementID[incrementID] = &sales[i]
		incrementIDs = append(incrementIDs, incrementID)
	}

	result = integration.NewSyncResult(integration.OperationUpdateOrderStatus, ch.ID)
	for _, batch := range chunk(incrementIDs, s.options.StatusBatchSize) {
		var entries []integration.OrderInfoResult
		err = s.withSession(ctx, ch, func(session integration.StoreSession) error {
			var err error
			entries, err = session.OrderInfoMulti(ctx, batch)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, entry := range entries {
			if entry.Fault != nil {
				fields := []zap.Field{
					zap.String("increment_id", entry.IncrementID),
					zap.Int("fault_code", entry.Fault.Code),
					zap.String("fault_message", entry.Fault.Message),
				}
				if entry.Fault.Kind() == integration.FaultOrderNotFound {
					// TODO: detach the sale from the channel once orders deleted on the store are handled
					fields = append(fields, zap.Bool("needs_follow_up", true))
				}
				log.Warn("Skipping order status refresh", fields...)
				result.Skip(entry.IncrementID, entry.Fault)
				continue
			}

			if err := s.applyRemoteOrder(ctx, ch, byIncrementID, entry.Order, result); err != nil {
				return nil, err
			}
		}
	}

	log.Info("Updated order status", zap.Int("count", result.ProcessedCount()), zap.Int("skipped", len(result.FailedItems)))
	return result.Finish(), nil
}

func (s *MagentoSyncService) applyRemoteOrder(ctx context.Context, ch *channel.Channel, byIncrementID map[string]*trade.Sale, order *integration.OrderData, result *integration.SyncResult) error {
	sale, ok := byIncrementID[order.IncrementID]
	if !ok {
		found, err := s.repos.Sales.FindByReference(ctx, ch.ID, ch.OrderReference(order.IncrementID))
		if errors.Is(err, trade.ErrSaleNotFound) {
			result.Skip(order.IncrementID, err)
			return nil
		}
		if err != nil {
			return err
		}
		sale = found
	}

	if !sale.ApplyRemoteState(order.State) {
		return nil
	}
	if err := s.repos.Sales.Save(ctx, sale); err != nil {
		return err
	}
	result.Add(sale.Reference)
	return nil
}

// chunk splits ids into consecutive batches of at most size elements
func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for size < len(ids) {
		ids, batches = ids[size:], append(batches, ids[0:size:size])
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}
