package order

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// AddOrderItemsUseCase 向已有订单追加明细用例
// 追加走和创建相同的预占规则:校验、逐条扣减、失败整体回滚
type AddOrderItemsUseCase struct {
	orderRepo order.Repository
	svc       order.Service
	txManager TxManager
}

// NewAddOrderItemsUseCase 创建用例实例
func NewAddOrderItemsUseCase(
	orderRepo order.Repository,
	svc order.Service,
	txManager TxManager,
) *AddOrderItemsUseCase {
	return &AddOrderItemsUseCase{
		orderRepo: orderRepo,
		svc:       svc,
		txManager: txManager,
	}
}

// Execute 执行追加明细
// 返回追加后的完整订单(总额为追加后全量明细按当前价格的聚合)
func (uc *AddOrderItemsUseCase) Execute(ctx context.Context, req *AddItemsRequest) (*OrderResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "internal/application/order", "AddOrderItems")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, order.ErrInvalidOrderItems
	}

	// 先确认订单存在,再做扣减(避免给不存在的订单白扣库存)
	if _, err := uc.orderRepo.FindByID(ctx, req.OrderID); err != nil {
		return nil, err
	}

	items := make([]*order.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, &order.OrderItem{
			ID:       uuid.New().String(),
			OrderID:  req.OrderID,
			BookID:   it.BookID,
			Quantity: it.Quantity,
		})
	}

	// 事务:预占 + 明细落库
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.svc.ReserveItems(txCtx, items); err != nil {
			return err
		}
		return uc.orderRepo.AddItems(txCtx, req.OrderID, items)
	})
	if err != nil {
		countRejected(err)
		return nil, err
	}

	// 重读订单并聚合总额(此时包含新追加的明细)
	o, err := uc.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := uc.svc.ComputeTotals(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}

	logger.L().Info("订单明细追加成功",
		zap.String("order_id", req.OrderID),
		zap.Int("added", len(items)),
		zap.String("total", o.Total.StringFixed(2)),
	)

	return toOrderResponse(o), nil
}
