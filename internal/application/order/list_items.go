package order

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// ListOrderItemsUseCase 查询订单明细用例
// 明细读取走行净额计算:图书已删除的明细net_amount返回null而不是报错
type ListOrderItemsUseCase struct {
	orderRepo order.Repository
	gw        order.Gateway
	svc       order.Service
}

// NewListOrderItemsUseCase 创建用例实例
func NewListOrderItemsUseCase(orderRepo order.Repository, gw order.Gateway, svc order.Service) *ListOrderItemsUseCase {
	return &ListOrderItemsUseCase{orderRepo: orderRepo, gw: gw, svc: svc}
}

// Execute 查询订单下的全部明细
func (uc *ListOrderItemsUseCase) Execute(ctx context.Context, orderID string) ([]*OrderItemResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "internal/application/order", "ListOrderItems")
	defer span.End()

	// 订单必须存在,空明细和订单不存在是两种响应
	if _, err := uc.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}

	items, err := uc.gw.ListItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := uc.svc.ComputeNetAmounts(ctx, items); err != nil {
		return nil, err
	}

	resps := make([]*OrderItemResponse, 0, len(items))
	for _, item := range items {
		resps = append(resps, toOrderItemResponse(item))
	}
	return resps, nil
}
