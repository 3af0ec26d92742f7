package order

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// ListOrdersUseCase 分页查询订单列表用例
type ListOrdersUseCase struct {
	orderRepo order.Repository
	svc       order.Service
}

// NewListOrdersUseCase 创建用例实例
func NewListOrdersUseCase(orderRepo order.Repository, svc order.Service) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo, svc: svc}
}

// Execute 分页查询订单
// 整页订单批量走总额聚合,读取语义和单查一致
func (uc *ListOrdersUseCase) Execute(ctx context.Context, page, pageSize int) (*OrderListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "internal/application/order", "ListOrders")
	defer span.End()

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	orders, total, err := uc.orderRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	if err := uc.svc.ComputeTotals(ctx, orders); err != nil {
		return nil, err
	}

	resps := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		resps = append(resps, toOrderResponse(o))
	}

	return &OrderListResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Orders:   resps,
	}, nil
}
