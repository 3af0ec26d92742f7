package order

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// GetOrderUseCase 查询单个订单用例
// 读取路径同样走总额聚合:金额是派生字段,每次读取按当前价格重算
type GetOrderUseCase struct {
	orderRepo order.Repository
	svc       order.Service
}

// NewGetOrderUseCase 创建用例实例
func NewGetOrderUseCase(orderRepo order.Repository, svc order.Service) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo, svc: svc}
}

// Execute 根据ID查询订单
func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID string) (*OrderResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "internal/application/order", "GetOrder")
	defer span.End()

	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := uc.svc.ComputeTotals(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}

	return toOrderResponse(o), nil
}
