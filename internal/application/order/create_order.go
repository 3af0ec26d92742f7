package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// CreateOrderUseCase 创建订单用例
// 设计说明:
// 1. 编排顺序固定:事务内{库存预占 → 订单落库},事务外{总额聚合 → 事件发布}
//    预占和落库同生共死——任何一条明细失败,已扣减的库存随事务回滚
// 2. 总额聚合放在事务提交后:Total是派生字段不落库,晚算不影响一致性
// 3. 幂等键和事件发布都是可选依赖(注入nil时跳过)
type CreateOrderUseCase struct {
	orderRepo order.Repository
	svc       order.Service
	txManager TxManager
	idemStore IdempotencyStore
	events    *EventPublisher
}

// NewCreateOrderUseCase 创建用例实例
// idemStore和events允许为nil(未配置Redis/RabbitMQ时)
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	svc order.Service,
	txManager TxManager,
	idemStore IdempotencyStore,
	events *EventPublisher,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo: orderRepo,
		svc:       svc,
		txManager: txManager,
		idemStore: idemStore,
		events:    events,
	}
}

// Execute 执行创建订单
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "internal/application/order", "CreateOrder")
	defer span.End()

	// 1. 基础校验:至少一条明细
	if len(req.Items) == 0 {
		return nil, order.ErrInvalidOrderItems
	}

	// 2. 幂等检查:命中时返回首次创建的订单,不重复扣库存
	if resp, ok, err := uc.replayByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return resp, nil
	}

	// 3. 组装聚合:明细ID在这里生成,预占失败的错误消息要携带它
	orderID := uuid.New().String()
	items := make([]*order.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, &order.OrderItem{
			ID:       uuid.New().String(),
			BookID:   it.BookID,
			Quantity: it.Quantity,
		})
	}
	o := order.NewOrder(orderID, order.GenerateOrderNo(), items)

	// 4. 事务:库存预占 + 订单落库(同生共死)
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.svc.ReserveItems(txCtx, o.Items); err != nil {
			return err
		}
		return uc.orderRepo.Create(txCtx, o)
	})
	if err != nil {
		countRejected(err)
		return nil, err
	}

	// 5. 总额聚合(全量重读+当前价格定价,不落库)
	if err := uc.svc.ComputeTotals(ctx, []*order.Order{o}); err != nil {
		return nil, err
	}

	countCreated(o)

	// 6. 记录幂等键(尽力而为,失败不影响已创建的订单)
	uc.rememberIdempotencyKey(ctx, req.IdempotencyKey, o.OrderNo)

	// 7. 发布order.created事件(尽力而为,熔断保护)
	if uc.events != nil {
		uc.events.PublishOrderCreated(ctx, o)
	}

	logger.L().Info("订单创建成功",
		zap.String("order_no", o.OrderNo),
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("trace_id", tracing.ExtractTraceID(ctx)),
	)

	return toOrderResponse(o), nil
}

// replayByIdempotencyKey 幂等键命中时重放首次创建的订单
// 返回(响应, 是否命中, 错误)
func (uc *CreateOrderUseCase) replayByIdempotencyKey(ctx context.Context, key string) (*OrderResponse, bool, error) {
	if key == "" || uc.idemStore == nil {
		return nil, false, nil
	}

	orderNo, err := uc.idemStore.Get(ctx, key)
	if err != nil {
		// Redis故障降级为不做幂等检查,不阻塞下单
		logger.L().Warn("幂等键查询失败,跳过幂等检查", zap.Error(err))
		return nil, false, nil
	}
	if orderNo == "" {
		return nil, false, nil
	}

	o, err := uc.orderRepo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			// 键还在但订单已不存在(过期数据),按新请求处理
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := uc.svc.ComputeTotals(ctx, []*order.Order{o}); err != nil {
		return nil, false, err
	}

	logger.L().Info("幂等键命中,返回已创建订单",
		zap.String("order_no", orderNo),
	)
	return toOrderResponse(o), true, nil
}

// rememberIdempotencyKey 记录幂等键(尽力而为)
func (uc *CreateOrderUseCase) rememberIdempotencyKey(ctx context.Context, key, orderNo string) {
	if key == "" || uc.idemStore == nil {
		return
	}
	if _, err := uc.idemStore.Put(ctx, key, orderNo); err != nil {
		logger.L().Warn("幂等键写入失败",
			zap.String("order_no", orderNo),
			zap.Error(err),
		)
	}
}

// countCreated 记录创建成功指标
func countCreated(o *order.Order) {
	if metrics.OrdersCreatedTotal == nil {
		return
	}
	metrics.OrdersCreatedTotal.Inc()
	for _, item := range o.Items {
		metrics.StockReservedTotal.Add(float64(item.Quantity))
	}
}

// countRejected 按拒绝原因记录指标
func countRejected(err error) {
	if metrics.OrdersRejectedTotal == nil {
		return
	}
	var reason string
	switch apperrors.CodeOf(err) {
	case apperrors.ErrCodeBookNotFound:
		reason = "not_found"
	case apperrors.ErrCodeNotAcceptable:
		reason = "not_acceptable"
	case apperrors.ErrCodeInsufficientStock:
		reason = "insufficient_stock"
	default:
		reason = "other"
	}
	metrics.OrdersRejectedTotal.WithLabelValues(reason).Inc()
}
