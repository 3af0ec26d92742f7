package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/circuitbreaker"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
)

// RoutingKeyOrderCreated 订单创建事件的路由键
const RoutingKeyOrderCreated = "order.created"

// OrderCreatedEvent 订单创建事件(发布到消息队列)
// 只携带下游需要的最小字段;金额用字符串避免浮点精度问题
type OrderCreatedEvent struct {
	OrderID   string                  `json:"order_id"`
	OrderNo   string                  `json:"order_no"`
	Total     string                  `json:"total"`
	Items     []OrderCreatedEventItem `json:"items"`
	CreatedAt time.Time               `json:"created_at"`
}

// OrderCreatedEventItem 事件中的明细项
type OrderCreatedEventItem struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

// messagePublisher 消息发布接口(依赖倒置,mq.Publisher是生产实现)
type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// EventPublisher 订单事件发布器
// 设计说明:
// 1. 事件发布是尽力而为:失败只记录日志和指标,不影响下单主流程
//    (订单已落库,事件可以通过对账补发)
// 2. 用熔断器保护:Broker不可用时快速失败,不拖慢下单
type EventPublisher struct {
	pub messagePublisher
	cb  *circuitbreaker.CircuitBreaker
}

// NewEventPublisher 创建订单事件发布器
func NewEventPublisher(pub messagePublisher) *EventPublisher {
	cb := circuitbreaker.NewCircuitBreaker("mq-publisher", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	cb.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.L().Warn("熔断器状态变化",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		if metrics.CircuitBreakerState != nil {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	})

	return &EventPublisher{pub: pub, cb: cb}
}

// PublishOrderCreated 发布订单创建事件(尽力而为)
func (p *EventPublisher) PublishOrderCreated(ctx context.Context, o *order.Order) {
	event := OrderCreatedEvent{
		OrderID:   o.ID,
		OrderNo:   o.OrderNo,
		Total:     o.Total.StringFixed(2),
		Items:     make([]OrderCreatedEventItem, 0, len(o.Items)),
		CreatedAt: o.CreatedAt,
	}
	for _, item := range o.Items {
		event.Items = append(event.Items, OrderCreatedEventItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
		})
	}

	err := p.cb.Execute(func() error {
		return p.pub.Publish(ctx, RoutingKeyOrderCreated, event)
	})

	result := "success"
	switch {
	case err == nil:
	case err == circuitbreaker.ErrOpenState:
		result = "rejected"
		logger.L().Warn("事件发布被熔断器拒绝",
			zap.String("order_no", o.OrderNo),
			zap.String("routing_key", RoutingKeyOrderCreated),
		)
	default:
		result = "failure"
		logger.L().Error("事件发布失败",
			zap.String("order_no", o.OrderNo),
			zap.String("routing_key", RoutingKeyOrderCreated),
			zap.Error(err),
		)
	}

	if metrics.MessagesPublishedTotal != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(RoutingKeyOrderCreated, result).Inc()
	}
}
