package order

import (
	"time"

	"github.com/xiebiao/bookshop/internal/domain/order"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	// IdempotencyKey 幂等键(可选)
	// 客户端重试时携带相同的键,重复请求返回首次创建的订单
	IdempotencyKey string

	Items []OrderItemRequest
}

// OrderItemRequest 明细项请求
type OrderItemRequest struct {
	BookID   string
	Quantity int
}

// AddItemsRequest 追加明细请求
type AddItemsRequest struct {
	OrderID string
	Items   []OrderItemRequest
}

// OrderResponse 订单响应
// 金额统一格式化为两位小数的字符串,避免JSON浮点精度问题
type OrderResponse struct {
	ID        string               `json:"id"`
	OrderNo   string               `json:"order_no"`
	Total     string               `json:"total"`
	Items     []*OrderItemResponse `json:"items"`
	CreatedAt time.Time            `json:"created_at"`
}

// OrderItemResponse 明细项响应
// NetAmount为null表示该图书已不存在,金额无法计算
type OrderItemResponse struct {
	ID        string  `json:"id"`
	BookID    string  `json:"book_id"`
	Quantity  int     `json:"quantity"`
	NetAmount *string `json:"net_amount"`
}

// OrderListResponse 订单列表响应
type OrderListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Orders   []*OrderResponse `json:"orders"`
}

// toOrderResponse 领域实体转响应DTO
func toOrderResponse(o *order.Order) *OrderResponse {
	items := make([]*OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, toOrderItemResponse(item))
	}
	return &OrderResponse{
		ID:        o.ID,
		OrderNo:   o.OrderNo,
		Total:     o.Total.StringFixed(2),
		Items:     items,
		CreatedAt: o.CreatedAt,
	}
}

func toOrderItemResponse(item *order.OrderItem) *OrderItemResponse {
	resp := &OrderItemResponse{
		ID:       item.ID,
		BookID:   item.BookID,
		Quantity: item.Quantity,
	}
	if item.NetAmount != nil {
		s := item.NetAmount.StringFixed(2)
		resp.NetAmount = &s
	}
	return resp
}
