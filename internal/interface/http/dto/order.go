package dto

// CreateOrderRequest HTTP下单请求
// 设计说明:
// 这里只做结构绑定,不加min/required等数值校验tag——
// "数量必须>0"、"图书必须存在"是领域规则,由领域服务统一校验,
// 错误消息携带业务标识(订单/明细/图书ID),比binding错误对客户端更友好
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// OrderItemRequest 订单明细项
type OrderItemRequest struct {
	BookID   string `json:"book_id" example:"demo-wuthering-heights"`
	Quantity int    `json:"quantity" example:"2"`
}

// AddItemsRequest HTTP追加明细请求
type AddItemsRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// OrderResponse HTTP订单响应
// 金额为两位小数字符串(如"19.98"),避免JSON浮点精度问题
type OrderResponse struct {
	ID        string               `json:"id" example:"b5f0a3d2-7c1e-4f8a-9b2d-1e3c5a7f9b0d"`
	OrderNo   string               `json:"order_no" example:"ORD1699248000123456"`
	Total     string               `json:"total" example:"19.98"`
	Items     []*OrderItemResponse `json:"items"`
	CreatedAt string               `json:"created_at" example:"2024-11-06 10:30:00"`
}

// OrderItemResponse HTTP明细项响应
// net_amount为null表示图书已不存在,金额无法计算
type OrderItemResponse struct {
	ID        string  `json:"id"`
	BookID    string  `json:"book_id" example:"demo-wuthering-heights"`
	Quantity  int     `json:"quantity" example:"2"`
	NetAmount *string `json:"net_amount" example:"19.98"`
}

// ListOrdersRequest HTTP订单列表请求
type ListOrdersRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// ListOrdersResponse HTTP订单列表响应
type ListOrdersResponse struct {
	List  []*OrderResponse `json:"list"`
	Total int64            `json:"total" example:"100"`
	Page  int              `json:"page" example:"1"`
	Size  int              `json:"size" example:"20"`
}
