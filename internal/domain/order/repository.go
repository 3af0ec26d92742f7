package order

import (
	"context"
)

// Repository 订单仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
// 3. 订单和明细必须在同一事务中创建
type Repository interface {
	// Create 创建订单(包含订单明细)
	Create(ctx context.Context, order *Order) error

	// AddItems 向已存在的订单追加明细
	// 订单不存在返回ErrOrderNotFound
	AddItems(ctx context.Context, orderID string, items []*OrderItem) error

	// FindByID 根据ID查找订单(包含订单明细)
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByOrderNo 根据订单号查找订单
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// List 分页查询订单列表(含明细)
	List(ctx context.Context, page, pageSize int) ([]*Order, int64, error)
}
