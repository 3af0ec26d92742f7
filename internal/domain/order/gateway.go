package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway 持久化网关(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 订单接单核心只需要四个窄操作:库存点查、价格点查、库存扣减、
//    按父订单查明细——不需要通用查询语言
// 3. 事务通过context传递:同一事务内的扣减在回滚时一并撤销
type Gateway interface {
	// GetBookStock 点查询图书当前库存
	// 未命中返回book.ErrBookNotFound
	GetBookStock(ctx context.Context, bookID string) (int, error)

	// GetBookPrice 点查询图书当前价格
	// 未命中返回book.ErrBookNotFound
	GetBookPrice(ctx context.Context, bookID string) (decimal.Decimal, error)

	// DecrBookStock 原子扣减库存
	// 实现必须以带条件的单条UPDATE完成(stock >= quantity才扣减),
	// 通过受影响行数区分"图书不存在"与"库存不足",
	// 关闭跨请求读后写的并发超卖竞态
	DecrBookStock(ctx context.Context, bookID string, quantity int) error

	// ListItemsByOrderID 查询订单下已持久化的全部明细
	ListItemsByOrderID(ctx context.Context, orderID string) ([]*OrderItem, error)
}
