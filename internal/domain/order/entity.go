package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 订单实体(聚合根)
// 设计说明:
// 1. Order是聚合根,OrderItem是子实体
// 2. Total是派生字段,不落库:每次创建/读取都基于当前价格重新计算,
//    保证读到的金额永远反映最新定价(价格变化后历史订单金额随之变化)
// 3. OrderNo是业务主键(全局唯一,时间有序)
type Order struct {
	ID        string       // 订单ID(UUID)
	OrderNo   string       // 订单号(业务主键)
	Items     []*OrderItem // 订单明细(聚合内的子实体)
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem 订单明细项
// 设计说明:
// 1. 不是独立聚合根,必须通过Order访问
// 2. 不保存价格快照:NetAmount是派生字段,读取时按图书当前价格重算,不落库
// 3. 不直接关联Book对象,只保存BookID(避免跨聚合引用)
type OrderItem struct {
	ID       string // 明细ID(UUID)
	OrderID  string // 所属订单ID
	BookID   string // 图书ID(必填)
	Quantity int    // 购买数量(必须>0)

	// NetAmount 行净额 = 图书当前价格 × 数量
	// nil表示未能计算(图书已被删除时读取路径容忍跳过)
	NetAmount *decimal.Decimal
}

// NewOrder 创建新订单(工厂方法)
// 订单号由外部传入(GenerateOrderNo),Total由读取/创建后的聚合计算填充
func NewOrder(id, orderNo string, items []*OrderItem) *Order {
	now := time.Now()
	for _, item := range items {
		item.OrderID = id
	}
	return &Order{
		ID:        id,
		OrderNo:   orderNo,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
