package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体
// 设计说明:
// 1. ID使用字符串UUID(图书目录由外部系统维护,本服务只消费)
// 2. 价格使用decimal精确小数,落库为DECIMAL(10,2),避免浮点精度损失
// 3. 本服务唯一允许修改的字段是Stock(下单扣减库存),其余字段只读
type Book struct {
	ID        string          // 图书ID(全局唯一)
	Title     string          // 书名
	Author    string          // 作者
	Price     decimal.Decimal // 单价(非负)
	Stock     int             // 库存数量(非负)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DecrStock 扣减库存(领域行为)
// 业务规则:数量必须>0,扣减后库存不能为负数
func (b *Book) DecrStock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if b.Stock < quantity {
		return ErrInsufficientStock
	}
	b.Stock -= quantity
	b.UpdatedAt = time.Now()
	return nil
}
