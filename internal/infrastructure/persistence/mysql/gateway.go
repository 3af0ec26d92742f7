package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// gateway 持久化网关实现(MySQL)
// 设计说明:
// 1. 实现domain/order/gateway.go定义的四个窄操作
// 2. 点查询只取需要的列(stock或price),不拉整行
// 3. 库存扣减用带条件的单条UPDATE,关闭跨事务的读后写竞态
type gateway struct {
	db *gorm.DB
}

// NewGateway 创建持久化网关
func NewGateway(db *gorm.DB) order.Gateway {
	return &gateway{db: db}
}

// GetBookStock 点查询图书库存
// SELECT stock FROM books WHERE id = ?
func (g *gateway) GetBookStock(ctx context.Context, bookID string) (int, error) {
	var stock int
	db := dbFromContext(ctx, g.db)
	err := db.Model(&BookModel{}).
		Select("stock").
		Where("id = ?", bookID).
		Take(&stock).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, book.ErrBookNotFound
		}
		return 0, apperrors.Wrap(err, "查询图书库存失败")
	}
	return stock, nil
}

// GetBookPrice 点查询图书价格
// SELECT price FROM books WHERE id = ?
func (g *gateway) GetBookPrice(ctx context.Context, bookID string) (decimal.Decimal, error) {
	var price decimal.Decimal
	db := dbFromContext(ctx, g.db)
	err := db.Model(&BookModel{}).
		Select("price").
		Where("id = ?", bookID).
		Take(&price).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, book.ErrBookNotFound
		}
		return decimal.Zero, apperrors.Wrap(err, "查询图书价格失败")
	}
	return price, nil
}

// DecrBookStock 原子扣减库存
// UPDATE books SET stock = stock - ? WHERE id = ? AND stock >= ?
// 库存下限条件写进UPDATE本身,并发事务不可能把库存扣成负数;
// 通过受影响行数区分"图书不存在"与"库存不足"
func (g *gateway) DecrBookStock(ctx context.Context, bookID string, quantity int) error {
	db := dbFromContext(ctx, g.db)
	result := db.Model(&BookModel{}).
		Where("id = ?", bookID).
		Where("stock >= ?", quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减库存失败")
	}

	if result.RowsAffected == 0 {
		// 可能是图书不存在,也可能是库存不足,再查一次确定原因
		var count int64
		if err := db.Model(&BookModel{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询图书失败")
		}
		if count == 0 {
			return book.ErrBookNotFound
		}
		return book.ErrInsufficientStock
	}

	return nil
}

// ListItemsByOrderID 查询订单下已持久化的全部明细
func (g *gateway) ListItemsByOrderID(ctx context.Context, orderID string) ([]*order.OrderItem, error) {
	var models []OrderItemModel
	db := dbFromContext(ctx, g.db)
	if err := db.Where("order_id = ?", orderID).Order("id").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询订单明细失败")
	}

	items := make([]*order.OrderItem, len(models))
	for i := range models {
		items[i] = toOrderItemEntity(&models[i])
	}
	return items, nil
}
