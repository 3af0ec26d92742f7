package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// fakeGateway 内存版持久化网关(Mock测试用)
// 实现domain层的Gateway接口,不依赖数据库
type fakeGateway struct {
	stocks map[string]int
	prices map[string]decimal.Decimal
	items  map[string][]*OrderItem // orderID → 已持久化明细
	failOn error                   // 强制注入的底层错误
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		stocks: make(map[string]int),
		prices: make(map[string]decimal.Decimal),
		items:  make(map[string][]*OrderItem),
	}
}

func (g *fakeGateway) addBook(id string, price string, stock int) {
	g.prices[id] = decimal.RequireFromString(price)
	g.stocks[id] = stock
}

func (g *fakeGateway) GetBookStock(_ context.Context, bookID string) (int, error) {
	if g.failOn != nil {
		return 0, g.failOn
	}
	stock, ok := g.stocks[bookID]
	if !ok {
		return 0, book.ErrBookNotFound
	}
	return stock, nil
}

func (g *fakeGateway) GetBookPrice(_ context.Context, bookID string) (decimal.Decimal, error) {
	if g.failOn != nil {
		return decimal.Zero, g.failOn
	}
	price, ok := g.prices[bookID]
	if !ok {
		return decimal.Zero, book.ErrBookNotFound
	}
	return price, nil
}

func (g *fakeGateway) DecrBookStock(_ context.Context, bookID string, quantity int) error {
	stock, ok := g.stocks[bookID]
	if !ok {
		return book.ErrBookNotFound
	}
	if stock < quantity {
		return book.ErrInsufficientStock
	}
	g.stocks[bookID] = stock - quantity
	return nil
}

func (g *fakeGateway) ListItemsByOrderID(_ context.Context, orderID string) ([]*OrderItem, error) {
	if g.failOn != nil {
		return nil, g.failOn
	}
	return g.items[orderID], nil
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TestReserveItems 测试库存预占(创建前校验+扣减)
func TestReserveItems(t *testing.T) {
	ctx := context.Background()

	t.Run("数量为0被拒绝且库存不变", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 5)
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 0},
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotAcceptable, apperrors.CodeOf(err))
		// 消息必须携带图书ID、订单ID、明细ID
		msg := apperrors.GetAppError(err).Message
		assert.Contains(t, msg, "b-1")
		assert.Contains(t, msg, "o-1")
		assert.Contains(t, msg, "i-1")
		assert.Equal(t, 5, gw.stocks["b-1"])
	})

	t.Run("负数数量同样被拒绝", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 5)
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: -3},
		})

		assert.Equal(t, apperrors.ErrCodeNotAcceptable, apperrors.CodeOf(err))
		assert.Equal(t, 5, gw.stocks["b-1"])
	})

	t.Run("图书ID为空返回图书不存在", func(t *testing.T) {
		gw := newFakeGateway()
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "", Quantity: 1},
		})

		assert.Equal(t, apperrors.ErrCodeBookNotFound, apperrors.CodeOf(err))
	})

	t.Run("图书不存在时整批失败且不扣任何库存", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 5)
		svc := NewService(gw)

		// 注意顺序:不存在的图书排在第一位,存在的图书不应被扣减
		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "missing", Quantity: 1},
			{ID: "i-2", OrderID: "o-1", BookID: "b-1", Quantity: 2},
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeBookNotFound, apperrors.CodeOf(err))
		assert.Contains(t, apperrors.GetAppError(err).Message, "missing")
		assert.Equal(t, 5, gw.stocks["b-1"])
	})

	t.Run("库存不足返回业务错误且库存不变", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 2)
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 3},
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInsufficientStock, apperrors.CodeOf(err))
		assert.True(t, errors.Is(err, book.ErrInsufficientStock))
		assert.Equal(t, 2, gw.stocks["b-1"])
	})

	t.Run("预占成功后库存精确减少", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		gw.addBook("b-2", "5.00", 7)
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 4},
			{ID: "i-2", OrderID: "o-1", BookID: "b-2", Quantity: 7},
		})

		require.NoError(t, err)
		assert.Equal(t, 6, gw.stocks["b-1"])
		assert.Equal(t, 0, gw.stocks["b-2"])
	})

	t.Run("同批次同一图书看到前序扣减", func(t *testing.T) {
		// 库存5,批次=[3,3]:第一条成功(库存→2),
		// 第二条看到的是扣减后的库存2,必须被拒绝
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 5)
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 3},
			{ID: "i-2", OrderID: "o-1", BookID: "b-1", Quantity: 3},
		})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInsufficientStock, apperrors.CodeOf(err))
		msg := apperrors.GetAppError(err).Message
		assert.Contains(t, msg, "当前库存:2")
		assert.Contains(t, msg, "需要:3")
		// 第一条的扣减已发生;整体回滚由包裹批次的事务负责
		assert.Equal(t, 2, gw.stocks["b-1"])
	})

	t.Run("底层错误原样向上传播", func(t *testing.T) {
		gw := newFakeGateway()
		gw.failOn = errors.New("connection reset")
		svc := NewService(gw)

		err := svc.ReserveItems(ctx, []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 1},
		})

		assert.ErrorContains(t, err, "connection reset")
	})
}

// TestReserveOrders 测试订单级预占入口
func TestReserveOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("逐单展开内嵌明细", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		gw.addBook("b-2", "5.00", 10)
		svc := NewService(gw)

		orders := []*Order{
			{ID: "o-1", Items: []*OrderItem{{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 2}}},
			{ID: "o-2", Items: []*OrderItem{{ID: "i-2", OrderID: "o-2", BookID: "b-2", Quantity: 3}}},
		}

		require.NoError(t, svc.ReserveOrders(ctx, orders))
		assert.Equal(t, 8, gw.stocks["b-1"])
		assert.Equal(t, 7, gw.stocks["b-2"])
	})

	t.Run("无明细的订单跳过", func(t *testing.T) {
		gw := newFakeGateway()
		svc := NewService(gw)

		require.NoError(t, svc.ReserveOrders(ctx, []*Order{{ID: "o-1"}}))
	})

	t.Run("后续订单失败时中止", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		svc := NewService(gw)

		orders := []*Order{
			{ID: "o-1", Items: []*OrderItem{{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 2}}},
			{ID: "o-2", Items: []*OrderItem{{ID: "i-2", OrderID: "o-2", BookID: "b-1", Quantity: 0}}},
		}

		err := svc.ReserveOrders(ctx, orders)
		assert.Equal(t, apperrors.ErrCodeNotAcceptable, apperrors.CodeOf(err))
		// 第一单的扣减已发生,回滚交给外层事务
		assert.Equal(t, 8, gw.stocks["b-1"])
	})
}

// TestComputeNetAmounts 测试行净额计算
func TestComputeNetAmounts(t *testing.T) {
	ctx := context.Background()

	t.Run("净额等于价格乘数量且无精度损失", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		svc := NewService(gw)

		item := &OrderItem{ID: "i-1", BookID: "b-1", Quantity: 2}
		require.NoError(t, svc.ComputeNetAmounts(ctx, []*OrderItem{item}))

		require.NotNil(t, item.NetAmount)
		assert.True(t, item.NetAmount.Equal(mustDecimal("19.98")),
			"期望19.98,实际%s", item.NetAmount)
	})

	t.Run("图书查不到时跳过该条", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "10.00", 10)
		svc := NewService(gw)

		items := []*OrderItem{
			{ID: "i-1", BookID: "gone", Quantity: 2},
			{ID: "i-2", BookID: "b-1", Quantity: 1},
		}
		require.NoError(t, svc.ComputeNetAmounts(ctx, items))

		assert.Nil(t, items[0].NetAmount, "已删除图书的明细不应有净额")
		require.NotNil(t, items[1].NetAmount)
		assert.True(t, items[1].NetAmount.Equal(mustDecimal("10.00")))
	})

	t.Run("图书ID为空仍然硬失败", func(t *testing.T) {
		gw := newFakeGateway()
		svc := NewService(gw)

		err := svc.ComputeNetAmounts(ctx, []*OrderItem{{ID: "i-1", BookID: "", Quantity: 1}})
		assert.Equal(t, apperrors.ErrCodeBookNotFound, apperrors.CodeOf(err))
	})

	t.Run("重算反映当前价格", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		svc := NewService(gw)

		item := &OrderItem{ID: "i-1", BookID: "b-1", Quantity: 2}
		require.NoError(t, svc.ComputeNetAmounts(ctx, []*OrderItem{item}))
		assert.True(t, item.NetAmount.Equal(mustDecimal("19.98")))

		// 改价后重算,净额跟随新价格
		gw.prices["b-1"] = mustDecimal("12.50")
		require.NoError(t, svc.ComputeNetAmounts(ctx, []*OrderItem{item}))
		assert.True(t, item.NetAmount.Equal(mustDecimal("25.00")))
	})
}

// TestComputeTotals 测试订单总额聚合
func TestComputeTotals(t *testing.T) {
	ctx := context.Background()

	t.Run("总额等于已持久化明细净额之和", func(t *testing.T) {
		// 已持久化明细净额[10.00, 20.00, 5.50],载荷无内嵌明细 → 35.50
		gw := newFakeGateway()
		gw.addBook("b-1", "10.00", 10)
		gw.addBook("b-2", "20.00", 10)
		gw.addBook("b-3", "2.75", 10)
		gw.items["o-1"] = []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 1},
			{ID: "i-2", OrderID: "o-1", BookID: "b-2", Quantity: 1},
			{ID: "i-3", OrderID: "o-1", BookID: "b-3", Quantity: 2},
		}
		svc := NewService(gw)

		o := &Order{ID: "o-1"}
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		assert.True(t, o.Total.Equal(mustDecimal("35.50")),
			"期望35.50,实际%s", o.Total)
	})

	t.Run("载荷内嵌明细与库中兄弟明细一起计入", func(t *testing.T) {
		// 库中已有一条(10.00),本次载荷又带了一条(两者都已持久化):
		// 总额必须查库取全集,不能只信载荷
		gw := newFakeGateway()
		gw.addBook("b-1", "10.00", 10)
		gw.addBook("b-2", "4.25", 10)
		payload := &OrderItem{ID: "i-2", OrderID: "o-1", BookID: "b-2", Quantity: 2}
		gw.items["o-1"] = []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 1},
			{ID: "i-2", OrderID: "o-1", BookID: "b-2", Quantity: 2},
		}
		svc := NewService(gw)

		o := &Order{ID: "o-1", Items: []*OrderItem{payload}}
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))

		assert.True(t, o.Total.Equal(mustDecimal("18.50")))
		// 载荷明细的净额也被填充(创建响应需要展示)
		require.NotNil(t, payload.NetAmount)
		assert.True(t, payload.NetAmount.Equal(mustDecimal("8.50")))
	})

	t.Run("重复计算结果幂等", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		gw.items["o-1"] = []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 2},
		}
		svc := NewService(gw)

		o := &Order{ID: "o-1"}
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		first := o.Total
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		assert.True(t, o.Total.Equal(first))
	})

	t.Run("价格变化后总额跟随当前价格", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "9.99", 10)
		gw.items["o-1"] = []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 2},
		}
		svc := NewService(gw)

		o := &Order{ID: "o-1"}
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		assert.True(t, o.Total.Equal(mustDecimal("19.98")))

		gw.prices["b-1"] = mustDecimal("11.00")
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		assert.True(t, o.Total.Equal(mustDecimal("22.00")))
	})

	t.Run("图书已删除的明细不计入总额", func(t *testing.T) {
		gw := newFakeGateway()
		gw.addBook("b-1", "10.00", 10)
		gw.items["o-1"] = []*OrderItem{
			{ID: "i-1", OrderID: "o-1", BookID: "b-1", Quantity: 1},
			{ID: "i-2", OrderID: "o-1", BookID: "gone", Quantity: 5},
		}
		svc := NewService(gw)

		o := &Order{ID: "o-1"}
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		assert.True(t, o.Total.Equal(mustDecimal("10.00")))
	})

	t.Run("无明细订单总额为零", func(t *testing.T) {
		gw := newFakeGateway()
		svc := NewService(gw)

		o := &Order{ID: "o-1"}
		require.NoError(t, svc.ComputeTotals(ctx, []*Order{o}))
		assert.True(t, o.Total.Equal(decimal.Zero))
	})

	t.Run("底层错误中止当前订单的聚合", func(t *testing.T) {
		gw := newFakeGateway()
		gw.failOn = errors.New("timeout")
		svc := NewService(gw)

		err := svc.ComputeTotals(ctx, []*Order{{ID: "o-1"}})
		assert.ErrorContains(t, err, "timeout")
	})
}
