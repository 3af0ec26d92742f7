package order

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/bookshop/internal/domain/book"
)

// Service 订单接单领域服务
// 设计说明:
// 1. 封装订单接单的三条业务规则:库存预占、行净额计算、订单总额聚合
// 2. 规则以显式接口暴露,由应用层用例在持久化前后直接调用:
//    - 创建前: ReserveItems / ReserveOrders
//    - 创建后与读取后: ComputeNetAmounts / ComputeTotals
// 3. 只依赖Gateway的四个窄操作,不感知底层存储
type Service interface {
	// ReserveItems 校验明细并逐条扣减库存(创建明细前调用)
	//
	// 按输入顺序逐条处理,每条明细:
	// 1. BookID为空 → 图书不存在错误
	// 2. 数量<=0 → 数量不可接受错误(消息携带图书/订单/明细ID)
	// 3. 点查询当前库存,未命中 → 图书不存在错误
	// 4. 库存<数量 → 库存不足错误
	// 5. 立即原子扣减,再处理下一条
	//
	// 业务规则:扣减必须逐条立即执行,不能整批结算——同一批次内
	// 两条引用同一图书的明细,后者必须看到前者扣减后的库存,
	// 防止单笔多行订单内部超卖
	//
	// 任何一条失败立即中止(fail-fast);调用方必须把整个批次包在
	// 一个事务里,保证已执行的扣减随事务一起回滚
	ReserveItems(ctx context.Context, items []*OrderItem) error

	// ReserveOrders 订单级入口(创建订单前调用)
	// 逐单把内嵌明细交给ReserveItems,订单之间无交互
	ReserveOrders(ctx context.Context, orders []*Order) error

	// ComputeNetAmounts 计算行净额(创建后/读取后调用)
	//
	// 每条明细: NetAmount = 图书当前价格 × 数量(精确小数乘法)
	// BookID为空仍然硬失败;图书查不到则跳过该条(NetAmount保持nil)——
	// 读取路径容忍已被删除的图书,避免历史订单无法展示
	ComputeNetAmounts(ctx context.Context, items []*OrderItem) error

	// ComputeTotals 聚合订单总额(创建后/读取后调用)
	//
	// 每个订单:
	// 1. 载荷携带内嵌明细时,先对其计算行净额
	// 2. 向网关查询该订单下已持久化的全部明细(与载荷无关)
	// 3. 对完整集合再次计算行净额(重算幂等,且永远反映当前价格)
	// 4. 精确小数求和(零值初始化)写入Total
	//
	// 总额必须来自"全量重读+重新定价",而不是信任输入载荷:
	// 价格可能在两次计算之间变化,读回的订单载荷也可能不含明细
	ComputeTotals(ctx context.Context, orders []*Order) error
}

// service 领域服务实现
type service struct {
	gw Gateway
}

// NewService 创建订单接单领域服务
func NewService(gw Gateway) Service {
	return &service{gw: gw}
}

// ReserveItems 校验明细并逐条扣减库存
func (s *service) ReserveItems(ctx context.Context, items []*OrderItem) error {
	for _, item := range items {
		// 1. 图书ID必填(空ID视为无法解析的图书)
		if item.BookID == "" {
			return errBookNotFound(item.BookID)
		}

		// 2. 数量必须>0
		if item.Quantity <= 0 {
			return errQuantityNotAcceptable(item)
		}

		// 3. 点查询当前库存
		stock, err := s.gw.GetBookStock(ctx, item.BookID)
		if err != nil {
			if errors.Is(err, book.ErrBookNotFound) {
				return errBookNotFound(item.BookID)
			}
			return err
		}

		// 4. 库存必须覆盖本条需求
		if stock < item.Quantity {
			return errInsufficientStock(item.BookID, stock, item.Quantity)
		}

		// 5. 立即扣减,同批次后续明细看到的是扣减后的库存
		// 扣减是带库存下限保护的原子UPDATE:预检通过后其他事务抢先
		// 消耗了库存时,这里仍然会拒绝而不是把库存打成负数
		if err := s.gw.DecrBookStock(ctx, item.BookID, item.Quantity); err != nil {
			if errors.Is(err, book.ErrInsufficientStock) {
				return errInsufficientStock(item.BookID, stock, item.Quantity)
			}
			return err
		}
	}
	return nil
}

// ReserveOrders 订单级入口:逐单展开明细
func (s *service) ReserveOrders(ctx context.Context, orders []*Order) error {
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		if err := s.ReserveItems(ctx, o.Items); err != nil {
			return err
		}
	}
	return nil
}

// ComputeNetAmounts 计算行净额
func (s *service) ComputeNetAmounts(ctx context.Context, items []*OrderItem) error {
	for _, item := range items {
		if item.BookID == "" {
			return errBookNotFound(item.BookID)
		}

		price, err := s.gw.GetBookPrice(ctx, item.BookID)
		if err != nil {
			if errors.Is(err, book.ErrBookNotFound) {
				// 图书已不存在:跳过该条,NetAmount保持nil
				// 创建路径在预占阶段已校验过图书存在,这里只会在
				// 图书事后被删除时触发
				continue
			}
			return err
		}

		net := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.NetAmount = &net
	}
	return nil
}

// ComputeTotals 聚合订单总额
func (s *service) ComputeTotals(ctx context.Context, orders []*Order) error {
	for _, o := range orders {
		// 1. 载荷内嵌明细先计算行净额(创建响应需要展示)
		if len(o.Items) > 0 {
			if err := s.ComputeNetAmounts(ctx, o.Items); err != nil {
				return err
			}
		}

		// 2. 全量重读:该订单下已持久化的所有明细
		all, err := s.gw.ListItemsByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}

		// 3. 对完整集合重新定价
		if err := s.ComputeNetAmounts(ctx, all); err != nil {
			return err
		}

		// 4. 零值初始化的精确求和
		// NetAmount为nil的明细(图书已删除)不计入总额
		total := decimal.Zero
		for _, item := range all {
			if item.NetAmount != nil {
				total = total.Add(*item.NetAmount)
			}
		}
		o.Total = total
	}
	return nil
}
