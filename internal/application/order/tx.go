package order

import (
	"context"
)

// TxManager 事务边界(依赖倒置)
// 设计说明:
// 1. 事务边界显式化,由用例层决定一次写请求里哪些操作同生共死
// 2. mysql.TxManager是生产实现;单测用快照回滚的内存实现
type TxManager interface {
	// Transaction 在一个事务内执行fn
	// fn返回error时整体回滚(包括已执行的库存扣减),返回nil时提交
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// IdempotencyStore 下单幂等键存储(依赖倒置)
// redis.IdempotencyStore是生产实现;未配置Redis时注入nil,幂等检查跳过
type IdempotencyStore interface {
	// Get 查询幂等键对应的订单号,未命中返回("", nil)
	Get(ctx context.Context, key string) (string, error)

	// Put 记录幂等键与订单号的映射,返回是否写入成功
	Put(ctx context.Context, key, orderNo string) (bool, error)
}
