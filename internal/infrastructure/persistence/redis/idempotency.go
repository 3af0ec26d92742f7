package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

// IdempotencyStore 下单幂等键存储
// 设计说明:
// 1. 客户端重试同一笔下单请求时携带相同的Idempotency-Key,
//    命中已有键则返回之前创建的订单,不重复扣库存
// 2. 键值为订单号,带TTL自动过期(重试窗口之外的键没有保留价值)
// 3. 用SETNX写入:并发重试只有一个请求能占到键
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore 创建幂等键存储
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

const idempotencyPrefix = "bookshop:idem:"

// Get 查询幂等键对应的订单号
// 未命中返回("", nil)
func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	orderNo, err := s.client.Get(ctx, idempotencyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", apperrors.Wrap(err, "查询幂等键失败")
	}
	return orderNo, nil
}

// Put 记录幂等键与订单号的映射
// 返回是否写入成功(false表示键已被并发请求占用)
func (s *IdempotencyStore) Put(ctx context.Context, key, orderNo string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, orderNo, s.ttl).Result()
	if err != nil {
		return false, apperrors.Wrap(err, "写入幂等键失败")
	}
	return ok, nil
}
