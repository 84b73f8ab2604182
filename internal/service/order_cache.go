package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/example/goshop/internal/datamodels/order"
)

const redisOrderSummaryKey = "order:summary:%d" // orderID

// cachedSummary Summary 序列化时不带 user_id，缓存里需要单独保存用于归属校验
type cachedSummary struct {
	UserID  int64          `json:"user_id"`
	Summary *order.Summary `json:"summary"`
}

// OrderCache 订单详情缓存。订单创建后不再修改，因此只需按 TTL 过期，不需要主动失效。
type OrderCache struct {
	redis radix.Client
	ttl   time.Duration
}

func NewOrderCache(redis radix.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OrderCache{redis: redis, ttl: ttl}
}

// Get 未命中返回 (nil, false, nil)
func (c *OrderCache) Get(ctx context.Context, orderID int64) (*order.Summary, bool, error) {
	if c == nil || c.redis == nil {
		return nil, false, nil
	}
	key := fmt.Sprintf(redisOrderSummaryKey, orderID)
	var raw string
	if err := c.redis.Do(radix.Cmd(&raw, "GET", key)); err != nil {
		return nil, false, err
	}
	if raw == "" {
		return nil, false, nil
	}
	var cs cachedSummary
	if err := json.Unmarshal([]byte(raw), &cs); err != nil || cs.Summary == nil {
		// 数据损坏，清理后回源
		_ = c.redis.Do(radix.Cmd(nil, "DEL", key))
		return nil, false, nil
	}
	cs.Summary.UserID = cs.UserID
	return cs.Summary, true, nil
}

func (c *OrderCache) Set(ctx context.Context, s *order.Summary) error {
	if c == nil || c.redis == nil || s == nil {
		return nil
	}
	body, err := json.Marshal(&cachedSummary{UserID: s.UserID, Summary: s})
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisOrderSummaryKey, s.ID)
	return c.redis.Do(radix.FlatCmd(nil, "SETEX", key, int64(c.ttl/time.Second), body))
}
