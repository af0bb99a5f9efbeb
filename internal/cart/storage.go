package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/kuajing-shop/internal/cache"
)

// Storage 购物车持久化端口：按键读写整车序列化结果
// Load 在键不存在时返回 (nil, nil)
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// KeyForUser 用户购物车存储键
func KeyForUser(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

// RedisStorage 基于 Redis 的存储
type RedisStorage struct {
	TTL time.Duration
}

// NewRedisStorage 创建 Redis 存储，ttl<=0 表示不过期
func NewRedisStorage(ttl time.Duration) *RedisStorage {
	return &RedisStorage{TTL: ttl}
}

// Load 读取
func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return cache.GetBytes(ctx, key)
}

// Save 写入
func (s *RedisStorage) Save(ctx context.Context, key string, payload []byte) error {
	if !cache.Enabled() {
		return fmt.Errorf("cart redis storage: redis disabled")
	}
	return cache.SetBytes(ctx, key, payload, s.TTL)
}
