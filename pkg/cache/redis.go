package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ==================== Redis 客户端 ====================

// NewClient 创建 Redis 客户端并做一次连通性检查
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}
	return client, nil
}

// ==================== RedisCache 键值缓存 ====================

// RedisCache 商品列表等只读缓存
// 非权威数据：读写失败由调用方降级处理
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建缓存
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get 读取缓存，miss 返回 (_, false, nil)
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// ==================== NopCache 空实现 ====================

// NopCache 未配置 Redis 时使用，永远 miss
type NopCache struct{}

func (NopCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (NopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (NopCache) Delete(ctx context.Context, key string) error { return nil }
