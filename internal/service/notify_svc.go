package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ==================== Notifier 推送通知 ====================

// Notifier 按用户推送通知的协作方
// 尽力而为：不保证送达，不保证顺序，失败不影响主流程
type Notifier interface {
	Publish(ctx context.Context, userID, message string)
}

// RedisNotifier 基于 Redis 发布订阅，频道按用户划分（user_<id>）
// WebSocket 网关订阅对应频道后推给在线客户端
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier 创建通知服务
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

// Publish 发布消息，失败只记日志
func (n *RedisNotifier) Publish(ctx context.Context, userID, message string) {
	channel := fmt.Sprintf("user_%s", userID)
	if err := n.client.Publish(ctx, channel, message).Err(); err != nil {
		n.logger.Warn("通知推送失败",
			zap.String("channel", channel),
			zap.Error(err),
		)
	}
}

// NopNotifier 未配置 Redis 时的空实现
type NopNotifier struct{}

func (NopNotifier) Publish(ctx context.Context, userID, message string) {}
