// redis.go

package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jacl-coder/BorderBounce-Server/config"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

var (
	// RedisClient 全局Redis客户端实例
	RedisClient *redis.Client
	// Ctx 全局上下文
	Ctx = context.Background()
)

// InitRedis 初始化Redis连接
func InitRedis(redisConfig config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     redisConfig.GetRedisAddr(),
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(Ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("Redis连接失败: %w", err)
	}

	RedisClient = client
	logging.Log.Info("成功连接到Redis服务器")
	return nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logging.Log.Errorf("关闭Redis连接时发生错误: %v", err)
			return
		}
		RedisClient = nil
		logging.Log.Info("Redis连接已关闭")
	}
}

// pubSubClient Redis发布接口，*redis.Client 实现了它
type pubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// EventPublisher 通过Redis发布订阅推送游戏事件
type EventPublisher struct {
	client pubSubClient
	prefix string
}

// NewEventPublisher 基于已连接的客户端创建事件发布者
func NewEventPublisher(client pubSubClient, prefix string) *EventPublisher {
	return &EventPublisher{client: client, prefix: prefix}
}

// EventChannel 会话事件频道名: <prefix>:<session>:events
func EventChannel(prefix, sessionID string) string {
	return fmt.Sprintf("%s:%s:events", prefix, sessionID)
}

// Publish 发布事件
func (p *EventPublisher) Publish(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	channel := EventChannel(p.prefix, event.SessionID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("发布事件到 %s 失败: %w", channel, err)
	}
	return nil
}

// Close 关闭全局Redis连接
func (p *EventPublisher) Close() error {
	CloseRedis()
	return nil
}
