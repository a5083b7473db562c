// mqtt.go

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jacl-coder/BorderBounce-Server/config"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// QOS 至少送达一次
const QOS = 1

const (
	connectTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // 毫秒
)

// EventPublisher 通过MQTT推送游戏事件
type EventPublisher struct {
	client mqtt.Client
	prefix string
}

// Connect 连接到MQTT Broker
func Connect(cfg config.MQTTConfig) (*EventPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logging.Log.Warningf("与MQTT Broker的连接断开: %v", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logging.Log.Notice("已连接到MQTT Broker")
	})

	logging.Log.Noticef("正在连接MQTT Broker %s, 客户端ID: %s", cfg.Broker, cfg.ClientID)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("连接MQTT Broker超时: %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", err)
	}

	return NewEventPublisher(client, cfg.TopicPrefix), nil
}

// NewEventPublisher 基于已有客户端创建事件发布者
func NewEventPublisher(client mqtt.Client, prefix string) *EventPublisher {
	return &EventPublisher{client: client, prefix: prefix}
}

// EventTopic 会话事件主题: <prefix>/<session>/events
func EventTopic(prefix, sessionID string) string {
	return fmt.Sprintf("%s/%s/events", prefix, sessionID)
}

// Publish 发布事件，等待Broker确认或ctx结束
func (p *EventPublisher) Publish(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	topic := EventTopic(p.prefix, event.SessionID)
	token := p.client.Publish(topic, QOS, false, data)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("发布事件到 %s 超时: %w", topic, ctx.Err())
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("发布事件到 %s 失败: %w", topic, err)
	}
	return nil
}

// Close 断开连接
func (p *EventPublisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
		logging.Log.Info("MQTT连接已关闭")
	}
	return nil
}
