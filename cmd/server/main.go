// main.go

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacl-coder/BorderBounce-Server/config"
	"github.com/jacl-coder/BorderBounce-Server/internal/events"
	"github.com/jacl-coder/BorderBounce-Server/internal/game"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/pkg/db"
	"github.com/jacl-coder/BorderBounce-Server/pkg/mq"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		logging.Log.Fatalf("加载配置失败: %v", err)
	}
	cfg := &config.GlobalConfig

	if err := logging.Init(cfg.Server.LogLevel); err != nil {
		logging.Log.Fatalf("初始化日志失败: %v", err)
	}

	publisher := startPublishers(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Log.Warningf("关闭事件发布器失败: %v", err)
		}
	}()

	server := game.NewGameServer(cfg, publisher)
	if err := server.Start(); err != nil {
		logging.Log.Fatalf("启动游戏服务器失败: %v", err)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Log.Notice("接收到关闭信号，正在关闭服务器...")
	if err := server.Stop(); err != nil {
		logging.Log.Errorf("关闭服务器失败: %v", err)
	}
	logging.Log.Notice("服务器已安全关闭")
}

// startPublishers 按配置连接Redis和MQTT，连接失败时跳过
func startPublishers(cfg *config.Config) events.Publisher {
	var publishers []events.Publisher

	if cfg.Redis.Enabled {
		if err := db.InitRedis(cfg.Redis); err != nil {
			logging.Log.Warningf("初始化Redis失败，跳过事件发布: %v", err)
		} else {
			publishers = append(publishers, db.NewEventPublisher(db.RedisClient, cfg.Redis.ChannelPrefix))
		}
	}

	if cfg.MQTT.Enabled {
		pub, err := mq.Connect(cfg.MQTT)
		if err != nil {
			logging.Log.Warningf("连接MQTT失败，跳过事件发布: %v", err)
		} else {
			publishers = append(publishers, pub)
		}
	}

	return events.Combine(publishers...)
}
