// config.go

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Game   GameConfig   `mapstructure:"game"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Redis  RedisConfig  `mapstructure:"redis"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	GamePort       int           `mapstructure:"game_port"`
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	MaxSessions    int           `mapstructure:"max_sessions"`
	TickRate       int           `mapstructure:"tick_rate"`       // 每秒模拟帧数
	BroadcastEvery int           `mapstructure:"broadcast_every"` // 每隔多少帧广播一次快照
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

// GameConfig 游戏默认设置
type GameConfig struct {
	Width              float64 `mapstructure:"width"`
	Height             float64 `mapstructure:"height"`
	LogoWidth          float64 `mapstructure:"logo_width"`
	LogoHeight         float64 `mapstructure:"logo_height"`
	AngleVariance      float64 `mapstructure:"angle_variance"` // 0-100
	PlayerHealth       int     `mapstructure:"player_health"`
	LogoSpeed          float64 `mapstructure:"logo_speed"`     // 像素/帧
	RotationSpeed      float64 `mapstructure:"rotation_speed"` // 像素/帧
	RedistributionMode string  `mapstructure:"redistribution_mode"`
}

// AuthConfig 控制令牌配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ChannelPrefix string `mapstructure:"channel_prefix"`
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.game_port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_sessions", 100)
	v.SetDefault("server.tick_rate", 60)
	v.SetDefault("server.broadcast_every", 2)
	v.SetDefault("server.idle_timeout", 5*time.Minute)

	v.SetDefault("game.width", 900.0)
	v.SetDefault("game.height", 600.0)
	v.SetDefault("game.logo_width", 80.0)
	v.SetDefault("game.logo_height", 50.0)
	v.SetDefault("game.angle_variance", 20.0)
	v.SetDefault("game.player_health", 3)
	v.SetDefault("game.logo_speed", 3.0)
	v.SetDefault("game.rotation_speed", 0.5)
	v.SetDefault("game.redistribution_mode", "adjacent")

	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.channel_prefix", "borderbounce")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "borderbounce-server")
	v.SetDefault("mqtt.topic_prefix", "borderbounce")
}

// LoadConfig 从文件加载配置，configPath 为空时只使用默认值和环境变量
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = *cfg
	return nil
}

// Load 读取配置但不修改全局实例
func Load(configPath string) (*Config, error) {
	// .env 文件是可选的
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法读取.env文件: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 检查配置是否合法
func (c *Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate 必须大于0")
	}
	if c.Server.BroadcastEvery <= 0 {
		c.Server.BroadcastEvery = 1
	}
	if c.Game.Width <= 0 || c.Game.Height <= 0 {
		return fmt.Errorf("游戏区域尺寸无效: %vx%v", c.Game.Width, c.Game.Height)
	}
	if c.Game.LogoWidth <= 0 || c.Game.LogoHeight <= 0 ||
		c.Game.LogoWidth >= c.Game.Width || c.Game.LogoHeight >= c.Game.Height {
		return fmt.Errorf("Logo尺寸无效: %vx%v", c.Game.LogoWidth, c.Game.LogoHeight)
	}
	switch c.Game.RedistributionMode {
	case "adjacent", "equal":
	default:
		return fmt.Errorf("未知的分配模式: %s", c.Game.RedistributionMode)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret 不能为空")
	}
	return nil
}

// TickInterval 每帧间隔
func (c *ServerConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
