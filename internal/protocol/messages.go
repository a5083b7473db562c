// messages.go

package protocol

import (
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// 客户端 -> 服务器
const (
	TypeAddPlayer       = "add_player"
	TypeRemovePlayer    = "remove_player"
	TypeRenamePlayer    = "rename_player"
	TypeDecrementHealth = "decrement_health"
	TypeResetHealth     = "reset_health"
	TypeStart           = "start"
	TypePause           = "pause"
	TypeResume          = "resume"
	TypeReset           = "reset"
	TypeUpdateSettings  = "update_settings"
	TypeSetDirection    = "set_direction"
	TypeResize          = "resize"
)

// 服务器 -> 客户端
const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeError    = "error"
	TypeWelcome  = "welcome"
)

// 错误码
const (
	ErrCodeBadMessage   = "BAD_MESSAGE"
	ErrCodeUnknownType  = "UNKNOWN_TYPE"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRejected     = "REJECTED"
)

// AddPlayerPayload 添加玩家
type AddPlayerPayload struct {
	Name string `json:"name"`
}

// PlayerPayload 针对单个玩家的操作
type PlayerPayload struct {
	PlayerID string `json:"player_id"`
}

// RenamePlayerPayload 修改名字
type RenamePlayerPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// ResetHealthPayload 重置血量
type ResetHealthPayload struct {
	Health int `json:"health"`
}

// DirectionPayload 设置Logo方向
type DirectionPayload struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ResizePayload 修改区域尺寸
type ResizePayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// UpdateSettingsPayload 部分更新设置
type UpdateSettingsPayload = models.SettingsPatch

// ErrorPayload 错误信息
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"` // 出错的请求类型
}

// WelcomePayload 连接建立后的欢迎消息
type WelcomePayload struct {
	SessionID string `json:"session_id"`
	ClientID  string `json:"client_id"`
	Host      bool   `json:"host"`
	Codec     string `json:"codec"`
}

// IsCommand 是否为会改变游戏状态的客户端消息
func IsCommand(msgType string) bool {
	switch msgType {
	case TypeAddPlayer, TypeRemovePlayer, TypeRenamePlayer, TypeDecrementHealth,
		TypeResetHealth, TypeStart, TypePause, TypeResume, TypeReset,
		TypeUpdateSettings, TypeSetDirection, TypeResize:
		return true
	}
	return false
}
