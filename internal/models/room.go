package models

import (
	"time"
)

// GameStatus 游戏状态
type GameStatus string

const (
	// StatusIdle 未开始
	StatusIdle GameStatus = "idle"
	// StatusRunning 进行中
	StatusRunning GameStatus = "running"
	// StatusPaused 已暂停
	StatusPaused GameStatus = "paused"
	// StatusFinished 已结束
	StatusFinished GameStatus = "finished"
)

// RedistributionMode 淘汰后边框分配模式
type RedistributionMode string

const (
	// RedistributeAdjacent 分给相邻的两名玩家
	RedistributeAdjacent RedistributionMode = "adjacent"
	// RedistributeEqual 平均分给所有剩余玩家
	RedistributeEqual RedistributionMode = "equal"
)

// Valid 模式是否合法
func (m RedistributionMode) Valid() bool {
	return m == RedistributeAdjacent || m == RedistributeEqual
}

// Settings 游戏设置
type Settings struct {
	AngleVariance      float64            `json:"angle_variance"` // 0-100
	PlayerHealth       int                `json:"player_health"`
	LogoSpeed          float64            `json:"logo_speed"`     // 像素/帧
	RotationSpeed      float64            `json:"rotation_speed"` // 像素/帧
	RedistributionMode RedistributionMode `json:"redistribution_mode"`
	LogoImage          string             `json:"logo_image,omitempty"` // 仅用于渲染
}

// DefaultSettings 默认设置
func DefaultSettings() Settings {
	return Settings{
		AngleVariance:      20,
		PlayerHealth:       3,
		LogoSpeed:          3,
		RotationSpeed:      0.5,
		RedistributionMode: RedistributeAdjacent,
	}
}

// Clamp 将设置限制在合法范围内，非有限数恢复为默认值
func (s Settings) Clamp() Settings {
	defaults := DefaultSettings()
	if !IsFinite(s.AngleVariance) {
		s.AngleVariance = defaults.AngleVariance
	}
	if !IsFinite(s.LogoSpeed) {
		s.LogoSpeed = defaults.LogoSpeed
	}
	if !IsFinite(s.RotationSpeed) {
		s.RotationSpeed = defaults.RotationSpeed
	}

	if s.AngleVariance < 0 {
		s.AngleVariance = 0
	} else if s.AngleVariance > 100 {
		s.AngleVariance = 100
	}
	if s.PlayerHealth < 1 {
		s.PlayerHealth = 1
	}
	if s.LogoSpeed < 1 {
		s.LogoSpeed = 1
	}
	if s.RotationSpeed < 0 {
		s.RotationSpeed = 0
	}
	if !s.RedistributionMode.Valid() {
		s.RedistributionMode = RedistributeAdjacent
	}
	return s
}

// SettingsPatch 部分更新设置，nil 表示不修改
type SettingsPatch struct {
	AngleVariance      *float64            `json:"angle_variance,omitempty"`
	PlayerHealth       *int                `json:"player_health,omitempty"`
	LogoSpeed          *float64            `json:"logo_speed,omitempty"`
	RotationSpeed      *float64            `json:"rotation_speed,omitempty"`
	RedistributionMode *RedistributionMode `json:"redistribution_mode,omitempty"`
	LogoImage          *string             `json:"logo_image,omitempty"`
}

// Apply 应用补丁并返回限制后的设置，非有限数的字段保持原值
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.AngleVariance != nil && IsFinite(*p.AngleVariance) {
		s.AngleVariance = *p.AngleVariance
	}
	if p.PlayerHealth != nil {
		s.PlayerHealth = *p.PlayerHealth
	}
	if p.LogoSpeed != nil && IsFinite(*p.LogoSpeed) {
		s.LogoSpeed = *p.LogoSpeed
	}
	if p.RotationSpeed != nil && IsFinite(*p.RotationSpeed) {
		s.RotationSpeed = *p.RotationSpeed
	}
	if p.RedistributionMode != nil {
		s.RedistributionMode = *p.RedistributionMode
	}
	if p.LogoImage != nil {
		s.LogoImage = *p.LogoImage
	}
	return s.Clamp()
}

// SessionInfo 会话列表信息
type SessionInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      GameStatus `json:"status"`
	PlayerCount int        `json:"player_count"`
	ClientCount int        `json:"client_count"`
	CreatedAt   time.Time  `json:"created_at"`
}
