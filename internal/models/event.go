package models

import (
	"time"
)

// EventType 游戏事件类型
type EventType string

const (
	// EventCollision Logo撞墙
	EventCollision EventType = "collision"
	// EventDamage 玩家受到伤害
	EventDamage EventType = "damage"
	// EventElimination 玩家被淘汰
	EventElimination EventType = "elimination"
	// EventFinished 游戏结束
	EventFinished EventType = "finished"
)

// Event 游戏事件
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Tick      int64     `json:"tick"`
	Side      string    `json:"side,omitempty"`
	Position  *Vector2D `json:"position,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	Health    int       `json:"health"`
	Order     int       `json:"order,omitempty"`
	Time      time.Time `json:"time"`
}
