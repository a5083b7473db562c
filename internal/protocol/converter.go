// converter.go

package protocol

import (
	"github.com/jacl-coder/BorderBounce-Server/internal/border"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// Snapshot 发送给客户端的完整游戏状态
type Snapshot struct {
	SessionID string            `json:"session_id"`
	Status    models.GameStatus `json:"status"`
	Tick      int64             `json:"tick"`
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Rotation  float64           `json:"rotation"`
	Settings  models.Settings   `json:"settings"`
	Logo      models.LogoState  `json:"logo"`
	Players   []PlayerInfo      `json:"players"`
	Segments  []SegmentInfo     `json:"segments"`
	Names     []NameInfo        `json:"names"`
	WinnerID  string            `json:"winner_id,omitempty"`
}

// PlayerInfo 玩家信息
type PlayerInfo struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Color            string  `json:"color"`
	Health           int     `json:"health"`
	SectionStart     float64 `json:"section_start"`
	SectionLength    float64 `json:"section_length"`
	IsEliminated     bool    `json:"is_eliminated"`
	EliminationOrder int     `json:"elimination_order,omitempty"`
}

// SegmentInfo 一段边框，附带像素端点方便渲染
type SegmentInfo struct {
	PlayerID string  `json:"player_id"`
	Color    string  `json:"color"`
	Side     string  `json:"side"`
	Start    float64 `json:"start"`
	Length   float64 `json:"length"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
}

// NameInfo 名字框锚点
type NameInfo struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Side     string  `json:"side"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// ConvertPlayer 将玩家模型转换为协议消息
func ConvertPlayer(p models.Player) PlayerInfo {
	info := PlayerInfo{
		ID:            p.ID,
		Name:          p.Name,
		Color:         p.Color,
		Health:        p.Health,
		SectionStart:  p.SectionStart,
		SectionLength: p.SectionLength,
		IsEliminated:  p.IsEliminated,
	}
	if p.EliminationOrder != nil {
		info.EliminationOrder = *p.EliminationOrder
	}
	return info
}

// ConvertPlayers 批量转换玩家
func ConvertPlayers(players []models.Player) []PlayerInfo {
	out := make([]PlayerInfo, len(players))
	for i, p := range players {
		out[i] = ConvertPlayer(p)
	}
	return out
}

// ConvertSegments 将玩家边框段展开为带端点的列表
func ConvertSegments(sides border.Sides, owners []border.PlayerSegments) []SegmentInfo {
	out := make([]SegmentInfo, 0, len(owners)*2)
	for _, owner := range owners {
		for _, seg := range owner.Segments {
			side, ok := sides.ByName(seg.Side)
			if !ok || side.Length <= 0 {
				continue
			}
			from := border.PointOnSide(side, seg.Start/side.Length)
			to := border.PointOnSide(side, seg.End()/side.Length)
			out = append(out, SegmentInfo{
				PlayerID: owner.PlayerID,
				Color:    owner.PlayerColor,
				Side:     string(seg.Side),
				Start:    seg.Start,
				Length:   seg.Length,
				X1:       from.X,
				Y1:       from.Y,
				X2:       to.X,
				Y2:       to.Y,
			})
		}
	}
	return out
}

// ConvertNames 转换名字框位置
func ConvertNames(names []border.NamePosition) []NameInfo {
	out := make([]NameInfo, len(names))
	for i, n := range names {
		out[i] = NameInfo{
			PlayerID: n.PlayerID,
			Name:     n.PlayerName,
			Color:    n.PlayerColor,
			Side:     string(n.Side),
			X:        n.Position.X,
			Y:        n.Position.Y,
		}
	}
	return out
}
