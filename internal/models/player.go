// player.go

package models

// Player 玩家模型
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Health int    `json:"health"`

	// 边框占比，均为总周长的比例
	SectionStart  float64 `json:"section_start"`  // [0,1)
	SectionLength float64 `json:"section_length"` // [0,1]

	IsEliminated     bool `json:"is_eliminated"`
	EliminationOrder *int `json:"elimination_order"` // 从1开始，未淘汰为nil
}

// IsActive 是否仍在场上
func (p *Player) IsActive() bool {
	return !p.IsEliminated
}

// Clone 深拷贝玩家
func (p Player) Clone() Player {
	if p.EliminationOrder != nil {
		order := *p.EliminationOrder
		p.EliminationOrder = &order
	}
	return p
}

// ActivePlayers 过滤出未淘汰玩家，保持原顺序
func ActivePlayers(players []Player) []Player {
	active := make([]Player, 0, len(players))
	for _, p := range players {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}
