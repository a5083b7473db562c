// roster.go

package roster

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// State 玩家列表状态，顺序即加入顺序
type State struct {
	Players []models.Player `json:"players"`
}

// Clone 深拷贝状态
func (s State) Clone() State {
	players := make([]models.Player, len(s.Players))
	for i, p := range s.Players {
		players[i] = p.Clone()
	}
	return State{Players: players}
}

// Find 按ID查找玩家下标
func (s State) Find(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// Player 按ID获取玩家
func (s State) Player(id string) (models.Player, bool) {
	i := s.Find(id)
	if i < 0 {
		return models.Player{}, false
	}
	return s.Players[i], true
}

// Active 未淘汰的玩家
func (s State) Active() []models.Player {
	return models.ActivePlayers(s.Players)
}

// ActiveCount 未淘汰的玩家数量
func (s State) ActiveCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].IsActive() {
			n++
		}
	}
	return n
}

// ActiveLengthSum 未淘汰玩家占比之和
func (s State) ActiveLengthSum() float64 {
	sum := 0.0
	for i := range s.Players {
		if s.Players[i].IsActive() {
			sum += s.Players[i].SectionLength
		}
	}
	return sum
}

// Winner 只剩一名未淘汰玩家时返回该玩家
func (s State) Winner() (models.Player, bool) {
	if s.ActiveCount() != 1 {
		return models.Player{}, false
	}
	for _, p := range s.Players {
		if p.IsActive() {
			return p, true
		}
	}
	return models.Player{}, false
}

// Action 玩家状态变更动作
type Action interface {
	apply(s *State)
}

// AddPlayer 添加玩家，ID为空时自动生成
type AddPlayer struct {
	ID     string
	Name   string
	Health int
}

// RemovePlayer 移除玩家
type RemovePlayer struct {
	ID string
}

// RenamePlayer 修改玩家名称
type RenamePlayer struct {
	ID   string
	Name string
}

// DecrementHealth 玩家扣一点血，归零时淘汰并重新分配边框
type DecrementHealth struct {
	ID   string
	Mode models.RedistributionMode
}

// ResetHealth 所有玩家复活并平分边框
type ResetHealth struct {
	Health int
}

// SetAllHealth 设置所有未淘汰玩家的血量(至少为1)
type SetAllHealth struct {
	Health int
}

// SectionUpdate 单个玩家的边框占比
type SectionUpdate struct {
	ID            string  `json:"id"`
	SectionStart  float64 `json:"section_start"`
	SectionLength float64 `json:"section_length"`
}

// SetSections 直接设置玩家的边框占比
type SetSections struct {
	Sections []SectionUpdate
}

// Reduce 对状态应用动作，返回新状态，不修改输入
func Reduce(state State, action Action) State {
	next := state.Clone()
	if action != nil {
		action.apply(&next)
	}
	return next
}

func (a AddPlayer) apply(s *State) {
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}

	s.Players = append(s.Players, models.Player{
		ID:     id,
		Name:   a.Name,
		Health: a.Health,
	})

	recolor(s.Players)
	splitEvenly(s.Players, false)
}

func (a RemovePlayer) apply(s *State) {
	i := s.Find(a.ID)
	if i < 0 {
		return
	}
	s.Players = append(s.Players[:i], s.Players[i+1:]...)

	recolor(s.Players)
	splitEvenly(s.Players, false)
	rerankEliminated(s.Players)
}

func (a RenamePlayer) apply(s *State) {
	i := s.Find(a.ID)
	if i < 0 {
		return
	}
	s.Players[i].Name = a.Name
	recolor(s.Players)
}

func (a DecrementHealth) apply(s *State) {
	i := s.Find(a.ID)
	if i < 0 {
		return
	}

	player := &s.Players[i]
	if player.Health <= 0 || player.IsEliminated {
		return
	}

	player.Health--
	if player.Health == 0 {
		eliminate(s.Players, i, a.Mode)
	}
}

func (a ResetHealth) apply(s *State) {
	for i := range s.Players {
		s.Players[i].Health = a.Health
		s.Players[i].IsEliminated = false
		s.Players[i].EliminationOrder = nil
	}
	splitEvenly(s.Players, true)
}

func (a SetAllHealth) apply(s *State) {
	health := a.Health
	if health < 1 {
		health = 1
	}
	for i := range s.Players {
		if s.Players[i].IsActive() {
			s.Players[i].Health = health
		}
	}
}

func (a SetSections) apply(s *State) {
	for _, section := range a.Sections {
		i := s.Find(section.ID)
		if i < 0 {
			continue
		}
		s.Players[i].SectionStart = section.SectionStart
		s.Players[i].SectionLength = section.SectionLength
	}
}

// recolor 按加入顺序重新分配颜色
func recolor(players []models.Player) {
	for i := range players {
		players[i].Color = ColorFor(i)
	}
}

// splitEvenly 未淘汰玩家按加入顺序平分周长，includeAll 时包含所有玩家
func splitEvenly(players []models.Player, includeAll bool) {
	n := 0
	for i := range players {
		if includeAll || players[i].IsActive() {
			n++
		}
	}
	if n == 0 {
		return
	}

	share := 1.0 / float64(n)
	k := 0
	for i := range players {
		if !includeAll && players[i].IsEliminated {
			continue
		}
		players[i].SectionStart = float64(k) * share
		players[i].SectionLength = share
		k++
	}
}

// rerankEliminated 重新编排淘汰名次为 1..k，保持相对顺序
func rerankEliminated(players []models.Player) {
	eliminated := make([]*models.Player, 0)
	for i := range players {
		if players[i].IsEliminated {
			eliminated = append(eliminated, &players[i])
		}
	}

	sort.SliceStable(eliminated, func(a, b int) bool {
		return orderOf(eliminated[a]) < orderOf(eliminated[b])
	})

	for rank, p := range eliminated {
		order := rank + 1
		p.EliminationOrder = &order
	}
}

func orderOf(p *models.Player) int {
	if p.EliminationOrder == nil {
		return math.MaxInt
	}
	return *p.EliminationOrder
}
