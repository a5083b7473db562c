// session.go

package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jacl-coder/BorderBounce-Server/config"
	"github.com/jacl-coder/BorderBounce-Server/internal/border"
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
	"github.com/jacl-coder/BorderBounce-Server/internal/physics"
	"github.com/jacl-coder/BorderBounce-Server/internal/protocol"
	"github.com/jacl-coder/BorderBounce-Server/internal/roster"
)

var (
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("当前状态不允许该操作")
	// ErrNotEnoughPlayers 开始游戏至少需要两名玩家
	ErrNotEnoughPlayers = errors.New("至少需要两名玩家")
	// ErrInvalidDirection 方向向量为零
	ErrInvalidDirection = errors.New("方向向量不能为零")
	// ErrInvalidSize 区域尺寸不合法
	ErrInvalidSize = errors.New("区域尺寸无效")
	// ErrEmptyName 玩家名字为空
	ErrEmptyName = errors.New("玩家名字不能为空")
)

// Session 一局游戏的全部状态，不是并发安全的，由 Room 的协程独占
type Session struct {
	ID string

	status   models.GameStatus
	settings models.Settings
	width    float64
	height   float64
	players  roster.State
	logo     models.LogoState
	rotation float64
	winnerID string
	tick     int64

	rng     physics.RandomSource
	now     func() time.Time
	pending []models.Event
}

// SettingsFromConfig 由配置得到初始游戏设置
func SettingsFromConfig(cfg config.GameConfig) models.Settings {
	return models.Settings{
		AngleVariance:      cfg.AngleVariance,
		PlayerHealth:       cfg.PlayerHealth,
		LogoSpeed:          cfg.LogoSpeed,
		RotationSpeed:      cfg.RotationSpeed,
		RedistributionMode: models.RedistributionMode(cfg.RedistributionMode),
	}.Clamp()
}

// NewSession 创建会话，rng 为 nil 时使用当前时间作为种子
func NewSession(id string, cfg config.GameConfig, rng physics.RandomSource) *Session {
	if rng == nil {
		rng = physics.NewRandomSource(time.Now().UnixNano())
	}

	s := &Session{
		ID:       id,
		status:   models.StatusIdle,
		settings: SettingsFromConfig(cfg),
		width:    cfg.Width,
		height:   cfg.Height,
		logo: models.LogoState{
			Size: models.Size{Width: cfg.LogoWidth, Height: cfg.LogoHeight},
		},
		rng: rng,
		now: time.Now,
	}
	s.centerLogo()
	return s
}

// Status 当前状态
func (s *Session) Status() models.GameStatus { return s.status }

// Settings 当前设置
func (s *Session) Settings() models.Settings { return s.settings }

// Size 区域尺寸
func (s *Session) Size() (float64, float64) { return s.width, s.height }

// Logo 当前Logo状态
func (s *Session) Logo() models.LogoState { return s.logo }

// Rotation 当前旋转偏移(像素)
func (s *Session) Rotation() float64 { return s.rotation }

// WinnerID 获胜者，未结束时为空
func (s *Session) WinnerID() string { return s.winnerID }

// Tick 已推进的帧数
func (s *Session) Tick() int64 { return s.tick }

// Players 玩家列表的副本
func (s *Session) Players() []models.Player {
	return s.players.Clone().Players
}

// Player 按ID查询玩家
func (s *Session) Player(id string) (models.Player, bool) {
	return s.players.Player(id)
}

// AddPlayer 添加玩家，使用当前设置的初始血量
func (s *Session) AddPlayer(name string) (models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Player{}, ErrEmptyName
	}

	s.reduce(roster.AddPlayer{Name: name, Health: s.settings.PlayerHealth})
	added := s.players.Players[len(s.players.Players)-1]
	logging.Log.Debugf("会话 %s 添加玩家 %s (%s)", s.ID, added.Name, added.ID)
	return added.Clone(), nil
}

// RemovePlayer 移除玩家，未知ID不做任何事
func (s *Session) RemovePlayer(id string) {
	s.reduce(roster.RemovePlayer{ID: id})
	s.checkFinished()
}

// RenamePlayer 修改玩家名字
func (s *Session) RenamePlayer(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	s.reduce(roster.RenamePlayer{ID: id, Name: name})
	return nil
}

// DecrementHealth 手动扣血，使用当前设置的分配模式，游戏结束后无效
func (s *Session) DecrementHealth(id string) {
	if s.status == models.StatusFinished {
		return
	}
	s.damage(id)
	s.checkFinished()
}

// ResetHealth 所有玩家复活并恢复血量
func (s *Session) ResetHealth(health int) {
	if health < 1 {
		health = s.settings.PlayerHealth
	}
	s.reduce(roster.ResetHealth{Health: health})
}

// Start 开始游戏
func (s *Session) Start() error {
	if s.status != models.StatusIdle {
		return fmt.Errorf("无法从 %s 状态开始游戏: %w", s.status, ErrInvalidTransition)
	}
	if s.players.ActiveCount() < 2 {
		return fmt.Errorf("当前只有 %d 名玩家: %w", s.players.ActiveCount(), ErrNotEnoughPlayers)
	}

	s.centerLogo()
	s.winnerID = ""
	s.status = models.StatusRunning
	logging.Log.Infof("会话 %s 开始游戏, 玩家数: %d", s.ID, len(s.players.Players))
	return nil
}

// Pause 暂停
func (s *Session) Pause() error {
	if s.status != models.StatusRunning {
		return fmt.Errorf("无法从 %s 状态暂停: %w", s.status, ErrInvalidTransition)
	}
	s.status = models.StatusPaused
	return nil
}

// Resume 继续
func (s *Session) Resume() error {
	if s.status != models.StatusPaused {
		return fmt.Errorf("无法从 %s 状态继续: %w", s.status, ErrInvalidTransition)
	}
	s.status = models.StatusRunning
	return nil
}

// Reset 回到未开始状态：恢复血量，平分边框，Logo回到中心
func (s *Session) Reset() {
	s.reduce(roster.ResetHealth{Health: s.settings.PlayerHealth})
	s.status = models.StatusIdle
	s.rotation = 0
	s.winnerID = ""
	s.tick = 0
	s.centerLogo()
	logging.Log.Infof("会话 %s 已重置", s.ID)
}

// UpdateSettings 部分更新设置，修改初始血量时同步到所有存活玩家
func (s *Session) UpdateSettings(patch models.SettingsPatch) models.Settings {
	s.settings = patch.Apply(s.settings)
	if patch.PlayerHealth != nil {
		s.reduce(roster.SetAllHealth{Health: s.settings.PlayerHealth})
	}
	if patch.LogoImage != nil {
		s.logo.ImageURL = s.settings.LogoImage
	}
	return s.settings
}

// SetLogoDirection 设置Logo方向，零向量被拒绝
func (s *Session) SetLogoDirection(dx, dy float64) error {
	if !s.logo.SetDirection(models.Vector2D{X: dx, Y: dy}) {
		return ErrInvalidDirection
	}
	return nil
}

// Resize 修改区域尺寸，Logo被限制在新区域内
func (s *Session) Resize(width, height float64) error {
	// 周长也必须是有限数
	if !models.IsFinite(2 * (width + height)) {
		return fmt.Errorf("尺寸必须是有限数: %vx%v: %w", width, height, ErrInvalidSize)
	}
	if width <= s.logo.Size.Width || height <= s.logo.Size.Height {
		return fmt.Errorf("%vx%v 容纳不下 %vx%v 的Logo: %w",
			width, height, s.logo.Size.Width, s.logo.Size.Height, ErrInvalidSize)
	}

	s.width, s.height = width, height
	hw, hh := s.logo.HalfExtents()
	s.logo.Position.X = math.Min(math.Max(s.logo.Position.X, hw), width-hw)
	s.logo.Position.Y = math.Min(math.Max(s.logo.Position.Y, hh), height-hh)

	if p := border.TotalPerimeter(s.sides()); p > 0 {
		s.rotation = math.Mod(s.rotation, p)
	}
	return nil
}

// ComputeSegments 当前旋转下每个玩家的边框段
func (s *Session) ComputeSegments() []border.PlayerSegments {
	return border.ComputeSegments(s.sides(), s.players.Players, s.rotation)
}

// NamePositions 名字框位置，边框段已包含旋转，不再叠加偏移
func (s *Session) NamePositions() []border.NamePosition {
	return border.ProjectNames(s.ComputeSegments(), s.width, s.height, 0)
}

// Snapshot 当前完整状态
func (s *Session) Snapshot() protocol.Snapshot {
	owners := s.ComputeSegments()
	return protocol.Snapshot{
		SessionID: s.ID,
		Status:    s.status,
		Tick:      s.tick,
		Width:     s.width,
		Height:    s.height,
		Rotation:  s.rotation,
		Settings:  s.settings,
		Logo:      s.logo,
		Players:   protocol.ConvertPlayers(s.players.Players),
		Segments:  protocol.ConvertSegments(s.sides(), owners),
		Names:     protocol.ConvertNames(border.ProjectNames(owners, s.width, s.height, 0)),
		WinnerID:  s.winnerID,
	}
}

// Advance 推进 dt 帧(1.0 为一帧)，只在进行中时生效，返回期间产生的事件
func (s *Session) Advance(dt float64) []models.Event {
	if s.status != models.StatusRunning || dt <= 0 {
		return s.DrainEvents()
	}

	s.tick++
	sides := s.sides()
	owners := border.ComputeSegments(sides, s.players.Players, s.rotation)

	result := physics.Step(s.logo, physics.Arena{
		Width:         s.width,
		Height:        s.height,
		Speed:         s.settings.LogoSpeed,
		AngleVariance: s.settings.AngleVariance,
	}, dt, s.rng)

	for _, hit := range result.Collisions {
		coord := border.SideCoordinate(sides, hit.Side, hit.Point.X, hit.Point.Y)
		ownerID, found := border.FindOwner(owners, hit.Side, coord)

		point := hit.Point
		s.emit(models.Event{
			Type:     models.EventCollision,
			Side:     string(hit.Side),
			Position: &point,
			PlayerID: ownerID,
		})

		if !found {
			logging.Log.Warningf("会话 %s 碰撞点未匹配到任何边框段: %s %.3f", s.ID, hit.Side, coord)
			continue
		}
		if s.players.ActiveCount() > 1 {
			s.damage(ownerID)
		}
	}

	if p := border.TotalPerimeter(sides); p > 0 {
		s.rotation = math.Mod(s.rotation+s.settings.RotationSpeed*dt, p)
	}

	s.logo.Position = result.Position
	s.logo.Direction = result.Direction

	s.checkFinished()
	return s.DrainEvents()
}

// DrainEvents 取出尚未发布的事件
func (s *Session) DrainEvents() []models.Event {
	events := s.pending
	s.pending = nil
	return events
}

// damage 扣一点血并记录事件
func (s *Session) damage(id string) {
	before, ok := s.players.Player(id)
	if !ok || before.IsEliminated || before.Health <= 0 {
		return
	}

	s.reduce(roster.DecrementHealth{ID: id, Mode: s.settings.RedistributionMode})

	after, _ := s.players.Player(id)
	s.emit(models.Event{Type: models.EventDamage, PlayerID: id, Health: after.Health})

	if after.IsEliminated && after.EliminationOrder != nil {
		logging.Log.Infof("会话 %s 玩家 %s 被淘汰, 名次: %d", s.ID, after.Name, *after.EliminationOrder)
		s.emit(models.Event{Type: models.EventElimination, PlayerID: id, Order: *after.EliminationOrder})
	}
}

// checkFinished 进行中只剩一名玩家时结束游戏
func (s *Session) checkFinished() {
	if s.status != models.StatusRunning {
		return
	}
	if s.players.ActiveCount() > 1 {
		return
	}

	s.status = models.StatusFinished
	if winner, ok := s.players.Winner(); ok {
		s.winnerID = winner.ID
		logging.Log.Noticef("会话 %s 游戏结束, 获胜者: %s", s.ID, winner.Name)
	}
	s.emit(models.Event{Type: models.EventFinished, PlayerID: s.winnerID})
}

func (s *Session) reduce(action roster.Action) {
	s.players = roster.Reduce(s.players, action)
}

func (s *Session) emit(ev models.Event) {
	ev.SessionID = s.ID
	ev.Tick = s.tick
	ev.Time = s.now()
	s.pending = append(s.pending, ev)
}

func (s *Session) sides() border.Sides {
	return border.CreateSides(s.width, s.height)
}

func (s *Session) centerLogo() {
	s.logo.Position = models.Vector2D{X: s.width / 2, Y: s.height / 2}
	s.logo.Direction = models.DefaultDirection()
}
