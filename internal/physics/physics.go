// physics.go

package physics

import (
	"math/rand"

	"github.com/jacl-coder/BorderBounce-Server/internal/border"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// MaxDeviationDegrees 角度偏差设置为100时的最大偏转范围
const MaxDeviationDegrees = 90.0

// RandomSource 随机数来源，返回 [0,1)
type RandomSource interface {
	Float64() float64
}

// NewRandomSource 创建带种子的随机数来源
func NewRandomSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// Arena 运动区域参数
type Arena struct {
	Width         float64
	Height        float64
	Speed         float64 // 像素/帧
	AngleVariance float64 // 0-100
}

// Collision 一次撞墙记录
type Collision struct {
	Side       border.SideName
	Point      models.Vector2D // 墙上的接触点
	Coordinate float64         // 沿垂直轴的坐标，左右墙为y，上下墙为x
}

// StepResult 一步模拟的结果
type StepResult struct {
	Position   models.Vector2D
	Direction  models.Vector2D
	Collisions []Collision
	Deviation  float64 // 实际施加的偏转角度
}

// Step 推进Logo一步：移动、撞墙反弹、随机偏转。不修改输入
func Step(logo models.LogoState, arena Arena, dt float64, rng RandomSource) StepResult {
	result := StepResult{
		Position:  logo.Position,
		Direction: logo.Direction,
	}
	if dt <= 0 {
		return result
	}

	hw, hh := logo.HalfExtents()
	next := logo.Position.Add(logo.Direction.Scale(arena.Speed * dt))
	dir := logo.Direction

	minX, maxX := hw, arena.Width-hw
	minY, maxY := hh, arena.Height-hh

	var hitX, hitY border.SideName
	if next.X < minX {
		dir.X = -dir.X
		next.X = minX
		hitX = border.SideLeft
	} else if next.X > maxX {
		dir.X = -dir.X
		next.X = maxX
		hitX = border.SideRight
	}

	if next.Y < minY {
		dir.Y = -dir.Y
		next.Y = minY
		hitY = border.SideTop
	} else if next.Y > maxY {
		dir.Y = -dir.Y
		next.Y = maxY
		hitY = border.SideBottom
	}

	switch hitX {
	case border.SideLeft:
		result.Collisions = append(result.Collisions, Collision{
			Side: hitX, Point: models.Vector2D{X: 0, Y: next.Y}, Coordinate: next.Y,
		})
	case border.SideRight:
		result.Collisions = append(result.Collisions, Collision{
			Side: hitX, Point: models.Vector2D{X: arena.Width, Y: next.Y}, Coordinate: next.Y,
		})
	}
	switch hitY {
	case border.SideTop:
		result.Collisions = append(result.Collisions, Collision{
			Side: hitY, Point: models.Vector2D{X: next.X, Y: 0}, Coordinate: next.X,
		})
	case border.SideBottom:
		result.Collisions = append(result.Collisions, Collision{
			Side: hitY, Point: models.Vector2D{X: next.X, Y: arena.Height}, Coordinate: next.X,
		})
	}

	if len(result.Collisions) > 0 && arena.AngleVariance > 0 && rng != nil {
		result.Deviation = Deviation(arena.AngleVariance, rng.Float64())
		dir = dir.Rotate(result.Deviation)
	}

	if n, ok := dir.Normalize(); ok {
		dir = n
	} else {
		dir = logo.Direction
	}

	result.Position = next
	result.Direction = dir
	return result
}

// MaxDeviation 将 0-100 的角度偏差设置换算为偏转范围(度)
func MaxDeviation(variance float64) float64 {
	if variance < 0 {
		variance = 0
	} else if variance > 100 {
		variance = 100
	}
	return variance / 100 * MaxDeviationDegrees
}

// Deviation 由 [0,1) 的随机数得到 [-v/2, v/2] 范围内的偏转角度
func Deviation(variance, r float64) float64 {
	return (r - 0.5) * MaxDeviation(variance)
}
