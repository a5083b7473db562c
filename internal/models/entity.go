// entity.go

package models

import (
	"math"
)

// Vector2D 二维向量
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 向量相加
func (v Vector2D) Add(o Vector2D) Vector2D {
	return Vector2D{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale 向量缩放
func (v Vector2D) Scale(f float64) Vector2D {
	return Vector2D{X: v.X * f, Y: v.Y * f}
}

// Length 向量长度
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// IsFinite 既不是 NaN 也不是无穷大
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Normalize 归一化，零向量返回 false
func (v Vector2D) Normalize() (Vector2D, bool) {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return v, false
	}
	return Vector2D{X: v.X / l, Y: v.Y / l}, true
}

// Rotate 按角度(度)旋转向量
func (v Vector2D) Rotate(degrees float64) Vector2D {
	rad := degrees * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	return Vector2D{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// Size 尺寸
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LogoState 弹跳Logo状态
type LogoState struct {
	Position  Vector2D `json:"position"`  // 中心点
	Direction Vector2D `json:"direction"` // 单位向量
	Size      Size     `json:"size"`
	ImageURL  string   `json:"image_url,omitempty"`
}

// HalfExtents 碰撞用的半宽半高
func (l *LogoState) HalfExtents() (float64, float64) {
	return l.Size.Width / 2, l.Size.Height / 2
}

// SetDirection 设置方向并归一化，零向量保持原方向
func (l *LogoState) SetDirection(d Vector2D) bool {
	n, ok := d.Normalize()
	if !ok {
		return false
	}
	l.Direction = n
	return true
}

// DefaultDirection 初始方向 (5,3) 归一化
func DefaultDirection() Vector2D {
	d, _ := Vector2D{X: 5, Y: 3}.Normalize()
	return d
}
