// sides.go

package border

import (
	"math"

	"github.com/jbeda/geom"
)

// SideName 边的名称
type SideName string

const (
	// SideTop 上边
	SideTop SideName = "top"
	// SideRight 右边
	SideRight SideName = "right"
	// SideBottom 下边
	SideBottom SideName = "bottom"
	// SideLeft 左边
	SideLeft SideName = "left"
)

// 顺时针顺序中的下标
const (
	TopIndex = iota
	RightIndex
	BottomIndex
	LeftIndex
)

// Index 返回边在顺时针环中的下标，未知名称返回 -1
func (n SideName) Index() int {
	switch n {
	case SideTop:
		return TopIndex
	case SideRight:
		return RightIndex
	case SideBottom:
		return BottomIndex
	case SideLeft:
		return LeftIndex
	default:
		return -1
	}
}

// Side 矩形的一条边，端点按从左上角开始的顺时针方向
type Side struct {
	Name   SideName   `json:"name"`
	Length float64    `json:"length"`
	Start  geom.Coord `json:"start"`
	End    geom.Coord `json:"end"`
}

// Sides 四条边组成的环，下一条边为 (i+1)%4
type Sides [4]Side

// CreateSides 根据宽高创建四条边
func CreateSides(width, height float64) Sides {
	return Sides{
		{Name: SideTop, Length: width, Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: width, Y: 0}},
		{Name: SideRight, Length: height, Start: geom.Coord{X: width, Y: 0}, End: geom.Coord{X: width, Y: height}},
		{Name: SideBottom, Length: width, Start: geom.Coord{X: width, Y: height}, End: geom.Coord{X: 0, Y: height}},
		{Name: SideLeft, Length: height, Start: geom.Coord{X: 0, Y: height}, End: geom.Coord{X: 0, Y: 0}},
	}
}

// Next 顺时针方向的下一条边的下标
func Next(i int) int {
	return (i + 1) % len(Sides{})
}

// TotalPerimeter 总周长
func TotalPerimeter(sides Sides) float64 {
	total := 0.0
	for _, side := range sides {
		total += side.Length
	}
	return total
}

// ByName 按名称查找边
func (s Sides) ByName(name SideName) (Side, bool) {
	i := name.Index()
	if i < 0 {
		return Side{}, false
	}
	return s[i], true
}

// SideOffset 参考点(左上角)到第 i 条边起点的周长距离
func (s Sides) SideOffset(i int) float64 {
	offset := 0.0
	for j := 0; j < i && j < len(s); j++ {
		offset += s[j].Length
	}
	return offset
}

// Locate 将周长位置转换为(边下标, 边内偏移)，位置先按周长取模
func (s Sides) Locate(position float64) (int, float64, bool) {
	total := TotalPerimeter(s)
	if total <= 0 {
		return 0, 0, false
	}

	remaining := wrap(position, total)
	for i, side := range s {
		if remaining < side.Length {
			return i, remaining, true
		}
		remaining -= side.Length
	}
	return 0, 0, false
}

// PerimeterPoint 将周长位置转换为坐标
func (s Sides) PerimeterPoint(position float64) (geom.Coord, int, bool) {
	i, offset, ok := s.Locate(position)
	if !ok {
		return geom.Coord{}, 0, false
	}
	return PointOnSide(s[i], offset/s[i].Length), i, true
}

// PointOnSide 按比例(0-1)在边上插值取点，比例会被限制在[0,1]
func PointOnSide(side Side, fraction float64) geom.Coord {
	f := math.Max(0, math.Min(1, fraction))
	return side.End.Minus(side.Start).Times(f).Plus(side.Start)
}

// wrap 取模到 [0, total)
func wrap(position, total float64) float64 {
	p := math.Mod(position, total)
	if p < 0 {
		p += total
	}
	if p >= total {
		p = 0
	}
	return p
}
