// segments.go

package border

import (
	"math"
)

// 浮点误差容忍度，剩余长度低于此值视为分配完毕
const lengthEpsilon = 1e-9

// Segment 一条边上的一段具体像素区间
type Segment struct {
	Side   SideName `json:"side"`
	Start  float64  `json:"start"`  // 沿该边正向的起点(像素)
	Length float64  `json:"length"` // 像素长度
}

// End 区间终点(不含)
func (s Segment) End() float64 {
	return s.Start + s.Length
}

// Contains 判断边内坐标是否落在 [Start, Start+Length) 内
func (s Segment) Contains(pos float64) bool {
	return pos >= s.Start && pos < s.End()
}

// AllocateSegments 从 startSide 的 startOffset 开始沿顺时针分配 length 像素，
// 遇到边界时拆分到下一条边，可以绕行整个周长
func AllocateSegments(sides Sides, startSide int, startOffset, length float64) []Segment {
	if length <= 0 || math.IsNaN(length) || math.IsInf(length, 0) || TotalPerimeter(sides) <= 0 {
		return nil
	}
	if startSide < 0 || startSide >= len(sides) {
		return nil
	}

	segments := make([]Segment, 0, 2)
	remaining := length
	current := startSide
	offset := math.Max(0, startOffset)

	for remaining > lengthEpsilon {
		side := sides[current]
		available := side.Length - offset
		if available > 0 {
			take := math.Min(available, remaining)
			segments = append(segments, Segment{
				Side:   side.Name,
				Start:  offset,
				Length: take,
			})
			remaining -= take
		}

		current = Next(current)
		offset = 0
	}

	return segments
}

// TotalLength 所有段的长度之和
func TotalLength(segments []Segment) float64 {
	total := 0.0
	for _, seg := range segments {
		total += seg.Length
	}
	return total
}
