// names.go

package border

import (
	"github.com/jbeda/geom"
)

// NameOffsetDistance 名字框距离边框的距离
const NameOffsetDistance = 40.0

// NamePosition 玩家名字框的位置
type NamePosition struct {
	PlayerID    string     `json:"player_id"`
	PlayerName  string     `json:"player_name"`
	PlayerColor string     `json:"player_color"`
	Side        SideName   `json:"side"`
	Position    geom.Coord `json:"position"`
}

// ProjectNames 计算每个玩家名字框的位置：取最长的段，求中点，再向矩形外偏移
func ProjectNames(owners []PlayerSegments, width, height, rotationOffset float64) []NamePosition {
	if len(owners) == 0 {
		return nil
	}

	sides := CreateSides(width, height)
	if TotalPerimeter(sides) <= 0 {
		return nil
	}

	positions := make([]NamePosition, 0, len(owners))
	for _, owner := range owners {
		primary, ok := primarySegment(owner.Segments)
		if !ok {
			continue
		}

		i := primary.Side.Index()
		mid := sides.SideOffset(i) + primary.Start + primary.Length/2 + rotationOffset
		point, _, ok := sides.PerimeterPoint(mid)
		if !ok {
			continue
		}

		positions = append(positions, NamePosition{
			PlayerID:    owner.PlayerID,
			PlayerName:  owner.PlayerName,
			PlayerColor: owner.PlayerColor,
			Side:        primary.Side,
			Position:    boxPosition(point, primary.Side, width, height),
		})
	}

	return positions
}

// primarySegment 最长的段，长度相同取第一个
func primarySegment(segments []Segment) (Segment, bool) {
	if len(segments) == 0 {
		return Segment{}, false
	}
	best := segments[0]
	for _, seg := range segments[1:] {
		if seg.Length > best.Length {
			best = seg
		}
	}
	return best, true
}

// boxPosition 根据所在边把中点推到矩形外
func boxPosition(mid geom.Coord, side SideName, width, height float64) geom.Coord {
	switch side {
	case SideTop:
		return geom.Coord{X: mid.X, Y: -NameOffsetDistance}
	case SideRight:
		return geom.Coord{X: width + NameOffsetDistance/2, Y: mid.Y}
	case SideBottom:
		return geom.Coord{X: mid.X, Y: height + NameOffsetDistance/2}
	case SideLeft:
		return geom.Coord{X: -NameOffsetDistance * 2, Y: mid.Y}
	default:
		return mid
	}
}
