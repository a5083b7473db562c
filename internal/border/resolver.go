// resolver.go

package border

import (
	"github.com/jacl-coder/BorderBounce-Server/internal/logging"
	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// PlayerSegments 某个玩家当前占据的所有边框段
type PlayerSegments struct {
	PlayerID    string    `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	PlayerColor string    `json:"player_color"`
	Segments    []Segment `json:"segments"`
}

// ComputeSegments 根据玩家的占比和旋转偏移计算每个玩家的具体边框段
func ComputeSegments(sides Sides, players []models.Player, rotationOffset float64) []PlayerSegments {
	if len(players) == 0 {
		return nil
	}

	perimeter := TotalPerimeter(sides)
	if perimeter <= 0 {
		return nil
	}

	offset := wrap(rotationOffset, perimeter)
	result := make([]PlayerSegments, 0, len(players))

	for _, player := range players {
		if !player.IsActive() {
			continue
		}

		start := player.SectionStart*perimeter + offset
		sideIndex, sideOffset, ok := sides.Locate(start)
		if !ok {
			logging.Log.Warningf("无法确定玩家 %s 的起始边, 位置: %.3f", player.ID, start)
			continue
		}

		result = append(result, PlayerSegments{
			PlayerID:    player.ID,
			PlayerName:  player.Name,
			PlayerColor: player.Color,
			Segments:    AllocateSegments(sides, sideIndex, sideOffset, player.SectionLength*perimeter),
		})
	}

	return result
}

// SideCoordinate 将碰撞点的坐标转换为该边正向遍历方向上的坐标，
// 下边和左边的遍历方向与像素坐标相反
func SideCoordinate(sides Sides, name SideName, x, y float64) float64 {
	switch name {
	case SideTop:
		return x
	case SideRight:
		return y
	case SideBottom:
		return sides[BottomIndex].Length - x
	case SideLeft:
		return sides[LeftIndex].Length - y
	default:
		return -1
	}
}

// FindOwner 在给定的边上查找包含该坐标的段的所属玩家
func FindOwner(owners []PlayerSegments, name SideName, pos float64) (string, bool) {
	for _, owner := range owners {
		for _, seg := range owner.Segments {
			if seg.Side == name && seg.Contains(pos) {
				return owner.PlayerID, true
			}
		}
	}
	return "", false
}
