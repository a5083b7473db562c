// redistribute.go

package roster

import (
	"math"
	"sort"

	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

// eliminate 淘汰下标为 idx 的玩家，把他的边框分给剩余玩家，再重新计算连续的起点
func eliminate(players []models.Player, idx int, mode models.RedistributionMode) {
	player := &players[idx]
	player.IsEliminated = true

	order := 0
	for i := range players {
		if players[i].IsEliminated {
			order++
		}
	}
	player.EliminationOrder = &order

	freed := player.SectionLength
	player.SectionLength = 0

	active := make([]int, 0, len(players))
	for i := range players {
		if players[i].IsActive() {
			active = append(active, i)
		}
	}
	if len(active) == 0 {
		return
	}

	switch mode {
	case models.RedistributeEqual:
		share := freed / float64(len(active))
		for _, i := range active {
			players[i].SectionLength += share
		}
	default:
		prev, next := neighbors(players, idx)
		switch {
		case prev >= 0 && next >= 0 && prev != next:
			players[prev].SectionLength += freed / 2
			players[next].SectionLength += freed / 2
		case prev >= 0:
			players[prev].SectionLength += freed
		}
	}

	restitch(players, active)
}

// neighbors 按加入顺序(环形)查找前后最近的未淘汰玩家，没有则返回 -1
func neighbors(players []models.Player, idx int) (int, int) {
	n := len(players)
	prev, next := -1, -1

	for step := 1; step < n; step++ {
		i := (idx - step + n) % n
		if players[i].IsActive() {
			prev = i
			break
		}
	}
	for step := 1; step < n; step++ {
		i := (idx + step) % n
		if players[i].IsActive() {
			next = i
			break
		}
	}
	return prev, next
}

// restitch 按当前起点排序，从第一个玩家的起点开始依次首尾相接
func restitch(players []models.Player, active []int) {
	ordered := append([]int(nil), active...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return players[ordered[a]].SectionStart < players[ordered[b]].SectionStart
	})

	current := players[ordered[0]].SectionStart
	for _, i := range ordered {
		players[i].SectionStart = current
		current = math.Mod(current+players[i].SectionLength, 1.0)
	}
}
