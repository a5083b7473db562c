package roster

import (
	"math"
	"testing"

	"github.com/jacl-coder/BorderBounce-Server/internal/models"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func withPlayers(names ...string) State {
	var s State
	for i, name := range names {
		s = Reduce(s, AddPlayer{ID: string(rune('a' + i)), Name: name, Health: 1})
	}
	return s
}

func mustPlayer(t *testing.T, s State, id string) models.Player {
	t.Helper()
	p, ok := s.Player(id)
	if !ok {
		t.Fatalf("player %s not found", id)
	}
	return p
}

func checkOwnership(t *testing.T, s State, step string) {
	t.Helper()
	if s.ActiveCount() == 0 {
		return
	}
	if sum := s.ActiveLengthSum(); !almostEqual(sum, 1) {
		t.Fatalf("%s: active lengths sum to %v", step, sum)
	}
	for _, p := range s.Players {
		if p.IsEliminated && p.SectionLength != 0 {
			t.Fatalf("%s: eliminated %s keeps length %v", step, p.ID, p.SectionLength)
		}
	}
}

func TestAddPlayerEvenSplit(t *testing.T) {
	s := withPlayers("P1", "P2", "P3")
	for i, p := range s.Players {
		if !almostEqual(p.SectionLength, 1.0/3) || !almostEqual(p.SectionStart, float64(i)/3) {
			t.Fatalf("player %d = start %v len %v", i, p.SectionStart, p.SectionLength)
		}
		if p.Color != palette[i] {
			t.Fatalf("player %d color %s, want %s", i, p.Color, palette[i])
		}
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := withPlayers("P1", "P2")
	next := Reduce(s, DecrementHealth{ID: "a", Mode: models.RedistributeAdjacent})

	if s.Players[0].IsEliminated || s.Players[0].Health != 1 {
		t.Fatalf("input state mutated: %+v", s.Players[0])
	}
	if !next.Players[0].IsEliminated {
		t.Fatalf("reduced state not eliminated")
	}
}

func TestAddPlayerGeneratesID(t *testing.T) {
	s := Reduce(State{}, AddPlayer{Name: "anon", Health: 3})
	if s.Players[0].ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestActiveSectionsSumToOne(t *testing.T) {
	modes := []models.RedistributionMode{models.RedistributeAdjacent, models.RedistributeEqual}
	for _, mode := range modes {
		for n := 2; n <= 4; n++ {
			var s State
			for i := 0; i < n; i++ {
				s = Reduce(s, AddPlayer{ID: string(rune('a' + i)), Name: "P", Health: 2})
				checkOwnership(t, s, "add")
			}

			// 每人扣两次血，直到只剩一个
			for i := 0; i < n-1; i++ {
				id := string(rune('a' + i))
				s = Reduce(s, DecrementHealth{ID: id, Mode: mode})
				checkOwnership(t, s, "decrement")
				s = Reduce(s, DecrementHealth{ID: id, Mode: mode})
				checkOwnership(t, s, "eliminate")
			}
			if s.ActiveCount() != 1 {
				t.Fatalf("mode=%s n=%d: %d active", mode, n, s.ActiveCount())
			}

			s = Reduce(s, RemovePlayer{ID: "a"})
			checkOwnership(t, s, "remove")

			s = Reduce(s, ResetHealth{Health: 3})
			checkOwnership(t, s, "reset")
			if s.ActiveCount() != n-1 {
				t.Fatalf("mode=%s n=%d: reset left %d active", mode, n, s.ActiveCount())
			}
		}
	}
}

func TestEliminateAdjacentMiddle(t *testing.T) {
	s := withPlayers("P1", "P2", "P3")
	s = Reduce(s, DecrementHealth{ID: "b", Mode: models.RedistributeAdjacent})

	p1, p2, p3 := mustPlayer(t, s, "a"), mustPlayer(t, s, "b"), mustPlayer(t, s, "c")
	if !almostEqual(p1.SectionLength, 0.5) || !almostEqual(p3.SectionLength, 0.5) {
		t.Fatalf("lengths = %v, %v; want 0.5 each", p1.SectionLength, p3.SectionLength)
	}
	if !almostEqual(p1.SectionStart, 0) || !almostEqual(p3.SectionStart, 0.5) {
		t.Fatalf("starts = %v, %v; want 0 and 0.5", p1.SectionStart, p3.SectionStart)
	}
	if !p2.IsEliminated || p2.SectionLength != 0 || p2.Health != 0 {
		t.Fatalf("P2 not eliminated: %+v", p2)
	}
	if p2.EliminationOrder == nil || *p2.EliminationOrder != 1 {
		t.Fatalf("P2 order = %v, want 1", p2.EliminationOrder)
	}
}

func TestEliminateEqualFourPlayers(t *testing.T) {
	s := withPlayers("P1", "P2", "P3", "P4")
	s = Reduce(s, DecrementHealth{ID: "b", Mode: models.RedistributeEqual})

	for _, id := range []string{"a", "c", "d"} {
		if p := mustPlayer(t, s, id); !almostEqual(p.SectionLength, 1.0/3) {
			t.Fatalf("%s length = %v, want 1/3", id, p.SectionLength)
		}
	}
	// 起点首尾相接
	if p := mustPlayer(t, s, "c"); !almostEqual(p.SectionStart, 1.0/3) {
		t.Fatalf("c start = %v", p.SectionStart)
	}
	if p := mustPlayer(t, s, "d"); !almostEqual(p.SectionStart, 2.0/3) {
		t.Fatalf("d start = %v", p.SectionStart)
	}
}

func TestLastPlayerStanding(t *testing.T) {
	s := withPlayers("P1", "P2")
	s = Reduce(s, DecrementHealth{ID: "b", Mode: models.RedistributeAdjacent})

	winner, ok := s.Winner()
	if !ok || winner.ID != "a" {
		t.Fatalf("winner = %+v, %v", winner, ok)
	}
	if !almostEqual(winner.SectionLength, 1) || !almostEqual(winner.SectionStart, 0) {
		t.Fatalf("survivor = start %v len %v", winner.SectionStart, winner.SectionLength)
	}
}

func TestAdjacencyFollowsInsertionOrder(t *testing.T) {
	// 打乱视觉顺序：a 在 0.5，b 在 0，c 在 0.75，d 在 0.25
	s := withPlayers("P1", "P2", "P3", "P4")
	s = Reduce(s, SetSections{Sections: []SectionUpdate{
		{ID: "a", SectionStart: 0.5, SectionLength: 0.25},
		{ID: "b", SectionStart: 0, SectionLength: 0.25},
		{ID: "c", SectionStart: 0.75, SectionLength: 0.25},
		{ID: "d", SectionStart: 0.25, SectionLength: 0.25},
	}})

	// 按加入顺序 b 的邻居是 a 和 c，而不是视觉上相邻的 d
	s = Reduce(s, DecrementHealth{ID: "b", Mode: models.RedistributeAdjacent})

	if p := mustPlayer(t, s, "a"); !almostEqual(p.SectionLength, 0.375) {
		t.Fatalf("a length = %v, want 0.375", p.SectionLength)
	}
	if p := mustPlayer(t, s, "c"); !almostEqual(p.SectionLength, 0.375) {
		t.Fatalf("c length = %v, want 0.375", p.SectionLength)
	}
	if p := mustPlayer(t, s, "d"); !almostEqual(p.SectionLength, 0.25) {
		t.Fatalf("d length = %v, want 0.25", p.SectionLength)
	}
	// 按起点排序：d(0.25) a c，锚点为 d
	if p := mustPlayer(t, s, "a"); !almostEqual(p.SectionStart, 0.5) {
		t.Fatalf("a start = %v", p.SectionStart)
	}
	if p := mustPlayer(t, s, "c"); !almostEqual(p.SectionStart, 0.875) {
		t.Fatalf("c start = %v", p.SectionStart)
	}
	checkOwnership(t, s, "insertion-order adjacency")
}

func TestDecrementNoOps(t *testing.T) {
	s := withPlayers("P1", "P2", "P3")
	s = Reduce(s, DecrementHealth{ID: "b", Mode: models.RedistributeAdjacent})

	cases := map[string]DecrementHealth{
		"unknown":    {ID: "zzz", Mode: models.RedistributeAdjacent},
		"eliminated": {ID: "b", Mode: models.RedistributeAdjacent},
	}
	for name, action := range cases {
		t.Run(name, func(t *testing.T) {
			next := Reduce(s, action)
			for i := range s.Players {
				before, after := s.Players[i], next.Players[i]
				if before.Health != after.Health || before.SectionLength != after.SectionLength {
					t.Fatalf("player %s changed: %+v -> %+v", before.ID, before, after)
				}
			}
		})
	}
}

func TestEliminationOrderAndRerank(t *testing.T) {
	s := withPlayers("P1", "P2", "P3", "P4")
	s = Reduce(s, DecrementHealth{ID: "c", Mode: models.RedistributeEqual})
	s = Reduce(s, DecrementHealth{ID: "a", Mode: models.RedistributeEqual})

	if o := mustPlayer(t, s, "c").EliminationOrder; o == nil || *o != 1 {
		t.Fatalf("c order = %v, want 1", o)
	}
	if o := mustPlayer(t, s, "a").EliminationOrder; o == nil || *o != 2 {
		t.Fatalf("a order = %v, want 2", o)
	}

	s = Reduce(s, RemovePlayer{ID: "c"})
	if o := mustPlayer(t, s, "a").EliminationOrder; o == nil || *o != 1 {
		t.Fatalf("a order after removal = %v, want 1", o)
	}
	// 移除后颜色按新顺序重新分配
	if p := mustPlayer(t, s, "d"); p.Color != palette[2] {
		t.Fatalf("d color = %s, want %s", p.Color, palette[2])
	}
}

func TestRenameKeepsSections(t *testing.T) {
	s := withPlayers("P1", "P2")
	next := Reduce(s, RenamePlayer{ID: "b", Name: "Bob"})

	if p := mustPlayer(t, next, "b"); p.Name != "Bob" || p.SectionStart != 0.5 {
		t.Fatalf("rename result = %+v", p)
	}
}

func TestSetAllHealthSkipsEliminated(t *testing.T) {
	s := withPlayers("P1", "P2", "P3")
	s = Reduce(s, DecrementHealth{ID: "a", Mode: models.RedistributeAdjacent})
	s = Reduce(s, SetAllHealth{Health: 0})

	if p := mustPlayer(t, s, "a"); p.Health != 0 {
		t.Fatalf("eliminated player health = %d", p.Health)
	}
	if p := mustPlayer(t, s, "b"); p.Health != 1 {
		t.Fatalf("health floor = %d, want 1", p.Health)
	}
}

func TestResetHealthRevivesEveryone(t *testing.T) {
	s := withPlayers("P1", "P2", "P3")
	s = Reduce(s, DecrementHealth{ID: "a", Mode: models.RedistributeAdjacent})
	s = Reduce(s, ResetHealth{Health: 5})

	for i, p := range s.Players {
		if p.IsEliminated || p.EliminationOrder != nil || p.Health != 5 {
			t.Fatalf("player %s not reset: %+v", p.ID, p)
		}
		if !almostEqual(p.SectionStart, float64(i)/3) {
			t.Fatalf("player %s start = %v", p.ID, p.SectionStart)
		}
	}
}
