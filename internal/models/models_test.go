package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

const eps = 1e-9

func TestNormalize(t *testing.T) {
	n, ok := Vector2D{X: 3, Y: 4}.Normalize()
	if !ok || math.Abs(n.X-0.6) > eps || math.Abs(n.Y-0.8) > eps {
		t.Fatalf("Normalize = %+v, %v", n, ok)
	}
	if _, ok := (Vector2D{}).Normalize(); ok {
		t.Fatalf("zero vector normalized")
	}
	if _, ok := (Vector2D{X: math.NaN()}).Normalize(); ok {
		t.Fatalf("NaN vector normalized")
	}
}

func TestRotate(t *testing.T) {
	r := Vector2D{X: 1}.Rotate(90)
	if math.Abs(r.X) > eps || math.Abs(r.Y-1) > eps {
		t.Fatalf("Rotate(90) = %+v", r)
	}
	if l := (Vector2D{X: 3, Y: 4}).Rotate(37).Length(); math.Abs(l-5) > eps {
		t.Fatalf("rotation changed length: %v", l)
	}
}

func TestSetDirection(t *testing.T) {
	logo := LogoState{Direction: DefaultDirection()}
	before := logo.Direction
	if logo.SetDirection(Vector2D{}) || logo.Direction != before {
		t.Fatalf("zero direction accepted")
	}
	if !logo.SetDirection(Vector2D{X: -2}) || logo.Direction != (Vector2D{X: -1}) {
		t.Fatalf("direction = %+v", logo.Direction)
	}
	if l := DefaultDirection().Length(); math.Abs(l-1) > eps {
		t.Fatalf("default direction length = %v", l)
	}
}

func TestSettingsClamp(t *testing.T) {
	s := Settings{
		AngleVariance:      150,
		PlayerHealth:       0,
		LogoSpeed:          0.2,
		RotationSpeed:      -1,
		RedistributionMode: "random",
	}.Clamp()

	want := Settings{
		AngleVariance:      100,
		PlayerHealth:       1,
		LogoSpeed:          1,
		RotationSpeed:      0,
		RedistributionMode: RedistributeAdjacent,
	}
	if s != want {
		t.Fatalf("Clamp = %+v, want %+v", s, want)
	}
}

func TestSettingsPatchApply(t *testing.T) {
	variance := -5.0
	mode := RedistributeEqual
	image := "logo.png"

	s := SettingsPatch{
		AngleVariance:      &variance,
		RedistributionMode: &mode,
		LogoImage:          &image,
	}.Apply(DefaultSettings())

	if s.AngleVariance != 0 || s.RedistributionMode != RedistributeEqual || s.LogoImage != image {
		t.Fatalf("Apply = %+v", s)
	}
	if s.PlayerHealth != 3 || s.LogoSpeed != 3 {
		t.Fatalf("unset fields changed: %+v", s)
	}
}

func TestPlayerClone(t *testing.T) {
	order := 2
	p := Player{ID: "a", IsEliminated: true, EliminationOrder: &order}
	c := p.Clone()
	*c.EliminationOrder = 5
	if *p.EliminationOrder != 2 {
		t.Fatalf("clone shares elimination order")
	}

	active := ActivePlayers([]Player{p, {ID: "b"}, {ID: "c"}})
	if len(active) != 2 || active[0].ID != "b" || active[1].ID != "c" {
		t.Fatalf("ActivePlayers = %+v", active)
	}
}

func TestSettingsRejectNonFinite(t *testing.T) {
	clamped := Settings{
		AngleVariance:      math.NaN(),
		PlayerHealth:       3,
		LogoSpeed:          math.Inf(1),
		RotationSpeed:      math.Inf(-1),
		RedistributionMode: RedistributeEqual,
	}.Clamp()
	defaults := DefaultSettings()
	if clamped.AngleVariance != defaults.AngleVariance ||
		clamped.LogoSpeed != defaults.LogoSpeed ||
		clamped.RotationSpeed != defaults.RotationSpeed {
		t.Fatalf("Clamp = %+v", clamped)
	}

	current := DefaultSettings()
	current.LogoSpeed = 7
	nan, inf := math.NaN(), math.Inf(1)
	patched := SettingsPatch{LogoSpeed: &nan, AngleVariance: &inf, RotationSpeed: &nan}.Apply(current)
	if patched != current {
		t.Fatalf("non-finite patch changed settings: %+v", patched)
	}
}

func TestDamageEventKeepsZeroHealth(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventDamage, PlayerID: "a", Health: 0})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"health":0`) {
		t.Fatalf("health missing from %s", data)
	}
}
