package options

import (
	"testing"

	"options-strategizer/internal/models"
)

func TestSpotRange(t *testing.T) {
	grid := SpotRange(100, 50, 101)
	if len(grid) != 101 {
		t.Fatalf("len = %d, want 101", len(grid))
	}
	if grid[0] != 50 || grid[100] != 150 {
		t.Errorf("endpoints = %v, %v, want 50, 150", grid[0], grid[100])
	}
	for i := 1; i < len(grid); i++ {
		if !almostEqual(grid[i]-grid[i-1], 1, 1e-9) {
			t.Fatalf("uneven step at %d: %v", i, grid[i]-grid[i-1])
		}
	}
}

func TestSpotRange_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		center float64
		steps  int
		want   int
	}{
		{"zero center", 0, 10, 0},
		{"negative center", -5, 10, 0},
		{"zero steps", 100, 0, 0},
		{"single step", 100, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpotRange(tt.center, 20, tt.steps); len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestPayoffAtExpiration_Scenarios(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		legs []models.StrategyLeg
		spot float64
		want float64
	}{
		{"long call ITM", []models.StrategyLeg{longCall(100, 5)}, 110, 500},
		{"long call OTM", []models.StrategyLeg{longCall(100, 5)}, 90, -500},
		{"long put ITM", []models.StrategyLeg{longPut(100, 5)}, 90, 500},
		{"long put OTM", []models.StrategyLeg{longPut(100, 5)}, 110, -500},
		{"short call OTM", []models.StrategyLeg{shortCall(110, 2)}, 100, 200},
		{"bull call spread above both", bullCallSpread(), 115, 700},
		{"bull call spread below both", bullCallSpread(), 90, -300},
		{"two contracts", []models.StrategyLeg{leg(models.OptionCall, models.SideLong, 100, 5, 2)}, 110, 1000},
		{"venta shorthand", []models.StrategyLeg{leg("V", "LONG", 100, 5, 1)}, 90, 500},
		{"empty strategy", nil, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.PayoffAtExpiration(tt.legs, []float64{tt.spot})
			if !almostEqual(got[0], tt.want, 1e-9) {
				t.Errorf("payoff = %v, want %v", got[0], tt.want)
			}
		})
	}
}

func TestPayoffAtExpiration_PreservesOrder(t *testing.T) {
	e := newTestEngine()
	spots := []float64{120, 80, 105}
	got := e.PayoffAtExpiration([]models.StrategyLeg{longCall(100, 5)}, spots)
	want := []float64{1500, -500, 0}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-9) {
			t.Errorf("payoff[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPayoffAtExpiration_LongCallTails(t *testing.T) {
	e := newTestEngine()
	grid := SpotRange(100, 100, 201)
	payoff := e.PayoffAtExpiration([]models.StrategyLeg{longCall(100, 5)}, grid)

	for i := 1; i < len(payoff); i++ {
		if payoff[i] < payoff[i-1] {
			t.Fatalf("payoff decreases at %v", grid[i])
		}
		if grid[i] < 100 && payoff[i] != -500 {
			t.Fatalf("payoff below strike = %v at %v, want -500", payoff[i], grid[i])
		}
	}
}

func TestNetCost(t *testing.T) {
	e := newTestEngine()
	if got := e.NetCost(bullCallSpread()); !almostEqual(got, 300, 1e-9) {
		t.Errorf("bull spread net cost = %v, want 300", got)
	}
	credit := []models.StrategyLeg{shortCall(110, 2)}
	if got := e.NetCost(credit); !almostEqual(got, -200, 1e-9) {
		t.Errorf("short call net cost = %v, want -200", got)
	}
}

func TestPayoffAtExpiration_NonCanonicalLegs(t *testing.T) {
	e := newTestEngine()
	raw := []models.StrategyLeg{
		leg(models.OptionType(" CALL "), models.PositionSide("buy"), 100, 5, 1),
		leg(models.OptionType("V"), models.PositionSide("SELL"), 95, 2, 1),
	}
	want := []models.StrategyLeg{
		leg(models.OptionCall, models.SideLong, 100, 5, 1),
		leg(models.OptionPut, models.SideShort, 95, 2, 1),
	}
	grid := SpotRange(100, 20, 9)

	got := e.PayoffAtExpiration(raw, grid)
	expected := e.PayoffAtExpiration(want, grid)
	for i := range grid {
		if got[i] != expected[i] {
			t.Errorf("payoff at %v = %v, want %v", grid[i], got[i], expected[i])
		}
	}
	if raw[0].Type != " CALL " || raw[1].Side != "SELL" {
		t.Error("caller legs were rewritten")
	}
}

func TestCanonical_ReturnsInputWhenAlreadyCanonical(t *testing.T) {
	legs := straddle()
	if out := canonical(legs); &out[0] != &legs[0] {
		t.Error("canonical legs should not be copied")
	}
	mixed := []models.StrategyLeg{longCall(100, 5), leg("Put", "Short", 95, 2, 1)}
	out := canonical(mixed)
	if &out[0] == &mixed[0] {
		t.Fatal("non-canonical legs should be copied")
	}
	if out[1].Type != models.OptionPut || out[1].Side != models.SideShort {
		t.Errorf("normalised leg = %s %s", out[1].Side, out[1].Type)
	}
}

func BenchmarkPayoffAtExpiration(b *testing.B) {
	e := newTestEngine()
	legs := bullCallSpread()
	grid := SpotRange(100, 100, 400)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.PayoffAtExpiration(legs, grid)
	}
}
