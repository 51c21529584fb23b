// Package integration provides end-to-end tests across the chain loader,
// session store, configuration and analytics engine.
package integration

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"options-strategizer/internal/analysis/options"
	"options-strategizer/internal/config"
	"options-strategizer/internal/marketdata"
	"options-strategizer/internal/models"
	"options-strategizer/internal/performance"
	"options-strategizer/internal/store"
)

const chainCSV = `strike,type,bid,ask,last,volume,open_interest,iv,delta,gamma,theta,vega,vanna,charm
90,put,0.70,0.90,0.80,120,4000,0.44,-0.15,0.02,-0.03,0.06,0.00,0.000
95,put,1.80,2.00,1.90,300,6000,0.42,-0.28,0.03,-0.04,0.09,0.00,0.000
100,call,4.80,5.20,5.00,900,12000,0.40,0.55,0.04,-0.08,0.12,0.00,0.001
100,put,3.90,4.10,4.00,700,9000,0.40,-0.45,0.04,-0.06,0.12,0.00,0.001
105,call,2.60,2.80,2.70,500,8000,0.38,0.38,0.035,-0.07,0.11,0.01,0.001
110,call,1.10,1.30,1.20,300,5000,0.37,0.25,0.03,-0.05,0.09,0.01,0.002
`

// TestEndToEndWorkflow builds an iron-condor-like strategy from chain
// quotes, keeps it in the session store and analyzes snapshots of it.
func TestEndToEndWorkflow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chain, err := marketdata.LoadChainCSV(strings.NewReader(chainCSV), "ggal", 100)
	if err != nil {
		t.Fatalf("LoadChainCSV: %v", err)
	}

	st, err := store.NewSessionStore()
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer st.Close()

	if err := st.SetMarket(ctx, models.MarketContext{Ticker: chain.Ticker, CurrentSpot: chain.SpotPrice, DaysToExpiry: 30, RiskFreeRate: 0.26}); err != nil {
		t.Fatalf("SetMarket: %v", err)
	}

	picks := []struct {
		strike float64
		t      models.OptionType
		side   models.PositionSide
	}{
		{90, models.OptionPut, models.SideLong},
		{95, models.OptionPut, models.SideShort},
		{105, models.OptionCall, models.SideShort},
		{110, models.OptionCall, models.SideLong},
	}
	for _, p := range picks {
		leg, err := marketdata.LegFromQuote(chain, p.strike, p.t, p.side, 1)
		if err != nil {
			t.Fatalf("LegFromQuote(%v %s): %v", p.strike, p.t, err)
		}
		if _, err := st.AddLeg(ctx, leg); err != nil {
			t.Fatalf("AddLeg: %v", err)
		}
	}

	legs, err := st.Legs(ctx)
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	market, err := st.Market(ctx)
	if err != nil {
		t.Fatalf("Market: %v", err)
	}

	pool := performance.NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()
	engine := options.NewEngine(options.DefaultSettings(), options.WithExecutor(pool))

	m := engine.ComputeMetrics(legs, market)

	// Credit: short 95P bid 1.80 + short 105C bid 2.60 - long 90P ask 0.90 - long 110C ask 1.30.
	if got, want := m.NetCost, -(1.80+2.60-0.90-1.30)*100; !near(got, want, 1e-9) {
		t.Errorf("net cost = %v, want %v", got, want)
	}
	if len(m.Breakevens) != 2 {
		t.Fatalf("breakevens = %v, want two", m.Breakevens)
	}
	if !near(m.Breakevens[0], 92.8, 0.01) || !near(m.Breakevens[1], 107.2, 0.01) {
		t.Errorf("breakevens = %v, want about 92.8 and 107.2", m.Breakevens)
	}
	if m.Bounds.UnlimitedProfit || m.Bounds.UnlimitedLoss {
		t.Errorf("condor bounds = %+v, want bounded", m.Bounds)
	}
	if !(m.ProbabilityOfProfit > 0 && m.ProbabilityOfProfit < 1) {
		t.Errorf("pop = %v", m.ProbabilityOfProfit)
	}

	// Mutating the store must not change an earlier snapshot or its results.
	before := models.CloneLegs(legs)
	if err := st.UpdateQuantity(ctx, legs[0].ID, 5); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if err := st.RemoveLeg(ctx, legs[3].ID); err != nil {
		t.Fatalf("RemoveLeg: %v", err)
	}
	if !reflect.DeepEqual(legs, before) {
		t.Error("snapshot changed after store mutation")
	}
	if again := engine.ComputeMetrics(legs, market); !reflect.DeepEqual(again, m) {
		t.Errorf("metrics over the old snapshot changed: %+v vs %+v", again, m)
	}

	after, err := st.Legs(ctx)
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if len(after) != 3 || after[0].Quantity != 5 {
		t.Errorf("store after mutation = %+v", after)
	}
}

// TestConcurrentSensitivity evaluates the same snapshot from many
// goroutines through a shared pool; every result must equal the
// sequential table.
func TestConcurrentSensitivity(t *testing.T) {
	legs := []models.StrategyLeg{
		{Type: models.OptionCall, Side: models.SideLong, Strike: 100, Premium: 5, Quantity: 1, ImpliedVolatility: models.Float(0.4)},
		{Type: models.OptionPut, Side: models.SideLong, Strike: 100, Premium: 4, Quantity: 1},
	}
	market := models.MarketContext{CurrentSpot: 100, DaysToExpiry: 45, RiskFreeRate: 0.26}

	want := options.NewEngine(options.DefaultSettings()).SensitivityTable(legs, market, 25, 51)

	pool := performance.NewWorkerPool(3)
	pool.Start()
	defer pool.Stop()
	engine := options.NewEngine(options.DefaultSettings(), options.WithExecutor(pool))

	const goroutines = 8
	results := make([][]models.SensitivityScenario, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.SensitivityTable(legs, market, 25, 51)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !reflect.DeepEqual(got, want) {
			t.Errorf("goroutine %d: table differs from the sequential one", i)
		}
	}
	if stats := pool.Stats(); stats.TasksTotal == 0 {
		t.Error("pool never received a task")
	}
}

// TestConfigDrivenAnalysis runs the example strategy through an engine
// built from a loaded configuration.
func TestConfigDrivenAnalysis(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STRATEGIZER_RISK_FREE_RATE", "0.05")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(dir, "spread.toml")
	if err := config.WriteStrategyTemplate(path); err != nil {
		t.Fatalf("WriteStrategyTemplate: %v", err)
	}
	s, err := cfg.LoadStrategy(path)
	if err != nil {
		t.Fatalf("LoadStrategy: %v", err)
	}
	if s.Market.RiskFreeRate != 0.05 {
		t.Errorf("strategy rate = %v, want the env override 0.05", s.Market.RiskFreeRate)
	}

	engine := options.NewEngine(cfg.EngineSettings())
	if err := engine.Validate(s.Legs, s.Market); err != nil {
		t.Errorf("Validate: %v", err)
	}
	m := engine.ComputeMetrics(s.Legs, s.Market)
	if !near(m.NetCost, 300, 1e-9) || !near(m.MaxProfitInRange, 700, 1e-6) {
		t.Errorf("metrics = %+v", m)
	}
	if len(m.Breakevens) != 1 || !near(m.Breakevens[0], 103, 0.5) {
		t.Errorf("breakevens = %v, want [103]", m.Breakevens)
	}
}

func near(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
