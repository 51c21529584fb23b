package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"options-strategizer/internal/analysis/options"
	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

const testConfig = `
[performance]
workers = 2

[log]
level = "error"

[ui]
color_enabled = false
`

const bullCallSpread = `
[market]
ticker = "GGAL"
spot = 100
days_to_expiry = 30

[[legs]]
type = "call"
side = "long"
strike = 100
premium = 5

[[legs]]
type = "call"
side = "short"
strike = 110
premium = 2
`

const chainCSV = `strike,type,bid,ask,last,volume,open_interest,iv,delta,gamma,theta,vega,vanna,charm
110,call,1.10,1.30,1.20,300,5000,0.38,0.25,0.03,-0.05,0.09,0.01,0.002
100,call,4.80,5.20,5.00,900,12000,0.40,0.55,0.04,-0.08,0.12,0.00,0.001
100,put,3.90,4.10,4.00,700,9000,0.42,-0.45,0.04,-0.06,0.12,0.00,0.001
90,V,0.00,0.00,0.60,50,800,0.45,-0.10,0.01,-0.02,0.04,0.00,0.000
`

func newTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", testConfig)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(zerolog.Nop())
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, dir string, v interface{}, args ...string) {
	t.Helper()
	out, err := run(t, dir, "", append(args, "--json")...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("%v: decoding %q: %v", args, out, err)
	}
}

func TestVersionCommand(t *testing.T) {
	dir := newTestDir(t)
	var v map[string]string
	runJSON(t, dir, &v, "version")
	if v["version"] != Version {
		t.Errorf("version = %q, want %q", v["version"], Version)
	}

	out, err := run(t, dir, "", "version")
	if err != nil || !strings.Contains(out, "Options Strategizer v"+Version) {
		t.Errorf("version text = %q, %v", out, err)
	}
}

func TestPriceCommand(t *testing.T) {
	dir := newTestDir(t)

	var g models.GreeksResult
	runJSON(t, dir, &g, "price", "--spot", "100", "--strike", "100", "--days", "30",
		"--iv", "0.2", "--type", "call", "--rate", "0.05")
	want := options.Price(100, 100, 30.0/365.0, 0.05, 0.2, models.OptionCall)
	if g != want {
		t.Errorf("price = %+v, want %+v", g, want)
	}

	var expired models.GreeksResult
	runJSON(t, dir, &expired, "price", "--spot", "100", "--strike", "105", "--days", "0", "--type", "put")
	if expired.Price != 5 || expired.Delta != 0 {
		t.Errorf("expired put = %+v, want intrinsic 5 and zero Greeks", expired)
	}

	out, err := run(t, dir, "", "price", "--spot", "100", "--strike", "100", "--type", "p")
	if err != nil || !strings.Contains(out, "PUT 100.00") || !strings.Contains(out, "Delta:") {
		t.Errorf("price text = %q, %v", out, err)
	}

	if _, err := run(t, dir, "", "price", "--spot", "100", "--strike", "100", "--type", "future"); !errors.Is(err, apperrors.ErrInvalidOptionType) {
		t.Errorf("bad type err = %v, want ErrInvalidOptionType", err)
	}
}

func TestMetricsCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "spread.toml", bullCallSpread)

	var m models.StrategyMetrics
	runJSON(t, dir, &m, "metrics", "-f", path)
	if m.NetCost != 300 {
		t.Errorf("net cost = %v, want 300", m.NetCost)
	}
	if math.Abs(m.MaxProfitInRange-700) > 1e-9 || math.Abs(m.MaxLossInRange+300) > 1e-9 {
		t.Errorf("range extremes = %v / %v, want 700 / -300", m.MaxProfitInRange, m.MaxLossInRange)
	}
	if len(m.Breakevens) != 1 || math.Abs(m.Breakevens[0]-103) > 0.5 {
		t.Errorf("breakevens = %v, want [103]", m.Breakevens)
	}
	if m.NetDelta != 0 || m.Bounds.UnlimitedProfit || m.Bounds.UnlimitedLoss {
		t.Errorf("metrics = %+v, want no feed Greeks and bounded payoff", m)
	}

	var recomputed models.StrategyMetrics
	runJSON(t, dir, &recomputed, "metrics", "-f", path, "--recompute-greeks")
	if !(recomputed.NetDelta > 0) {
		t.Errorf("recomputed net delta = %v, want positive for a bull spread", recomputed.NetDelta)
	}

	out, err := run(t, dir, "", "metrics", "-f", path)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	for _, want := range []string{"Net debit:", "$300.00", "103.", "long"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics text missing %q:\n%s", want, out)
		}
	}
}

func TestPayoffCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "spread.toml", bullCallSpread)

	var points []payoffPoint
	runJSON(t, dir, &points, "payoff", "-f", path, "--range", "10", "--steps", "3")
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	want := []float64{-300, -300, 700}
	for i, p := range points {
		if math.Abs(p.PnL-want[i]) > 1e-9 {
			t.Errorf("point %d = %+v, want pnl %v", i, p, want[i])
		}
	}
	if math.Abs(points[0].Spot-90) > 1e-9 || math.Abs(points[2].ChangePercent-10) > 1e-9 {
		t.Errorf("grid = %+v", points)
	}
}

func TestBreakevensCommand_SpotOverride(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "spread.toml", bullCallSpread)

	var res map[string][]float64
	runJSON(t, dir, &res, "breakevens", "-f", path)
	if len(res["breakevens"]) != 1 {
		t.Errorf("breakevens = %v, want one", res["breakevens"])
	}

	// Searching around 40 covers (0, 80], which the payoff never crosses.
	var moved map[string][]float64
	runJSON(t, dir, &moved, "breakevens", "-f", path, "--spot", "40")
	if got, ok := moved["breakevens"]; !ok || len(got) != 0 {
		t.Errorf("breakevens around 40 = %v, want empty", got)
	}
}

func TestPopCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "straddle.toml", `
[market]
spot = 100
days_to_expiry = 30

[[legs]]
type = "call"
side = "long"
strike = 100
premium = 5
iv = 0.4

[[legs]]
type = "put"
side = "long"
strike = 100
premium = 4
iv = 0.4
`)

	var plain popResult
	runJSON(t, dir, &plain, "pop", "-f", path)
	if !(plain.ProbabilityOfProfit > 0 && plain.ProbabilityOfProfit < 1) || plain.IV != 0.4 {
		t.Errorf("pop = %+v", plain)
	}

	var part popResult
	runJSON(t, dir, &part, "pop", "-f", path, "--partitioned", "--iv", "0.3")
	if !part.Partitioned || part.IV != 0.3 || !(part.ProbabilityOfProfit > 0 && part.ProbabilityOfProfit < 1) {
		t.Errorf("partitioned pop = %+v", part)
	}
}

func TestSensitivityCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "spread.toml", bullCallSpread)

	var rows []models.SensitivityScenario
	runJSON(t, dir, &rows, "sensitivity", "-f", path, "--steps", "5")
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	current := 0
	for _, r := range rows {
		if r.IsCurrentPrice {
			current++
			if r.SpotPrice != 100 {
				t.Errorf("current row at %v, want 100", r.SpotPrice)
			}
		}
	}
	if current != 1 {
		t.Errorf("current rows = %d, want 1", current)
	}

	out, err := run(t, dir, "", "sensitivity", "-f", path)
	if err != nil || !strings.Contains(out, "◀ spot") || !strings.Contains(out, "HALF LIFE") {
		t.Errorf("sensitivity text = %q, %v", out, err)
	}
}

func TestStrategyCommandErrors(t *testing.T) {
	dir := newTestDir(t)

	if _, err := run(t, dir, "", "metrics"); err == nil {
		t.Error("missing --file should fail")
	}
	bad := writeFile(t, dir, "bad.toml", `
[[legs]]
type = "call"
side = "sideways"
strike = 100
`)
	if _, err := run(t, dir, "", "metrics", "-f", bad); !errors.Is(err, apperrors.ErrInvalidSide) {
		t.Errorf("bad side err = %v, want ErrInvalidSide", err)
	}
}

func TestEmptyStrategyDegenerates(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "empty.toml", "[market]\nspot = 100\n")

	var m models.StrategyMetrics
	runJSON(t, dir, &m, "metrics", "-f", path)
	if m.NetCost != 0 || m.ProbabilityOfProfit != 0 || len(m.Breakevens) != 0 {
		t.Errorf("empty metrics = %+v, want zero values", m)
	}
}

func TestChainExposureCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "ggal.csv", chainCSV)

	var p models.ExposureProfile
	runJSON(t, dir, &p, "chain", "exposure", "--chain", path, "--spot", "100")
	// At spot 100 each contract's GEX is gamma x OI x 0.01.
	if math.Abs(p.NetGEX-2.62) > 1e-9 {
		t.Errorf("net GEX = %v, want 2.62", p.NetGEX)
	}
	if p.MaxPain == nil || *p.MaxPain != 100 {
		t.Errorf("max pain = %v, want 100", p.MaxPain)
	}
	if len(p.Strikes) != 3 {
		t.Errorf("strikes = %d, want 3", len(p.Strikes))
	}

	out, err := run(t, dir, "", "chain", "exposure", "--chain", path, "--spot", "100", "--ticker", "ggal")
	if err != nil || !strings.Contains(out, "GGAL exposure") || !strings.Contains(out, "Max pain:   100.00") {
		t.Errorf("exposure text = %q, %v", out, err)
	}

	if _, err := run(t, dir, "", "chain", "exposure", "--chain", path); !errors.Is(err, apperrors.ErrInvalidSpot) {
		t.Errorf("missing spot err = %v, want ErrInvalidSpot", err)
	}
}

func TestChainLegCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "ggal.csv", chainCSV)

	var leg models.StrategyLeg
	runJSON(t, dir, &leg, "chain", "leg", "--chain", path, "--spot", "100", "--strike", "100", "--type", "call", "--side", "long", "--qty", "2")
	if leg.Premium != 5.20 || leg.Quantity != 2 || leg.Delta == nil || *leg.Delta != 0.55 {
		t.Errorf("leg = %+v", leg)
	}

	out, err := run(t, dir, "", "chain", "leg", "--chain", path, "--spot", "100", "--strike", "100", "--type", "put", "--side", "short")
	if err != nil {
		t.Fatalf("chain leg: %v", err)
	}
	for _, want := range []string{"[[legs]]", `side = "short"`, "premium = 3.9", "iv = 0.42"} {
		if !strings.Contains(out, want) {
			t.Errorf("leg TOML missing %q:\n%s", want, out)
		}
	}

	// The printed entry is a valid strategy file on its own.
	strategy := writeFile(t, dir, "from-chain.toml", "[market]\nspot = 100\n"+out)
	var m models.StrategyMetrics
	runJSON(t, dir, &m, "metrics", "-f", strategy)
	if math.Abs(m.NetCost+390) > 1e-9 {
		t.Errorf("net cost = %v, want -390", m.NetCost)
	}

	if _, err := run(t, dir, "", "chain", "leg", "--chain", path, "--spot", "100", "--strike", "95"); !errors.Is(err, apperrors.ErrStrikeNotFound) {
		t.Errorf("missing strike err = %v, want ErrStrikeNotFound", err)
	}
}

func TestSessionCommand(t *testing.T) {
	dir := newTestDir(t)
	script := `
# bull call spread, then sized up on the short side
market 100 30
add call long 100 5 1 0.4
add call short 110 2
list
qty 2 3
remove 9
bogus
metrics
table
quit
add put long 90 1
`
	out, err := run(t, dir, script, "session")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	for _, want := range []string{
		"Market: spot 100.00, 30 days",
		"Added leg 1: long 1x 100.00 call @ $5.00",
		"Added leg 2: short 1x 110.00 call @ $2.00",
		"Leg 2 quantity set to 3",
		"leg 9: leg not found",
		`unknown command "bogus"`,
		"Net credit:",
		"$100.00",
		"◀ spot",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("session output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Added leg 3") {
		t.Error("commands after quit should not run")
	}
}

func TestSessionWithoutMarket(t *testing.T) {
	dir := newTestDir(t)
	out, err := run(t, dir, "add put long 95 3\nmetrics\n", "session")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if !strings.Contains(out, "market <spot> <days>") {
		t.Errorf("metrics without market should explain how to set one:\n%s", out)
	}
}

func TestSessionQuoteFromChain(t *testing.T) {
	dir := newTestDir(t)
	chain := writeFile(t, dir, "ggal.csv", chainCSV)

	out, err := run(t, dir, "quote 100 call long\nquote 110 call short\nlist\n", "session", "--chain", chain, "--spot", "100", "--ticker", "ggal")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	for _, want := range []string{"long 1x 100.00 call @ $5.20", "short 1x 110.00 call @ $1.10", "40.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("session output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "quote 100 call long\n", "session")
	if err != nil || !strings.Contains(out, "--chain") {
		t.Errorf("quote without chain = %q, %v", out, err)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := newTestDir(t)

	out, err := run(t, dir, "", "config", "path")
	if err != nil || strings.TrimSpace(out) != filepath.Join(dir, "config.toml") {
		t.Errorf("config path = %q, %v", out, err)
	}

	var cfg struct {
		Performance struct {
			Workers int `json:"workers"`
		} `json:"performance"`
		Engine struct {
			RiskFreeRate float64 `json:"risk_free_rate"`
		} `json:"engine"`
	}
	runJSON(t, dir, &cfg, "config", "show")
	if cfg.Performance.Workers != 2 || cfg.Engine.RiskFreeRate != 0.26 {
		t.Errorf("config show = %+v", cfg)
	}

	out, err = run(t, dir, "", "config", "validate")
	if err != nil || !strings.Contains(out, "Configuration is valid") {
		t.Errorf("config validate = %q, %v", out, err)
	}

	example := filepath.Join(dir, "example.toml")
	if _, err := run(t, dir, "", "config", "example", example); err != nil {
		t.Fatalf("config example: %v", err)
	}
	var m models.StrategyMetrics
	runJSON(t, dir, &m, "metrics", "-f", example)
	if m.NetCost != 300 {
		t.Errorf("example strategy net cost = %v, want 300", m.NetCost)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", "[grid]\nsensitivity_steps = 1\n")
	if _, err := run(t, dir, "", "version"); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("err = %v, want ErrConfigInvalid", err)
	}
}

func TestExamplesCommand(t *testing.T) {
	out, err := run(t, newTestDir(t), "", "examples")
	if err != nil || !strings.Contains(out, "strategizer session") {
		t.Errorf("examples = %q, %v", out, err)
	}
}

func TestGridFlagsRejectWideWindows(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "spread.toml", bullCallSpread)

	for _, args := range [][]string{
		{"payoff", "--range", "150"},
		{"payoff", "--range", "0"},
		{"sensitivity", "--range", "150"},
		{"sensitivity", "--steps", "0"},
	} {
		_, err := run(t, dir, "", append(args, "-f", path)...)
		if !errors.Is(err, apperrors.ErrInputValidation) {
			t.Errorf("%v: err = %v, want a validation error", args, err)
		}
	}

	// The widest accepted window bottoms out at zero.
	var points []payoffPoint
	runJSON(t, dir, &points, "payoff", "-f", path, "--range", "100", "--steps", "3")
	if len(points) != 3 || points[0].Spot != 0 || points[0].PnL != -300 {
		t.Errorf("points = %+v", points)
	}
}

func TestChainSmileCommand(t *testing.T) {
	dir := newTestDir(t)
	path := writeFile(t, dir, "ggal.csv", chainCSV)

	var points []models.SmilePoint
	runJSON(t, dir, &points, "chain", "smile", "--chain", path, "--spot", "100")
	want := []models.SmilePoint{
		{Strike: 90, IV: 0.45, Type: models.OptionPut},
		{Strike: 100, IV: 0.40, Type: models.OptionCall},
		{Strike: 100, IV: 0.42, Type: models.OptionPut},
		{Strike: 110, IV: 0.38, Type: models.OptionCall},
	}
	if len(points) != len(want) {
		t.Fatalf("smile = %+v", points)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}

	out, err := run(t, dir, "", "chain", "smile", "--chain", path, "--spot", "100")
	if err != nil {
		t.Fatalf("chain smile: %v", err)
	}
	for _, want := range []string{"CALL IV", "40.0%", "42.0%", "45.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("smile text missing %q:\n%s", want, out)
		}
	}
}

func TestChainImplausibleGreeks(t *testing.T) {
	dir := newTestDir(t)
	// The 100 put carries a positive delta and is left out of exposure.
	path := writeFile(t, dir, "bad.csv", `strike,type,bid,ask,last,volume,open_interest,iv,delta,gamma,theta,vega,vanna,charm
100,call,4.80,5.20,5.00,900,12000,0.40,0.55,0.04,-0.08,0.12,0.00,0.001
100,put,3.90,4.10,4.00,700,9000,0.42,0.45,0.04,-0.06,0.12,0.00,0.001
`)

	var p models.ExposureProfile
	runJSON(t, dir, &p, "chain", "exposure", "--chain", path, "--spot", "100")
	if p.InvalidQuotes != 1 || math.Abs(p.NetGEX-4.8) > 1e-9 {
		t.Errorf("profile = invalid %d, net GEX %v; want 1 and 4.8", p.InvalidQuotes, p.NetGEX)
	}

	out, err := run(t, dir, "", "chain", "exposure", "--chain", path, "--spot", "100")
	if err != nil || !strings.Contains(out, "1 quote(s) with implausible Greeks") {
		t.Errorf("exposure text = %q, %v", out, err)
	}

	var leg models.StrategyLeg
	runJSON(t, dir, &leg, "chain", "leg", "--chain", path, "--spot", "100", "--strike", "100", "--type", "put")
	if leg.Premium != 4.10 || leg.Delta != nil || leg.ImpliedVolatility != nil {
		t.Errorf("leg = %+v, want ask 4.10 without feed Greeks", leg)
	}
}
