package options

import (
	"math"
	"sync"

	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

// Executor runs tasks concurrently. Submit returns false when the task was
// not accepted, in which case the engine runs it inline.
type Executor interface {
	Submit(task func()) bool
}

// Engine evaluates strategies under a fixed set of Settings.
type Engine struct {
	settings Settings
	exec     Executor
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithExecutor spreads grid evaluation over exec. Results are identical to
// the sequential form.
func WithExecutor(exec Executor) EngineOption {
	return func(e *Engine) {
		e.exec = exec
	}
}

// NewEngine creates an engine. Zero-valued settings fields fall back to
// DefaultSettings, except RiskFreeRate which may legitimately be zero.
func NewEngine(settings Settings, opts ...EngineOption) *Engine {
	def := DefaultSettings()
	if settings.DefaultIV <= 0 {
		settings.DefaultIV = def.DefaultIV
	}
	if settings.MetricsDefaultIV <= 0 {
		settings.MetricsDefaultIV = def.MetricsDefaultIV
	}
	if settings.Multiplier <= 0 {
		settings.Multiplier = def.Multiplier
	}
	if settings.NearBreakevenThreshold <= 0 {
		settings.NearBreakevenThreshold = def.NearBreakevenThreshold
	}
	if settings.MinTimeToExpiry <= 0 {
		settings.MinTimeToExpiry = def.MinTimeToExpiry
	}
	if settings.MetricsRangePercent <= 0 {
		settings.MetricsRangePercent = def.MetricsRangePercent
	}
	if settings.MetricsSteps < 2 {
		settings.MetricsSteps = def.MetricsSteps
	}
	if settings.BreakevenRangePercent <= 0 {
		settings.BreakevenRangePercent = def.BreakevenRangePercent
	}
	if settings.BreakevenSteps < 2 {
		settings.BreakevenSteps = def.BreakevenSteps
	}
	if settings.SensitivityRangePercent <= 0 {
		settings.SensitivityRangePercent = def.SensitivityRangePercent
	}
	if settings.SensitivitySteps < 2 {
		settings.SensitivitySteps = def.SensitivitySteps
	}

	e := &Engine{settings: settings}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the engine's effective settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Market builds a MarketContext using the configured risk-free rate.
func (e *Engine) Market(spot float64, daysToExpiry int) models.MarketContext {
	return models.MarketContext{
		CurrentSpot:  spot,
		DaysToExpiry: daysToExpiry,
		RiskFreeRate: e.settings.RiskFreeRate,
	}
}

// Validate reports the recoverable "no data" conditions for a computation.
// The engine itself never needs this; its outputs simply degenerate.
func (e *Engine) Validate(legs []models.StrategyLeg, market models.MarketContext) error {
	var errs []error
	if len(legs) == 0 {
		errs = append(errs, apperrors.ErrEmptyStrategy)
	}
	if !(market.CurrentSpot > 0) {
		errs = append(errs, apperrors.ErrInvalidSpot)
	}
	if market.DaysToExpiry < 0 {
		errs = append(errs, apperrors.NewValidationError("days_to_expiry", market.DaysToExpiry, "must not be negative"))
	}
	for i, leg := range legs {
		if !(leg.Strike > 0) {
			errs = append(errs, apperrors.NewLegError(leg.ID, i,
				apperrors.NewValidationError("strike", leg.Strike, "must be positive")))
		}
		if leg.Quantity <= 0 {
			errs = append(errs, apperrors.NewLegError(leg.ID, i,
				apperrors.NewValidationError("quantity", leg.Quantity, "must be positive")))
		}
		if math.IsNaN(leg.Premium) {
			errs = append(errs, apperrors.NewLegError(leg.ID, i,
				apperrors.NewValidationError("premium", leg.Premium, "must be a number")))
		}
	}
	return apperrors.Join(errs...)
}

// parallelFor runs fn(i) for every i in [0, n), on the executor when one is
// configured. It returns once every call has finished.
func (e *Engine) parallelFor(n int, fn func(i int)) {
	if e.exec == nil || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		task := func() {
			defer wg.Done()
			fn(i)
		}
		if !e.exec.Submit(task) {
			task()
		}
	}
	wg.Wait()
}
