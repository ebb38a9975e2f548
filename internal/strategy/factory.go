package strategy

import (
	"errors"
	"fmt"
	"strings"

	"intraday-exit-lab/internal/domain"
)

// Factory errors. All are fatal at assembly time; the engine never
// substitutes a default pipeline.
var (
	ErrNoExitStrategies          = errors.New("exitStrategies configuration is required")
	ErrUnknownStrategyName       = errors.New("unknown exit strategy name")
	ErrMissingStopLossOptions    = errors.New("stopLoss is enabled but has no options block")
	ErrMissingStopLossPercent    = errors.New("stopLoss requires a positive percentFromEntry")
	ErrMissingProfitTargetOptions = errors.New("profitTarget is enabled but has no options block")
	ErrMissingProfitTargetPercent = errors.New("profitTarget requires a positive percentFromEntry")
	ErrMissingTrailingStopOptions = errors.New("trailingStop is enabled but has no options block")
	ErrMissingTrailDistance      = errors.New("trailingStop requires trailPercent or trailAtrMultiplier")
	ErrInvalidMaxHoldMinutes     = errors.New("maxHoldTime requires a positive minutes value")
	ErrInvalidEndOfDayTime       = errors.New("endOfDay time must be HH:MM")
)

// FromConfig builds the ordered strategy pipeline from a validated
// configuration. Price-reactive strategies are instantiated in the order
// the enabled list names them; maxHoldTime and endOfDay names inside the
// list are skipped because those strategies are controlled by the
// base-level blocks, which are appended last when present. The resulting
// ordering guarantees time-based backstops never pre-empt price-reactive
// strategies.
func FromConfig(cfg *domain.BacktestConfig) ([]ExitStrategy, error) {
	if cfg == nil || cfg.ExitStrategies == nil {
		return nil, ErrNoExitStrategies
	}
	es := cfg.ExitStrategies

	var pipeline []ExitStrategy
	for _, name := range es.Enabled {
		switch name {
		case domain.StrategyNameStopLoss:
			if es.StopLoss == nil {
				return nil, ErrMissingStopLossOptions
			}
			if es.StopLoss.PercentFromEntry <= 0 {
				return nil, ErrMissingStopLossPercent
			}
			pipeline = append(pipeline, NewStopLossStrategy(*es.StopLoss))

		case domain.StrategyNameProfitTarget:
			if es.ProfitTarget == nil {
				return nil, ErrMissingProfitTargetOptions
			}
			if es.ProfitTarget.PercentFromEntry <= 0 {
				return nil, ErrMissingProfitTargetPercent
			}
			pipeline = append(pipeline, NewProfitTargetStrategy(*es.ProfitTarget))

		case domain.StrategyNameTrailingStop:
			if es.TrailingStop == nil {
				return nil, ErrMissingTrailingStopOptions
			}
			if es.TrailingStop.TrailPercent == nil && es.TrailingStop.TrailATRMultiplier == nil {
				return nil, ErrMissingTrailDistance
			}
			pipeline = append(pipeline, NewTrailingStopStrategy(*es.TrailingStop))

		case domain.StrategyNameMaxHoldTime, domain.StrategyNameEndOfDay:
			// Controlled by the base-level blocks, not the enabled list.

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategyName, name)
		}
	}

	if cfg.MaxHoldTime != nil {
		if cfg.MaxHoldTime.Minutes <= 0 {
			return nil, ErrInvalidMaxHoldMinutes
		}
		pipeline = append(pipeline, NewMaxHoldTimeStrategy(cfg.MaxHoldTime.Minutes))
	}

	if cfg.EndOfDay != nil {
		hour, minute, err := parseClock(cfg.EndOfDay.Time)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, NewEndOfDayStrategy(hour, minute))
	}

	return pipeline, nil
}

// PipelineID joins the member strategy IDs into one identifier for trade
// records and reports.
func PipelineID(pipeline []ExitStrategy) string {
	ids := make([]string, len(pipeline))
	for i, s := range pipeline {
		ids[i] = s.ID()
	}
	return strings.Join(ids, "+")
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(s string) (int, int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidEndOfDayTime, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidEndOfDayTime, s)
	}
	return hour, minute, nil
}
