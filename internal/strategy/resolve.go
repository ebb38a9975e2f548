package strategy

import (
	"intraday-exit-lab/internal/domain"
)

// Resolve invokes each pipeline strategy in order and returns the first
// triggered exit; later strategies are not evaluated. When nothing
// triggers and at least one bar exists at or after the entry time, a
// default exit is synthesized at the last such bar's close, tagged with
// the caller-supplied default reason. With no qualifying bars at all the
// result is nil and the caller must treat the trade as unresolved, not
// as an error.
func Resolve(in *Input, pipeline []ExitStrategy, defaultReason domain.ExitReason) *domain.Signal {
	for _, s := range pipeline {
		if sig := s.Evaluate(in); sig != nil {
			return sig
		}
	}

	var last *domain.Bar
	for _, bar := range in.Bars {
		if !bar.Time.Before(in.EntryTime) {
			last = bar
		}
	}
	if last == nil {
		return nil
	}

	return &domain.Signal{
		Time:   last.Time,
		Price:  last.Close,
		Kind:   domain.SignalKindExit,
		Reason: defaultReason,
	}
}
