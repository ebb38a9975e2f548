// Package slippage converts theoretical fill prices into realistic ones.
package slippage

import (
	"errors"

	"intraday-exit-lab/internal/domain"
)

// Validation errors.
var (
	ErrUnknownModel  = errors.New("unknown slippage model")
	ErrNegativeValue = errors.New("slippage value must be non-negative")
)

// Validate checks a slippage config at assembly time. A nil config is
// valid and means no adjustment.
func Validate(cfg *domain.SlippageConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.Model != domain.SlippageModelPercent && cfg.Model != domain.SlippageModelFixed {
		return ErrUnknownModel
	}
	if cfg.Value < 0 {
		return ErrNegativeValue
	}
	return nil
}

// Apply adjusts a theoretical fill price for execution cost. Slippage
// always makes the fill worse for the trader: entries move against the
// position being opened, exits against the position being closed.
//
//	          entry        exit
//	long      price up     price down
//	short     price down   price up
//
// A nil config returns the price unchanged.
func Apply(price float64, isLong bool, cfg *domain.SlippageConfig, isEntry bool) float64 {
	if cfg == nil {
		return price
	}

	// Worse for a long entry means a higher fill; every other cell of the
	// table flips the sign accordingly.
	sign := 1.0
	if isLong != isEntry {
		sign = -1.0
	}

	switch cfg.Model {
	case domain.SlippageModelPercent:
		return price * (1 + sign*cfg.Value/100)
	case domain.SlippageModelFixed:
		return price + sign*cfg.Value
	default:
		return price
	}
}
