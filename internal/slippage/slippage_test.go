package slippage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-exit-lab/internal/domain"
)

func TestApply_NilConfigIsIdentity(t *testing.T) {
	for _, isLong := range []bool{true, false} {
		for _, isEntry := range []bool{true, false} {
			assert.Equal(t, 100.0, Apply(100.0, isLong, nil, isEntry))
		}
	}
}

func TestApply_PercentModel(t *testing.T) {
	cfg := &domain.SlippageConfig{Model: domain.SlippageModelPercent, Value: 0.1}

	assert.InDelta(t, 100.1, Apply(100, true, cfg, true), 1e-9)
	assert.InDelta(t, 99.9, Apply(100, true, cfg, false), 1e-9)
	assert.InDelta(t, 99.9, Apply(100, false, cfg, true), 1e-9)
	assert.InDelta(t, 100.1, Apply(100, false, cfg, false), 1e-9)
}

func TestApply_FixedModel(t *testing.T) {
	cfg := &domain.SlippageConfig{Model: domain.SlippageModelFixed, Value: 0.05}

	assert.InDelta(t, 100.05, Apply(100, true, cfg, true), 1e-9)
	assert.InDelta(t, 99.95, Apply(100, true, cfg, false), 1e-9)
	assert.InDelta(t, 99.95, Apply(100, false, cfg, true), 1e-9)
	assert.InDelta(t, 100.05, Apply(100, false, cfg, false), 1e-9)
}

func TestApply_AlwaysWorsensFill(t *testing.T) {
	configs := []*domain.SlippageConfig{
		{Model: domain.SlippageModelPercent, Value: 0.25},
		{Model: domain.SlippageModelFixed, Value: 0.02},
	}

	for _, cfg := range configs {
		// Long: pays more on entry, receives less on exit.
		assert.Greater(t, Apply(50, true, cfg, true), 50.0)
		assert.Less(t, Apply(50, true, cfg, false), 50.0)
		// Short: receives less on entry, pays more to cover.
		assert.Less(t, Apply(50, false, cfg, true), 50.0)
		assert.Greater(t, Apply(50, false, cfg, false), 50.0)
	}
}

func TestApply_ZeroValueIsNoOp(t *testing.T) {
	cfg := &domain.SlippageConfig{Model: domain.SlippageModelPercent, Value: 0}
	assert.Equal(t, 100.0, Apply(100, true, cfg, true))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(nil))
	require.NoError(t, Validate(&domain.SlippageConfig{Model: domain.SlippageModelPercent, Value: 0.1}))
	require.NoError(t, Validate(&domain.SlippageConfig{Model: domain.SlippageModelFixed, Value: 0}))

	err := Validate(&domain.SlippageConfig{Model: "bps", Value: 1})
	assert.ErrorIs(t, err, ErrUnknownModel)

	err = Validate(&domain.SlippageConfig{Model: domain.SlippageModelFixed, Value: -1})
	assert.ErrorIs(t, err, ErrNegativeValue)
}
