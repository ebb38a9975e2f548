package domain

// Strategy names accepted in the exitStrategies.enabled list.
const (
	StrategyNameStopLoss     = "stopLoss"
	StrategyNameProfitTarget = "profitTarget"
	StrategyNameTrailingStop = "trailingStop"
	StrategyNameMaxHoldTime  = "maxHoldTime"
	StrategyNameEndOfDay     = "endOfDay"
)

// BacktestConfig is the validated configuration consumed by pipeline
// assembly. MaxHoldTime and EndOfDay are base-level blocks: when present
// they are always active, independent of the enabled list.
type BacktestConfig struct {
	ExitStrategies *ExitStrategiesConfig `json:"exitStrategies"`
	MaxHoldTime    *MaxHoldTimeConfig    `json:"maxHoldTime"`
	EndOfDay       *EndOfDayConfig       `json:"endOfDay"`
	Slippage       *SlippageConfig       `json:"slippage"`
}

// ExitStrategiesConfig names the enabled price-reactive strategies and
// carries one option block per strategy. An enabled strategy without its
// option block is a configuration error.
type ExitStrategiesConfig struct {
	Enabled      []string            `json:"enabled"`
	StopLoss     *StopLossConfig     `json:"stopLoss"`
	ProfitTarget *ProfitTargetConfig `json:"profitTarget"`
	TrailingStop *TrailingStopConfig `json:"trailingStop"`
}

// StopLossConfig sizes the protective stop. PercentFromEntry is the
// required fallback; the ATR multiplier takes precedence when ATR is
// available, and UseProposedPrice lets an externally supplied level
// override both.
type StopLossConfig struct {
	PercentFromEntry float64  `json:"percentFromEntry"`
	ATRMultiplier    *float64 `json:"atrMultiplier"`
	UseProposedPrice bool     `json:"useProposedPrice"`
}

// ProfitTargetConfig mirrors StopLossConfig for the profit side.
type ProfitTargetConfig struct {
	PercentFromEntry float64  `json:"percentFromEntry"`
	ATRMultiplier    *float64 `json:"atrMultiplier"`
	UseProposedPrice bool     `json:"useProposedPrice"`
}

// TrailingStopConfig configures activation offset and trailing distance.
// At least one trailing-distance source (TrailPercent or
// TrailATRMultiplier) must be present.
type TrailingStopConfig struct {
	ActivationPercent       *float64 `json:"activationPercent"`
	ActivationATRMultiplier *float64 `json:"activationAtrMultiplier"`
	TrailPercent            *float64 `json:"trailPercent"`
	TrailATRMultiplier      *float64 `json:"trailAtrMultiplier"`
}

// MaxHoldTimeConfig schedules an exit a fixed number of minutes after entry.
type MaxHoldTimeConfig struct {
	Minutes int `json:"minutes"`
}

// EndOfDayConfig schedules the end-of-day flatten. Time is HH:MM in
// exchange-local time.
type EndOfDayConfig struct {
	Time string `json:"time"`
}

// Slippage model identifiers.
const (
	SlippageModelPercent = "percent"
	SlippageModelFixed   = "fixed"
)

// SlippageConfig parameterizes the fill-price adjustment. A nil config
// means theoretical fills are used verbatim.
type SlippageConfig struct {
	Model string  `json:"model"`
	Value float64 `json:"value"`
}
