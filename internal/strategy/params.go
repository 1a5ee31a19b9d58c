package strategy

// AnchorPolicy selects which qualifying spike in the lookback window anchors
// the pullback search.
type AnchorPolicy string

const (
	// AnchorEarliest picks the oldest qualifying bar, giving the pullback the
	// most bars to develop.
	AnchorEarliest AnchorPolicy = "earliest"
	// AnchorLatest picks the most recent qualifying bar.
	AnchorLatest AnchorPolicy = "latest"
)

// ParseAnchorPolicy maps a config string to a policy, defaulting to earliest.
func ParseAnchorPolicy(s string) AnchorPolicy {
	if AnchorPolicy(s) == AnchorLatest {
		return AnchorLatest
	}
	return AnchorEarliest
}

// Params holds every threshold the detectors use.
// Fractions are plain ratios: 0.004 means 0.40%.
type Params struct {
	BaselineSpan  int // EMA span of the turnover baseline
	SpikeLookback int // bars scanned for the confirmation anchor
	SpikeFloor    float64

	VolMinEarly float64 // min 1m turnover for the early alert
	VRatioEarly float64 // spike ratio threshold (early and anchor search)
	Mom1mMin    float64

	VolMinConf float64 // min 1m turnover at confirmation
	VRatioConf float64

	PullbackMin float64
	PullbackMax float64

	RSIPeriod    int
	RSIConfMin   float64
	RSISellMax   float64
	Drop2SellMax float64

	VolatMax float64 // (H-L)/C ceiling of the latest bar

	FastEMA int
	SlowEMA int

	MinBarsEarly   int
	MinBarsConfirm int
	MinBarsSlow    int // minimum bars on the slow (5m) series

	LevelLookback  int     // bars used for support/resistance
	LevelTolerance float64 // proximity as a fraction of price

	Anchor  AnchorPolicy
	Weights Weights
}

// DefaultParams returns thresholds tuned for large-cap spot pairs on 1m/5m bars.
func DefaultParams() Params {
	return Params{
		BaselineSpan:  15,
		SpikeLookback: 3,
		SpikeFloor:    0,

		VolMinEarly: 500_000,
		VRatioEarly: 2.6,
		Mom1mMin:    0.0040,

		VolMinConf: 800_000,
		VRatioConf: 3.2,

		PullbackMin: 0.0020,
		PullbackMax: 0.0075,

		RSIPeriod:    14,
		RSIConfMin:   54,
		RSISellMax:   45,
		Drop2SellMax: -0.012,

		VolatMax: 0.0070,

		FastEMA: 20,
		SlowEMA: 50,

		MinBarsEarly:   40,
		MinBarsConfirm: 50,
		MinBarsSlow:    20,

		LevelLookback:  30,
		LevelTolerance: 0.0015,

		Anchor:  AnchorEarliest,
		Weights: DefaultWeights(),
	}
}
