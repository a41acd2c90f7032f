package models

// Trend is the direction between the two most recent closes.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendFlat    Trend = "flat"
	TrendUnknown Trend = "unknown"
)

// Metrics are the per-symbol indicators of one run. Values are rounded to two
// decimals; LatestClose and Momentum are nil when there is not enough data.
type Metrics struct {
	LatestClose   *float64 `json:"latest_close"`
	Trend         Trend    `json:"trend"`
	Momentum      *float64 `json:"momentum"`
	Volatility    float64  `json:"volatility"`
	Anomalies     []string `json:"anomalies"`
	AvgVolume     float64  `json:"avg_volume"`
	PercentChange float64  `json:"percent_change"`
}

// SymbolData groups one symbol's newest-first series with its metrics.
type SymbolData struct {
	Symbol  string
	Series  []Record
	Metrics Metrics
}

// AggregateFacts are the cross-symbol sentences of a run, in fixed order.
type AggregateFacts []string
