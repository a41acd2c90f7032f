package models

import (
	"strconv"
	"time"
)

// NoAnomaly is the key_anomaly value meaning nothing worth flagging.
const NoAnomaly = "None"

// SymbolAnalysis is the narrative produced for one symbol.
type SymbolAnalysis struct {
	Summary       string `json:"summary"`
	Opportunities string `json:"opportunities"`
	Risks         string `json:"risks"`
	KeyAnomaly    string `json:"key_anomaly"`
}

// AnalysisResult is the decoded enrichment output.
type AnalysisResult struct {
	ExecutiveSummary string                    `json:"executive_summary"`
	Symbols          map[string]SymbolAnalysis `json:"symbols"`
}

// SymbolInsight is the persisted per-symbol view: narrative plus metrics.
type SymbolInsight struct {
	SymbolAnalysis
	LatestClose   string   `json:"latest_close"`
	Trend         Trend    `json:"trend"`
	Momentum      *string  `json:"momentum"`
	Volatility    string   `json:"volatility"`
	Anomalies     []string `json:"anomalies"`
	PercentChange string   `json:"percent_change"`
}

// RowCounts carries the ingest counts into the analysis record.
type RowCounts struct {
	Raw       int `json:"raw"`
	Processed int `json:"processed"`
	Rejected  int `json:"rejected"`
}

// CombinedRecord is the single item persisted per analyze run.
type CombinedRecord struct {
	AnalysisID       string                   `json:"analysis_id"`
	SymbolsAnalyzed  []string                 `json:"symbols_analyzed"`
	Insights         map[string]SymbolInsight `json:"insights"`
	Aggregates       []string                 `json:"aggregates"`
	ExecutiveSummary string                   `json:"executive_summary"`
	KeyAnomalies     map[string]string        `json:"key_anomalies"`
	RowCounts        RowCounts                `json:"row_counts"`
	ProcessedAt      time.Time                `json:"processed_at"`
	CorrelationID    string                   `json:"correlation_id"`
}

// ItemKey is the primary key used by the record store.
func (r *CombinedRecord) ItemKey() string { return r.AnalysisID }

// NewInsight merges a narrative with the metrics it was derived from.
func NewInsight(a SymbolAnalysis, m Metrics) SymbolInsight {
	in := SymbolInsight{
		SymbolAnalysis: a,
		LatestClose:    "N/A",
		Trend:          m.Trend,
		Volatility:     formatFloat(m.Volatility),
		Anomalies:      m.Anomalies,
		PercentChange:  formatFloat(m.PercentChange),
	}
	if in.Anomalies == nil {
		in.Anomalies = []string{}
	}
	if m.LatestClose != nil {
		in.LatestClose = formatFloat(*m.LatestClose)
	}
	if m.Momentum != nil {
		s := formatFloat(*m.Momentum)
		in.Momentum = &s
	}
	return in
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
