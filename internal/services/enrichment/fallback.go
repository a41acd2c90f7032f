package enrichment

import (
	"fmt"
	"strconv"

	"StockPulse/internal/domain/models"
)

// Fallback policies applied once every attempt has failed.
const (
	FallbackFail     = "fail"
	FallbackTemplate = "template"
)

const templateSummary = "Market analysis indicates mixed sentiment with opportunities in volatile sectors; monitor for reversals based on aggregates showing moderate turbulence."

// Template synthesizes placeholder analysis straight from the metrics.
func Template(data []models.SymbolData) models.AnalysisResult {
	out := models.AnalysisResult{
		ExecutiveSummary: templateSummary,
		Symbols:          make(map[string]models.SymbolAnalysis, len(data)),
	}
	for _, d := range data {
		m := d.Metrics
		key := models.NoAnomaly
		if len(m.Anomalies) > 0 {
			key = m.Anomalies[0]
		}
		out.Symbols[d.Symbol] = models.SymbolAnalysis{
			Summary:       fmt.Sprintf("Analysis for %s indicates %s trend with %d anomalies.", d.Symbol, m.Trend, len(m.Anomalies)),
			Opportunities: fmt.Sprintf("Monitor %s for %s continuation opportunities.", d.Symbol, m.Trend),
			Risks:         fmt.Sprintf("Be cautious of volatility in %s at %s.", d.Symbol, strconv.FormatFloat(m.Volatility, 'f', -1, 64)),
			KeyAnomaly:    key,
		}
	}
	return out
}
