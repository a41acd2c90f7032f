package enrichment

import (
	"fmt"
	"strconv"
	"strings"

	"StockPulse/internal/domain/models"
)

// MaxRecentPoints bounds how many observations per symbol go into the prompt.
const MaxRecentPoints = 5

const promptHeader = `You are an expert stock market analyst. Write actionable natural language analysis for each stock symbol from the metrics and recent OHLCV data below. Interpret the numbers into original insights instead of restating them.

Return a JSON object with:
- "executive_summary": one cohesive paragraph of 150-250 words covering overall sentiment, standout symbols, opportunities and risks across all symbols, and trading implications. Reference the aggregates for context.
- "symbols": an object keyed by stock symbol, each value an object with:
  - "summary": 2-3 sentences on the stock's recent behavior.
  - "opportunities": 1-2 sentences with concrete strategies or entry/exit points.
  - "risks": 1-2 sentences with downside scenarios tied to the data.
  - "key_anomaly": one sentence on the most critical anomaly and its implication, or "None".

Only analyze the symbols listed below. Return solely the JSON inside a ` + "```json ... ```" + ` block with no extra text.

`

const promptFooter = "Generate original, comprehensive analysis. The executive_summary must consolidate ALL symbol insights with the aggregates. Output only the JSON."

// BuildPrompt renders the enrichment request for one run.
func BuildPrompt(data []models.SymbolData, facts models.AggregateFacts) string {
	var b strings.Builder
	b.WriteString(promptHeader)

	b.WriteString("Aggregates for context (use in executive_summary):\n")
	for _, f := range facts {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	b.WriteString("\nAnalyze these symbols:\n")

	for _, d := range data {
		writeSymbol(&b, d)
	}

	b.WriteString(promptFooter)
	return b.String()
}

func writeSymbol(b *strings.Builder, d models.SymbolData) {
	m := d.Metrics

	momentum := "Insufficient data"
	if m.Momentum != nil {
		momentum = strconv.FormatFloat(*m.Momentum, 'f', -1, 64)
	}
	anomalies := "None"
	if len(m.Anomalies) > 0 {
		anomalies = strings.Join(m.Anomalies, ", ")
	}

	fmt.Fprintf(b, "--- %s ---\n", d.Symbol)
	fmt.Fprintf(b, "Trend direction: %s\n", m.Trend)
	fmt.Fprintf(b, "Momentum over last 5 days: %s\n", momentum)
	fmt.Fprintf(b, "Volatility level: %.2f\n", m.Volatility)
	fmt.Fprintf(b, "Recent percent change: %.2f%%\n", m.PercentChange)
	fmt.Fprintf(b, "Detected anomalies: %s\n", anomalies)

	recent := d.Series
	if len(recent) > MaxRecentPoints {
		recent = recent[:MaxRecentPoints]
	}
	closes := make([]string, 0, len(recent))
	for _, r := range recent {
		c, err := strconv.ParseFloat(r.Close, 64)
		if err != nil {
			continue
		}
		day := r.Datetime
		if len(day) > 10 {
			day = day[:10]
		}
		closes = append(closes, fmt.Sprintf("%.2f (%s)", c, day))
	}
	fmt.Fprintf(b, "Recent closes, newest first: %s\n", strings.Join(closes, ", "))

	if len(recent) > 0 {
		latest, _ := strconv.ParseInt(recent[0].Volume, 10, 64)
		fmt.Fprintf(b, "Volume context: latest %.2fM vs %.2fM avg\n", float64(latest)/1e6, m.AvgVolume/1e6)
	}
	b.WriteByte('\n')
}
