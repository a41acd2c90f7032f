package indicators

import (
	"fmt"
	"math"
	"strconv"

	"StockPulse/internal/domain/models"
)

// Aggregate builds the seven cross-symbol facts in fixed order. Extremal
// symbols are picked first-wins over the order of data, so callers must pass
// a stable order.
func Aggregate(data []models.SymbolData) models.AggregateFacts {
	n := len(data)
	facts := make(models.AggregateFacts, 0, 7)

	facts = append(facts, fmt.Sprintf("Average trading volume across %d stocks was %.2fM shares.", n, meanVolume(data)/1e6))
	facts = append(facts, momentumLeader(data))
	facts = append(facts, changeLeader(data))

	withAnomalies, total := 0, 0
	for _, d := range data {
		if len(d.Metrics.Anomalies) > 0 {
			withAnomalies++
		}
		total += len(d.Metrics.Anomalies)
	}
	turbulence := "moderate"
	if n > 0 && float64(withAnomalies)/float64(n) > 0.5 {
		turbulence = "high"
	}
	facts = append(facts, fmt.Sprintf("%d of %d stocks showed anomalies, indicating %s market turbulence.", withAnomalies, n, turbulence))

	facts = append(facts, majorityTrend(data))
	facts = append(facts, volatilityLeader(data))

	activity := "moderate"
	if total > n {
		activity = "significant"
	}
	facts = append(facts, fmt.Sprintf("%d total anomalies detected across all stocks, signaling %s market activity.", total, activity))

	return facts
}

func meanVolume(data []models.SymbolData) float64 {
	var sum float64
	var count int
	for _, d := range data {
		for _, r := range d.Series {
			v, err := strconv.ParseInt(r.Volume, 10, 64)
			if err != nil {
				continue
			}
			sum += float64(v)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func momentumLeader(data []models.SymbolData) string {
	var best *models.SymbolData
	for i := range data {
		m := data[i].Metrics.Momentum
		if m == nil {
			continue
		}
		if best == nil || *m > *best.Metrics.Momentum {
			best = &data[i]
		}
	}
	if best == nil {
		return "No stock had enough data to measure momentum."
	}
	return fmt.Sprintf("%s had the largest momentum with a %.2f price change.", best.Symbol, *best.Metrics.Momentum)
}

func changeLeader(data []models.SymbolData) string {
	if len(data) == 0 {
		return "No price changes were available to rank gainers or losers."
	}
	best := 0
	for i := range data {
		if math.Abs(data[i].Metrics.PercentChange) > math.Abs(data[best].Metrics.PercentChange) {
			best = i
		}
	}
	pc := data[best].Metrics.PercentChange
	direction := "loser"
	if pc > 0 {
		direction = "gainer"
	}
	return fmt.Sprintf("%s was the biggest %s with a %.2f%% change.", data[best].Symbol, direction, math.Abs(pc))
}

func majorityTrend(data []models.SymbolData) string {
	order := []models.Trend{models.TrendUp, models.TrendDown, models.TrendFlat}
	counts := make(map[models.Trend]int, len(order))
	for _, d := range data {
		counts[d.Metrics.Trend]++
	}

	majority := models.TrendUnknown
	top := 0
	if len(data) > 0 {
		majority = order[0]
		top = counts[order[0]]
		for _, t := range order[1:] {
			if counts[t] > top {
				majority, top = t, counts[t]
			}
		}
	}

	sentiment := "unclear"
	switch majority {
	case models.TrendUp:
		sentiment = "bullish"
	case models.TrendDown:
		sentiment = "bearish"
	case models.TrendFlat:
		sentiment = "stable"
	}
	return fmt.Sprintf("The majority of stocks (%d/%d) trended %s, reflecting %s market sentiment.", top, len(data), majority, sentiment)
}

func volatilityLeader(data []models.SymbolData) string {
	if len(data) == 0 {
		return "No volatility data was available."
	}
	best := 0
	for i := range data {
		if data[i].Metrics.Volatility > data[best].Metrics.Volatility {
			best = i
		}
	}
	return fmt.Sprintf("%s had the highest volatility (stddev %.2f), suggesting potential for large gains or losses.", data[best].Symbol, data[best].Metrics.Volatility)
}
