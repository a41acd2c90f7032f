package indicators

import (
	"testing"

	"StockPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func flatSeries(vol string) []models.Record {
	out := make([]models.Record, 5)
	for i := range out {
		out[i] = models.Record{Close: "1", Volume: vol}
	}
	return out
}

func TestAggregateTwoSymbols(t *testing.T) {
	data := []models.SymbolData{
		{
			Symbol: "AAA",
			Series: flatSeries("1000000"),
			Metrics: models.Metrics{
				Trend: models.TrendUp, Momentum: f(11), Volatility: 3.93, PercentChange: 10,
				Anomalies: []string{"Sharp price movement on 2025-06-27", "Record high close on 2025-06-27"},
			},
		},
		{
			Symbol: "BBB",
			Series: flatSeries("3000000"),
			Metrics: models.Metrics{
				Trend: models.TrendDown, Momentum: f(-3), Volatility: 1.5, PercentChange: -12.5,
				Anomalies: []string{},
			},
		},
	}

	facts := Aggregate(data)
	assert.Equal(t, models.AggregateFacts{
		"Average trading volume across 2 stocks was 2.00M shares.",
		"AAA had the largest momentum with a 11.00 price change.",
		"BBB was the biggest loser with a 12.50% change.",
		"1 of 2 stocks showed anomalies, indicating moderate market turbulence.",
		"The majority of stocks (1/2) trended up, reflecting bullish market sentiment.",
		"AAA had the highest volatility (stddev 3.93), suggesting potential for large gains or losses.",
		"2 total anomalies detected across all stocks, signaling moderate market activity.",
	}, facts)
}

func TestAggregateTiesGoToFirstSymbol(t *testing.T) {
	data := []models.SymbolData{
		{Symbol: "X", Metrics: models.Metrics{Trend: models.TrendFlat, Momentum: f(2), Volatility: 1, PercentChange: 3}},
		{Symbol: "Y", Metrics: models.Metrics{Trend: models.TrendFlat, Momentum: f(2), Volatility: 1, PercentChange: -3}},
	}

	facts := Aggregate(data)
	require.Len(t, facts, 7)
	assert.Equal(t, "X had the largest momentum with a 2.00 price change.", facts[1])
	assert.Equal(t, "X was the biggest gainer with a 3.00% change.", facts[2])
	assert.Equal(t, "The majority of stocks (2/2) trended flat, reflecting stable market sentiment.", facts[4])
	assert.Contains(t, facts[5], "X had the highest volatility")
}

func TestAggregateHighTurbulence(t *testing.T) {
	data := []models.SymbolData{
		{Symbol: "A", Metrics: models.Metrics{Trend: models.TrendUp, Anomalies: []string{"a", "b"}}},
		{Symbol: "B", Metrics: models.Metrics{Trend: models.TrendUp, Anomalies: []string{"c"}}},
	}
	facts := Aggregate(data)
	assert.Equal(t, "2 of 2 stocks showed anomalies, indicating high market turbulence.", facts[3])
	assert.Equal(t, "3 total anomalies detected across all stocks, signaling significant market activity.", facts[6])
	assert.Equal(t, "No stock had enough data to measure momentum.", facts[1])
}

func TestAggregateEmpty(t *testing.T) {
	facts := Aggregate(nil)
	require.Len(t, facts, 7)
	assert.Equal(t, "Average trading volume across 0 stocks was 0.00M shares.", facts[0])
	assert.Equal(t, "0 of 0 stocks showed anomalies, indicating moderate market turbulence.", facts[3])
	assert.Equal(t, "The majority of stocks (0/0) trended unknown, reflecting unclear market sentiment.", facts[4])
	assert.Equal(t, "0 total anomalies detected across all stocks, signaling moderate market activity.", facts[6])
}
