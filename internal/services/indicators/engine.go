// Package indicators computes per-symbol metrics and cross-symbol facts.
package indicators

import (
	"fmt"
	"math"
	"strconv"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	window          = 5
	volumeSpike     = 1.5
	priceJumpRatio  = 0.05
	recordHighSigma = 2.0
)

// Compute derives metrics from a newest-first series. It never fails: empty
// input yields the neutral result and any computation fault yields a degraded
// result carrying the fault as its only anomaly.
func Compute(series []models.Record, lg *logger.Logger) (m models.Metrics) {
	if len(series) == 0 {
		lg.Warn("no values provided for metrics computation")
		return neutral()
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", models.ErrInternalComputation, r)
			lg.Error("failed to compute metrics", logger.Error(err))
			m = degraded(err)
		}
	}()

	m, err := compute(series)
	if err != nil {
		lg.Error("failed to compute metrics", logger.Error(err))
		return degraded(err)
	}
	return m
}

func compute(series []models.Record) (models.Metrics, error) {
	closes := make([]float64, len(series))
	volumes := make([]float64, len(series))
	for i, rec := range series {
		c, err := strconv.ParseFloat(rec.Close, 64)
		if err != nil {
			return models.Metrics{}, fmt.Errorf("close %q on %s: %w", rec.Close, rec.Datetime, err)
		}
		v, err := strconv.ParseInt(rec.Volume, 10, 64)
		if err != nil {
			return models.Metrics{}, fmt.Errorf("volume %q on %s: %w", rec.Volume, rec.Datetime, err)
		}
		closes[i], volumes[i] = c, float64(v)
	}

	latest := closes[0]
	prev := latest
	if len(closes) > 1 {
		prev = closes[1]
	}

	trend := models.TrendFlat
	switch {
	case latest > prev:
		trend = models.TrendUp
	case latest < prev:
		trend = models.TrendDown
	}

	var momentum *float64
	if len(closes) >= window {
		v := round2(latest - closes[window-1])
		momentum = &v
	}

	var volatility float64
	if len(closes) >= window && !allEqual(closes[:window]) {
		_, volatility = meanStdev(closes[:window])
	}

	avgVolume, _ := meanStdev(volumes)

	var pct float64
	if prev != 0 {
		pct = (latest - prev) / prev * 100
	}

	day := series[0].Datetime
	if day == "" {
		day = "unknown date"
	}

	anomalies := []string{}
	if volumes[0] > volumeSpike*avgVolume {
		anomalies = append(anomalies, "Unusual trading volume on "+day)
	}
	if math.Abs(latest-prev) > priceJumpRatio*prev {
		anomalies = append(anomalies, "Sharp price movement on "+day)
	}
	if isRecordHigh(closes) {
		anomalies = append(anomalies, "Record high close on "+day)
	}

	lc := round2(latest)
	return models.Metrics{
		LatestClose:   &lc,
		Trend:         trend,
		Momentum:      momentum,
		Volatility:    round2(volatility),
		Anomalies:     anomalies,
		AvgVolume:     round2(avgVolume),
		PercentChange: round2(pct),
	}, nil
}

// isRecordHigh compares the latest close with the closes right before it in
// the window. Including the latest point in its own baseline would cap its
// z-score below 2 for five points, so the test could never fire.
func isRecordHigh(closes []float64) bool {
	if len(closes) < window {
		return false
	}
	mean, sd := meanStdev(closes[1:window])
	if sd == 0 {
		return false
	}
	return closes[0] > mean+recordHighSigma*sd
}

// meanStdev returns the mean and population standard deviation.
func meanStdev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func neutral() models.Metrics {
	return models.Metrics{Trend: models.TrendFlat, Anomalies: []string{}}
}

func degraded(err error) models.Metrics {
	return models.Metrics{
		Trend:     models.TrendUnknown,
		Anomalies: []string{"Computation failed: " + err.Error()},
	}
}
