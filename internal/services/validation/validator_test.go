package validation

import (
	"errors"
	"testing"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodRecord() models.RawRecord {
	return models.RawRecord{
		"symbol":   "AAPL",
		"interval": "1day",
		"datetime": "2025-06-27",
		"open":     "201.89",
		"high":     "203.22",
		"low":      "200.00",
		"close":    "201.08",
		"volume":   "73188600",
	}
}

func TestValidateAcceptsWellFormedRecord(t *testing.T) {
	out := Validate(goodRecord())
	assert.True(t, out.Valid)
	assert.NoError(t, out.Err())
}

func TestValidateRejectsEachRule(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(models.RawRecord)
		kind   ErrorKind
		reason string
	}{
		{
			name:   "missing fields",
			mutate: func(r models.RawRecord) { delete(r, "close"); delete(r, "volume") },
			kind:   MissingFields,
			reason: "Missing required fields: close, volume",
		},
		{
			name:   "bad date",
			mutate: func(r models.RawRecord) { r["datetime"] = "2025/06/27" },
			kind:   BadDate,
			reason: "Invalid datetime format: 2025/06/27",
		},
		{
			name:   "impossible date",
			mutate: func(r models.RawRecord) { r["datetime"] = "2025-02-30" },
			kind:   BadDate,
			reason: "Invalid datetime format: 2025-02-30",
		},
		{
			name:   "price not a string",
			mutate: func(r models.RawRecord) { r["open"] = 201.89 },
			kind:   BadPrice,
			reason: "open is not a string: 201.89",
		},
		{
			name:   "price not numeric",
			mutate: func(r models.RawRecord) { r["high"] = "abc" },
			kind:   BadPrice,
			reason: "high is not a valid float: abc",
		},
		{
			name:   "negative price",
			mutate: func(r models.RawRecord) { r["low"] = "-1.00" },
			kind:   BadPrice,
			reason: "low cannot be negative: -1.00",
		},
		{
			name:   "fractional volume",
			mutate: func(r models.RawRecord) { r["volume"] = "12.5" },
			kind:   BadVolume,
			reason: "volume is not a valid integer: 12.5",
		},
		{
			name:   "negative volume",
			mutate: func(r models.RawRecord) { r["volume"] = "-100" },
			kind:   BadVolume,
			reason: "volume cannot be negative: -100",
		},
		{
			name:   "close above high",
			mutate: func(r models.RawRecord) { r["close"] = "210.00" },
			kind:   OhlcViolation,
			reason: "OHLC values do not satisfy low <= open/high/close <= high",
		},
		{
			name:   "open below low",
			mutate: func(r models.RawRecord) { r["open"] = "199.99" },
			kind:   OhlcViolation,
			reason: "OHLC values do not satisfy low <= open/high/close <= high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := goodRecord()
			tt.mutate(rec)

			out := Validate(rec)
			require.False(t, out.Valid)
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.reason, out.Reason)
			assert.True(t, errors.Is(out.Err(), models.ErrValidation))
		})
	}
}

func TestValidateStopsAtFirstFailure(t *testing.T) {
	rec := goodRecord()
	rec["datetime"] = "nope"
	rec["volume"] = "-5"

	out := Validate(rec)
	assert.Equal(t, BadDate, out.Kind)
}

func TestValidateAcceptsBoundaryPrices(t *testing.T) {
	rec := goodRecord()
	rec["open"], rec["high"], rec["low"], rec["close"] = "10", "10", "10", "10"
	rec["volume"] = "0"

	assert.True(t, Validate(rec).Valid)
}

func TestProcessBatchPartitions(t *testing.T) {
	data := []byte(`{
		"MSFT": {
			"meta": {"symbol": "MSFT", "interval": "1day", "currency": "USD"},
			"values": [
				{"datetime": "2025-06-27", "open": "1", "high": "2", "low": "1", "close": "2", "volume": "10"},
				{"datetime": "2025-06-26", "open": "1", "high": "2", "low": "1", "close": "3", "volume": "10"}
			]
		},
		"AAPL": {
			"meta": {"symbol": "AAPL", "interval": "1day", "currency": "USD"},
			"values": [
				{"datetime": "2025-06-27", "open": 1, "high": "2", "low": "1", "close": "2", "volume": "10"}
			]
		},
		"BAD": {"values": []},
		"NOMETA": {"meta": {"symbol": "NOMETA"}, "values": []}
	}`)

	batch, err := DecodeBatch(data)
	require.NoError(t, err)

	parts := ProcessBatch(batch, logger.Nop())
	require.Len(t, parts.Valid, 1)
	require.Len(t, parts.Invalid, 2)
	assert.Equal(t, 3, parts.Raw())

	assert.Equal(t, "MSFT", parts.Valid[0]["symbol"])
	assert.Equal(t, "1day", parts.Valid[0]["interval"])
	assert.NotContains(t, parts.Valid[0], "error")

	// sorted symbol order: AAPL first
	assert.Equal(t, "AAPL", parts.Invalid[0]["symbol"])
	assert.Equal(t, "open is not a string: 1", parts.Invalid[0]["error"])
	assert.Equal(t, "MSFT", parts.Invalid[1]["symbol"])
	assert.Contains(t, parts.Invalid[1]["error"], "OHLC")
}

func TestDecodeBatchRejectsGarbage(t *testing.T) {
	_, err := DecodeBatch([]byte("not json"))
	assert.Error(t, err)
}
