package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/domain/models"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted datetime format.
const DateLayout = "2006-01-02"

// ErrorKind classifies why a record was rejected.
type ErrorKind string

const (
	MissingFields ErrorKind = "missing_fields"
	BadDate       ErrorKind = "bad_date"
	BadPrice      ErrorKind = "bad_price"
	BadVolume     ErrorKind = "bad_volume"
	OhlcViolation ErrorKind = "ohlc_violation"
	Internal      ErrorKind = "internal"
)

var priceFields = []string{"open", "high", "low", "close"}

// Outcome is the result of validating exactly one record.
type Outcome struct {
	Record models.RawRecord
	Valid  bool
	Kind   ErrorKind
	Reason string
}

// Err returns nil for a valid outcome and a *Error otherwise.
func (o Outcome) Err() error {
	if o.Valid {
		return nil
	}
	return &Error{Kind: o.Kind, Reason: o.Reason}
}

// Error is a per-record validation failure.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func (e *Error) Unwrap() error { return models.ErrValidation }

// Validate checks one flattened record. Checks run in order and stop at the
// first failure; nothing escapes, a panic is reported as Internal.
func Validate(rec models.RawRecord) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = reject(rec, Internal, fmt.Sprintf("Unexpected validation error: %v", r))
		}
	}()

	var missing []string
	for _, f := range models.RequiredRecordFields {
		if _, ok := rec[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return reject(rec, MissingFields, "Missing required fields: "+strings.Join(missing, ", "))
	}

	dt, ok := rec["datetime"].(string)
	if !ok {
		return reject(rec, BadDate, fmt.Sprintf("Invalid datetime format: %v", rec["datetime"]))
	}
	if _, err := time.Parse(DateLayout, dt); err != nil {
		return reject(rec, BadDate, "Invalid datetime format: "+dt)
	}

	prices := make(map[string]decimal.Decimal, len(priceFields))
	for _, f := range priceFields {
		raw, ok := rec[f].(string)
		if !ok {
			return reject(rec, BadPrice, fmt.Sprintf("%s is not a string: %v", f, rec[f]))
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return reject(rec, BadPrice, fmt.Sprintf("%s is not a valid float: %s", f, raw))
		}
		if d.IsNegative() {
			return reject(rec, BadPrice, fmt.Sprintf("%s cannot be negative: %s", f, raw))
		}
		prices[f] = d
	}

	vol, ok := rec["volume"].(string)
	if !ok {
		return reject(rec, BadVolume, fmt.Sprintf("volume is not a string: %v", rec["volume"]))
	}
	n, err := strconv.ParseInt(vol, 10, 64)
	if err != nil {
		return reject(rec, BadVolume, "volume is not a valid integer: "+vol)
	}
	if n < 0 {
		return reject(rec, BadVolume, "volume cannot be negative: "+vol)
	}

	open, high, low, cls := prices["open"], prices["high"], prices["low"], prices["close"]
	if !(within(low, open, high) && within(low, cls, high)) {
		return reject(rec, OhlcViolation, "OHLC values do not satisfy low <= open/high/close <= high")
	}

	return Outcome{Record: rec, Valid: true}
}

func within(lo, v, hi decimal.Decimal) bool {
	return lo.LessThanOrEqual(v) && v.LessThanOrEqual(hi)
}

func reject(rec models.RawRecord, kind ErrorKind, reason string) Outcome {
	return Outcome{Record: rec, Kind: kind, Reason: reason}
}
