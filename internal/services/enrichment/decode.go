package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"

	"StockPulse/internal/domain/models"
)

// DecodeError explains why a completion could not be accepted.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "decode analysis: " + e.Reason }

type wireSymbol struct {
	Summary       *string `json:"summary"`
	Opportunities *string `json:"opportunities"`
	Risks         *string `json:"risks"`
	KeyAnomaly    *string `json:"key_anomaly"`
}

type wireResult struct {
	ExecutiveSummary *string                `json:"executive_summary"`
	Symbols          map[string]*wireSymbol `json:"symbols"`
}

// StripFence removes a surrounding markdown code fence, with or without a
// language tag.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
		// Single-line fence: drop a language tag such as "json".
		if i := strings.IndexAny(text, " \t{["); i > 0 {
			text = text[i:]
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Decode parses a completion into an AnalysisResult. Every symbol in the
// output must belong to allowed and carry all four fields.
func Decode(text string, allowed map[string]struct{}) (models.AnalysisResult, error) {
	var w wireResult
	if err := json.Unmarshal([]byte(StripFence(text)), &w); err != nil {
		return models.AnalysisResult{}, &DecodeError{Reason: err.Error()}
	}
	if w.ExecutiveSummary == nil || strings.TrimSpace(*w.ExecutiveSummary) == "" {
		return models.AnalysisResult{}, &DecodeError{Reason: "missing executive_summary"}
	}
	if w.Symbols == nil {
		return models.AnalysisResult{}, &DecodeError{Reason: "missing symbols object"}
	}

	out := models.AnalysisResult{
		ExecutiveSummary: *w.ExecutiveSummary,
		Symbols:          make(map[string]models.SymbolAnalysis, len(w.Symbols)),
	}
	for sym, s := range w.Symbols {
		if _, ok := allowed[sym]; !ok {
			return models.AnalysisResult{}, &DecodeError{Reason: fmt.Sprintf("unexpected symbol %s", sym)}
		}
		if s == nil || s.Summary == nil || s.Opportunities == nil || s.Risks == nil || s.KeyAnomaly == nil {
			return models.AnalysisResult{}, &DecodeError{Reason: fmt.Sprintf("missing required keys in %s", sym)}
		}
		out.Symbols[sym] = models.SymbolAnalysis{
			Summary:       *s.Summary,
			Opportunities: *s.Opportunities,
			Risks:         *s.Risks,
			KeyAnomaly:    *s.KeyAnomaly,
		}
	}
	return out, nil
}
