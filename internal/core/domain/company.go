package domain

import (
	"math"
	"time"
)

// Company is a canonical company identity. IDs are never reassigned and
// aliases only ever accumulate.
type Company struct {
	ID            string   `json:"company_id"`
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases,omitempty"`
	Ticker        string   `json:"ticker,omitempty"`
}

// HasAlias reports whether name is already the canonical name or a known alias.
func (c Company) HasAlias(name string) bool {
	if name == c.CanonicalName {
		return true
	}
	for _, a := range c.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// CompanyProfile is the folded intent state for one company. The aggregate
// score is a decayed sum recomputed on each new signal, never on read;
// signal history is the append-only audit trail behind it.
type CompanyProfile struct {
	CompanyID      string         `json:"company_id"`
	AggregateScore float64        `json:"aggregate_score"`
	SignalHistory  []IntentSignal `json:"signal_history,omitempty"`
	LastUpdatedAt  time.Time      `json:"last_updated_at"`
}

// DecayHalfLife is how long it takes accumulated intent to lose half its
// weight with no new evidence.
const DecayHalfLife = 7 * 24 * time.Hour

// Decay returns score discounted for the time elapsed since the last fold.
// Monotonically non-increasing in elapsed; negative elapsed is treated as zero.
func Decay(score float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return score
	}
	factor := math.Exp2(-elapsed.Hours() / DecayHalfLife.Hours())
	return score * factor
}

// Fold returns the profile's next aggregate score after absorbing one signal
// at the given time. Pure; callers are responsible for idempotence checks and
// history appends.
func Fold(current float64, lastUpdatedAt time.Time, signal IntentSignal, now time.Time) float64 {
	return Decay(current, now.Sub(lastUpdatedAt)) + signal.Strength
}

// TopSignals returns the most recent n signals from the history, oldest first.
func (p CompanyProfile) TopSignals(n int) []IntentSignal {
	if n <= 0 || len(p.SignalHistory) == 0 {
		return nil
	}
	if len(p.SignalHistory) <= n {
		out := make([]IntentSignal, len(p.SignalHistory))
		copy(out, p.SignalHistory)
		return out
	}
	out := make([]IntentSignal, n)
	copy(out, p.SignalHistory[len(p.SignalHistory)-n:])
	return out
}

// Quote is a point-in-time market snapshot from the quote collaborator.
// Enrichment is a view concern: quotes are never persisted.
type Quote struct {
	Ticker string    `json:"ticker"`
	Price  float64   `json:"price"`
	Change float64   `json:"change"`
	Volume int64     `json:"volume"`
	AsOf   time.Time `json:"as_of"`
}

// EnrichedProfile is the structured output record consumed by the workflow
// engine: one per company profile, with the quote attached on read.
type EnrichedProfile struct {
	CompanyID      string         `json:"company_id"`
	CanonicalName  string         `json:"canonical_name"`
	AggregateScore float64        `json:"aggregate_score"`
	TopSignals     []IntentSignal `json:"top_signals"`
	Quote          *Quote         `json:"quote"`
	QuoteError     string         `json:"quote_error,omitempty"`
}
