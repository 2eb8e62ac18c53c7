package domain

import (
	"fmt"
	"time"
)

type SignalType string

const (
	SignalProductLaunch   SignalType = "product_launch"
	SignalPartnership     SignalType = "partnership"
	SignalExpansion       SignalType = "expansion"
	SignalHiring          SignalType = "hiring"
	SignalTechAdoption    SignalType = "tech_adoption"
	SignalFinancialEvent  SignalType = "financial_event"
	SignalCompetitiveMove SignalType = "competitive_move"
)

// SignalTypes lists every detector type in declaration order.
var SignalTypes = []SignalType{
	SignalProductLaunch,
	SignalPartnership,
	SignalExpansion,
	SignalHiring,
	SignalTechAdoption,
	SignalFinancialEvent,
	SignalCompetitiveMove,
}

func (t SignalType) Valid() bool {
	for _, known := range SignalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IntentSignal is a typed, scored indication that a company is exhibiting
// purchasing-relevant behavior. Immutable once created.
type IntentSignal struct {
	ArticleFingerprint string     `json:"article_fingerprint"`
	CompanyID          string     `json:"company_id"`
	Type               SignalType `json:"type"`
	Strength           float64    `json:"strength"`
	DetectedAt         time.Time  `json:"detected_at"`
}

// Key identifies a signal for idempotent aggregation: re-applying a signal
// with the same key must never double-count.
func (s IntentSignal) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.ArticleFingerprint, s.CompanyID, s.Type)
}
