// Package signals holds the intent detectors: one independent keyword
// heuristic per signal type.
package signals

import (
	"math"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/match"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/rules"
)

// Strength blends hit frequency with weighted keyword coverage. The log
// scale keeps a phrase repeated ten times from drowning out breadth of
// evidence; both terms are monotonic in detector confidence.
const (
	frequencyWeight = 0.6
	coverageWeight  = 0.4
)

var frequencyNorm = math.Log1p(7)

type detector struct {
	signalType  domain.SignalType
	minStrength float64
	matcher     *match.Matcher
}

type Scorer struct {
	detectors []detector
}

func NewScorer(signalRules []rules.SignalRule) *Scorer {
	s := &Scorer{detectors: make([]detector, 0, len(signalRules))}
	for _, rule := range signalRules {
		keywords := make([]match.Keyword, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			keywords = append(keywords, match.Keyword{Phrase: kw.Phrase, Weight: kw.Weight})
		}
		minStrength := rule.MinStrength
		if minStrength <= 0 {
			minStrength = 0.15
		}
		s.detectors = append(s.detectors, detector{
			signalType:  rule.Type,
			minStrength: minStrength,
			matcher:     match.New(keywords),
		})
	}
	return s
}

// Score runs every detector over the article. Detectors are independent:
// one article can trigger several signal types at once, or none. The result
// is deterministic and order-independent for a given article.
func (s *Scorer) Score(article *domain.Article, companyID string, detectedAt time.Time) []domain.IntentSignal {
	if companyID == "" {
		return nil
	}
	text := match.Normalize(article.Title + " " + article.Body)

	var out []domain.IntentSignal
	for _, det := range s.detectors {
		result := det.matcher.Match(text)
		if result.TotalHits == 0 {
			continue
		}
		strength := strengthOf(result)
		if strength < det.minStrength {
			continue
		}
		out = append(out, domain.IntentSignal{
			ArticleFingerprint: article.Fingerprint,
			CompanyID:          companyID,
			Type:               det.signalType,
			Strength:           strength,
			DetectedAt:         detectedAt.UTC(),
		})
	}
	return out
}

func strengthOf(result match.Result) float64 {
	frequency := math.Min(1, math.Log1p(float64(result.TotalHits))/frequencyNorm)
	coverage := 0.0
	if result.TotalWeight > 0 {
		coverage = result.MatchedWeight / result.TotalWeight
	}
	return clamp01(frequencyWeight*frequency + coverageWeight*coverage)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
