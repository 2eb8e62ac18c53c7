package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/rules"
)

func testScorer(t *testing.T) *Scorer {
	t.Helper()
	rs, err := rules.Load("")
	require.NoError(t, err)
	return NewScorer(rs.Signals)
}

func TestScoreExpansionSignal(t *testing.T) {
	scorer := testScorer(t)
	detectedAt := time.Date(2025, 9, 4, 12, 0, 0, 0, time.UTC)

	got := scorer.Score(&domain.Article{
		Fingerprint: "fp-1",
		Title:       "AcmeCorp expands new facility",
		Body:        "The expansion adds capacity and a new facility in Leeds.",
	}, "company-1", detectedAt)

	require.NotEmpty(t, got)
	var expansion *domain.IntentSignal
	for i := range got {
		if got[i].Type == domain.SignalExpansion {
			expansion = &got[i]
		}
	}
	require.NotNil(t, expansion, "expected an expansion signal, got %v", got)
	assert.Greater(t, expansion.Strength, 0.0)
	assert.LessOrEqual(t, expansion.Strength, 1.0)
	assert.Equal(t, "company-1", expansion.CompanyID)
	assert.Equal(t, "fp-1", expansion.ArticleFingerprint)
	assert.Equal(t, detectedAt, expansion.DetectedAt)
}

func TestScoreMultipleTypesFireIndependently(t *testing.T) {
	scorer := testScorer(t)

	got := scorer.Score(&domain.Article{
		Fingerprint: "fp-2",
		Title:       "Maker unveils new product and announces partnership",
		Body:        "The company launches a product line and partners with a robotics supplier under a joint venture.",
	}, "company-2", time.Now().UTC())

	types := map[domain.SignalType]bool{}
	for _, sig := range got {
		types[sig.Type] = true
	}
	assert.True(t, types[domain.SignalProductLaunch], "want product_launch in %v", got)
	assert.True(t, types[domain.SignalPartnership], "want partnership in %v", got)
}

func TestScoreNoCompanyYieldsNothing(t *testing.T) {
	scorer := testScorer(t)
	got := scorer.Score(&domain.Article{Title: "expands new facility"}, "", time.Now())
	assert.Empty(t, got)
}

func TestScoreNoEvidenceYieldsNothing(t *testing.T) {
	scorer := testScorer(t)
	got := scorer.Score(&domain.Article{Title: "Weather report", Body: "Sunny."}, "company-3", time.Now())
	assert.Empty(t, got)
}

func TestScoreDeterministicAndMonotonic(t *testing.T) {
	scorer := testScorer(t)
	weak := &domain.Article{Fingerprint: "a", Title: "Firm expands", Body: ""}
	strong := &domain.Article{Fingerprint: "b", Title: "Firm expands with new facility investment", Body: "The expansion invests in extra capacity."}
	at := time.Now().UTC()

	first := scorer.Score(strong, "c", at)
	for range 5 {
		assert.Equal(t, first, scorer.Score(strong, "c", at))
	}

	weakSig := scorer.Score(weak, "c", at)
	strongSig := first
	require.NotEmpty(t, weakSig)
	require.NotEmpty(t, strongSig)
	var weakStrength, strongStrength float64
	for _, s := range weakSig {
		if s.Type == domain.SignalExpansion {
			weakStrength = s.Strength
		}
	}
	for _, s := range strongSig {
		if s.Type == domain.SignalExpansion {
			strongStrength = s.Strength
		}
	}
	assert.Greater(t, strongStrength, weakStrength, "more evidence must not lower strength")
}
