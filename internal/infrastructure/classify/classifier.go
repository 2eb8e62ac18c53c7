// Package classify assigns taxonomy categories with deterministic weighted
// keyword matching.
package classify

import (
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/match"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/rules"
)

type categoryRule struct {
	name     string
	minScore float64
	matcher  *match.Matcher
}

// RuleClassifier scores an article's title and body against every category
// rule. The highest cumulative matched weight wins; ties keep the earlier
// declared category. Content no rule claims gets the general category.
type RuleClassifier struct {
	categories []categoryRule
}

func New(categories []rules.CategoryRule) *RuleClassifier {
	c := &RuleClassifier{categories: make([]categoryRule, 0, len(categories))}
	for _, rule := range categories {
		keywords := make([]match.Keyword, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			keywords = append(keywords, match.Keyword{Phrase: kw.Phrase, Weight: kw.Weight})
		}
		minScore := rule.MinScore
		if minScore <= 0 {
			minScore = 1
		}
		c.categories = append(c.categories, categoryRule{
			name:     rule.Name,
			minScore: minScore,
			matcher:  match.New(keywords),
		})
	}
	return c
}

func (c *RuleClassifier) Classify(article *domain.Article) string {
	text := match.Normalize(article.Title + " " + article.Body)

	best := domain.CategoryGeneral
	bestScore := 0.0
	for _, rule := range c.categories {
		result := rule.matcher.Match(text)
		score := result.MatchedWeight
		if score < rule.minScore {
			continue
		}
		// Strict greater-than keeps the earlier category on ties.
		if score > bestScore {
			best = rule.name
			bestScore = score
		}
	}
	return best
}
