// Package resolve maps article text and metadata to canonical company
// identities via an alias index with similarity-guarded alias growth.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/ports"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/match"
)

// DefaultMinSimilarity is the similarity a new surface form must reach
// against an existing canonical name before it is merged as an alias.
const DefaultMinSimilarity = 0.75

type Resolver struct {
	directory     ports.CompanyDirectory
	minSimilarity float64
	logger        *slog.Logger

	mu        sync.RWMutex
	companies map[string]domain.Company // by id
	index     map[string]string         // normalized surface form -> id
	// surfaces holds index keys longest-first for longest-match-first scans.
	surfaces []string
}

func New(directory ports.CompanyDirectory, minSimilarity float64, logger *slog.Logger) *Resolver {
	if minSimilarity <= 0 || minSimilarity > 1 {
		minSimilarity = DefaultMinSimilarity
	}
	return &Resolver{
		directory:     directory,
		minSimilarity: minSimilarity,
		logger:        logger,
		companies:     make(map[string]domain.Company),
		index:         make(map[string]string),
	}
}

// Load (re)builds the in-memory alias index from the directory.
func (r *Resolver) Load(ctx context.Context) error {
	companies, err := r.directory.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("load company directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.companies = make(map[string]domain.Company, len(companies))
	r.index = make(map[string]string)
	for _, company := range companies {
		r.companies[company.ID] = company
		r.indexLocked(company.CanonicalName, company.ID)
		for _, alias := range company.Aliases {
			r.indexLocked(alias, company.ID)
		}
	}
	r.rebuildSurfacesLocked()
	return nil
}

// Resolve tries, in order: exact alias match on the article's company tags,
// similarity merge of a tag against canonical names, then a longest-match
// scan of known aliases over title and body. A miss returns (nil, nil):
// unknown companies are never created speculatively.
func (r *Resolver) Resolve(ctx context.Context, article *domain.Article) (*domain.Company, error) {
	for _, tag := range article.Companies {
		if company, ok := r.lookup(tag); ok {
			return company, nil
		}
	}

	for _, tag := range article.Companies {
		company, err := r.mergeSimilar(ctx, tag)
		if err != nil {
			return nil, err
		}
		if company != nil {
			return company, nil
		}
	}

	if company, ok := r.scanText(article.Title + " " + article.Body); ok {
		return company, nil
	}
	return nil, nil
}

func (r *Resolver) lookup(surface string) (*domain.Company, bool) {
	normalized := match.Normalize(surface)
	if normalized == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.index[normalized]; ok {
		company := r.companies[id]
		return &company, true
	}
	return nil, false
}

// mergeSimilar checks a new surface form against every canonical name and,
// if one is close enough, records the form as an alias of that company.
// This is what keeps "AcmeCorp" and "Acme Corp" from fragmenting into two
// profiles.
func (r *Resolver) mergeSimilar(ctx context.Context, surface string) (*domain.Company, error) {
	normalized := match.Normalize(surface)
	if normalized == "" {
		return nil, nil
	}

	r.mu.RLock()
	var bestID, bestName string
	bestScore := 0.0
	for id, company := range r.companies {
		score := Similarity(normalized, match.Normalize(company.CanonicalName))
		// Ties break on canonical name so the winner does not depend on
		// map iteration order.
		if score > bestScore || (score == bestScore && bestID != "" && company.CanonicalName < bestName) {
			bestID = id
			bestName = company.CanonicalName
			bestScore = score
		}
	}
	r.mu.RUnlock()

	if bestID == "" || bestScore < r.minSimilarity {
		return nil, nil
	}

	if err := r.directory.AppendAlias(ctx, bestID, surface); err != nil {
		return nil, fmt.Errorf("append alias %q: %w", surface, err)
	}

	r.mu.Lock()
	company := r.companies[bestID]
	if !company.HasAlias(surface) {
		company.Aliases = append(company.Aliases, surface)
		r.companies[bestID] = company
	}
	r.indexLocked(surface, bestID)
	r.rebuildSurfacesLocked()
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("alias merged",
			"company_id", bestID,
			"alias", surface,
			"similarity", bestScore,
		)
	}
	return &company, nil
}

// scanText finds known aliases inside free text, preferring the longest
// surface form so "Rockwell Automation" beats "Rockwell".
func (r *Resolver) scanText(text string) (*domain.Company, bool) {
	normalized := match.Normalize(text)
	if normalized == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, surface := range r.surfaces {
		if match.ContainsToken(normalized, surface) {
			company := r.companies[r.index[surface]]
			return &company, true
		}
	}
	return nil, false
}

func (r *Resolver) indexLocked(surface, id string) {
	normalized := match.Normalize(surface)
	if normalized == "" {
		return
	}
	if _, taken := r.index[normalized]; !taken {
		r.index[normalized] = id
	}
}

func (r *Resolver) rebuildSurfacesLocked() {
	r.surfaces = r.surfaces[:0]
	for surface := range r.index {
		r.surfaces = append(r.surfaces, surface)
	}
	sort.Slice(r.surfaces, func(i, j int) bool {
		if len(r.surfaces[i]) != len(r.surfaces[j]) {
			return len(r.surfaces[i]) > len(r.surfaces[j])
		}
		return r.surfaces[i] < r.surfaces[j]
	})
}
