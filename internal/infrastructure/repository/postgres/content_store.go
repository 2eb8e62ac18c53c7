package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

// ContentStore is the dedup ledger. Admission races are settled by the
// unique constraint on fingerprint: whichever insert lands first wins and
// everyone else observes a duplicate.
type ContentStore struct {
	db *sql.DB
}

func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

func (s *ContentStore) Admit(ctx context.Context, article *domain.Article, cutoff time.Time) (domain.Admission, error) {
	if article.PublishedAt.Before(cutoff) {
		// Rejected without persisting; rejection is final, never retried.
		return domain.Admission{Status: domain.AdmissionBeforeCutoff}, nil
	}

	companiesJSON, err := json.Marshal(article.Companies)
	if err != nil {
		return domain.Admission{}, fmt.Errorf("marshal companies: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO articles (
	fingerprint, url, title, body, published_at, category, companies, fetched_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (fingerprint) DO NOTHING
`,
		article.Fingerprint, article.URL, article.Title, article.Body, article.PublishedAt,
		article.Category, companiesJSON, article.FetchedAt, time.Now().UTC(),
	)
	if err != nil {
		return domain.Admission{}, domain.WrapError(domain.ErrPersistence, "admit article", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Admission{}, domain.WrapError(domain.ErrPersistence, "admit article", err)
	}
	if rows == 0 {
		return domain.Admission{
			Status:      domain.AdmissionDuplicate,
			DuplicateOf: article.Fingerprint,
		}, nil
	}
	return domain.Admission{Status: domain.AdmissionAccepted, Article: article}, nil
}

func (s *ContentStore) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT fingerprint, url, title, body, published_at, category, companies, fetched_at
FROM articles
WHERE fingerprint = $1
`, fingerprint)

	var article domain.Article
	var companiesRaw []byte
	err := row.Scan(
		&article.Fingerprint, &article.URL, &article.Title, &article.Body,
		&article.PublishedAt, &article.Category, &companiesRaw, &article.FetchedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrArticleNotFound, "get article", err)
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	if err := json.Unmarshal(companiesRaw, &article.Companies); err != nil {
		return nil, fmt.Errorf("unmarshal companies: %w", err)
	}
	return &article, nil
}

// Annotate records the classification outcome and replaces the raw body with
// the sanitized text. Articles are otherwise immutable; the guard on
// category = '' keeps this write-once.
func (s *ContentStore) Annotate(ctx context.Context, fingerprint, category, body string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE articles
SET category = $2, body = $3
WHERE fingerprint = $1 AND category = ''
`, fingerprint, category, body)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "annotate article", err)
	}
	return nil
}

func (s *ContentStore) PruneBefore(ctx context.Context, horizon time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE published_at < $1`, horizon)
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "prune articles", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "prune articles", err)
	}
	return rows, nil
}
