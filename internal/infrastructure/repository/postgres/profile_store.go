package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

// ProfileStore folds intent signals into per-company profiles. The row lock
// taken inside ApplySignal serializes updates per company while leaving
// other companies free to update in parallel.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) ApplySignal(ctx context.Context, signal domain.IntentSignal, now time.Time) (*domain.CompanyProfile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "begin apply signal", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO profiles (company_id, aggregate_score, last_updated_at)
VALUES ($1, 0, $2)
ON CONFLICT (company_id) DO NOTHING
`, signal.CompanyID, now.UTC()); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "ensure profile", err)
	}

	var score float64
	var lastUpdatedAt time.Time
	if err := tx.QueryRowContext(ctx, `
SELECT aggregate_score, last_updated_at
FROM profiles
WHERE company_id = $1
FOR UPDATE
`, signal.CompanyID).Scan(&score, &lastUpdatedAt); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "lock profile", err)
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO profile_signals (company_id, article_fingerprint, signal_type, strength, detected_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (company_id, article_fingerprint, signal_type) DO NOTHING
`, signal.CompanyID, signal.ArticleFingerprint, string(signal.Type), signal.Strength, signal.DetectedAt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "append signal", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "append signal", err)
	}

	// Re-applying a signal already in the history must not double-count:
	// the fold only happens when the history actually grew.
	if inserted > 0 {
		next := domain.Fold(score, lastUpdatedAt, signal, now)
		if _, err := tx.ExecContext(ctx, `
UPDATE profiles
SET aggregate_score = $2, last_updated_at = $3
WHERE company_id = $1
`, signal.CompanyID, next, now.UTC()); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "fold profile", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "commit apply signal", err)
	}
	return s.GetProfile(ctx, signal.CompanyID)
}

func (s *ProfileStore) GetProfile(ctx context.Context, companyID string) (*domain.CompanyProfile, error) {
	var profile domain.CompanyProfile
	err := s.db.QueryRowContext(ctx, `
SELECT company_id, aggregate_score, last_updated_at
FROM profiles
WHERE company_id = $1
`, companyID).Scan(&profile.CompanyID, &profile.AggregateScore, &profile.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", err)
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	history, err := s.loadHistory(ctx, companyID)
	if err != nil {
		return nil, err
	}
	profile.SignalHistory = history
	return &profile, nil
}

func (s *ProfileStore) ListProfiles(ctx context.Context) ([]domain.CompanyProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT company_id, aggregate_score, last_updated_at
FROM profiles
ORDER BY aggregate_score DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.CompanyProfile
	for rows.Next() {
		var profile domain.CompanyProfile
		if err := rows.Scan(&profile.CompanyID, &profile.AggregateScore, &profile.LastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	for i := range profiles {
		history, err := s.loadHistory(ctx, profiles[i].CompanyID)
		if err != nil {
			return nil, err
		}
		profiles[i].SignalHistory = history
	}
	return profiles, nil
}

// loadHistory returns the audit trail in chronological order, insertion
// order breaking timestamp ties.
func (s *ProfileStore) loadHistory(ctx context.Context, companyID string) ([]domain.IntentSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT article_fingerprint, company_id, signal_type, strength, detected_at
FROM profile_signals
WHERE company_id = $1
ORDER BY detected_at, id
`, companyID)
	if err != nil {
		return nil, fmt.Errorf("load signal history: %w", err)
	}
	defer rows.Close()

	var history []domain.IntentSignal
	for rows.Next() {
		var signal domain.IntentSignal
		var signalType string
		if err := rows.Scan(&signal.ArticleFingerprint, &signal.CompanyID, &signalType, &signal.Strength, &signal.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		signal.Type = domain.SignalType(signalType)
		history = append(history, signal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return history, nil
}
