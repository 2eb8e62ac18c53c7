package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/ports"
)

// RetentionUseCase drops articles that aged out of the store. Pruning only
// touches article rows; profiles keep the signals those articles produced.
type RetentionUseCase struct {
	store  ports.ContentStore
	logger *slog.Logger
	now    func() time.Time
}

func NewRetentionUseCase(store ports.ContentStore, logger *slog.Logger) *RetentionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionUseCase{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (uc *RetentionUseCase) Prune(ctx context.Context, horizon time.Time) (int64, error) {
	if horizon.IsZero() {
		return 0, domain.WrapError(domain.ErrInvalidInput, "prune articles", errors.New("horizon is required"))
	}
	if horizon.After(uc.now().UTC()) {
		return 0, domain.WrapError(domain.ErrInvalidInput, "prune articles", errors.New("horizon is in the future"))
	}

	pruned, err := uc.store.PruneBefore(ctx, horizon.UTC())
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "prune articles", err)
	}
	uc.logger.Info("retention prune", "horizon", horizon.UTC().Format(time.RFC3339), "pruned", pruned)
	return pruned, nil
}
