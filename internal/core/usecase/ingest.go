package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/ports"
)

type IngestRunUseCase struct {
	queue ports.MessageQueue
	now   func() time.Time
}

func NewIngestRunUseCase(queue ports.MessageQueue) *IngestRunUseCase {
	return &IngestRunUseCase{
		queue: queue,
		now:   time.Now,
	}
}

// RunReceipt reports what a crawl-run submission produced: the run id and
// how many items were queued for the workers.
type RunReceipt struct {
	RunID  string `json:"run_id"`
	Queued int    `json:"queued"`
}

// Submit fans a crawl run out to the worker queue, one task per item. Items
// without a URL are rejected up front; the run is all-or-nothing only up to
// the first publish failure, which is fine because re-submitting a run is
// idempotent downstream.
func (uc *IngestRunUseCase) Submit(ctx context.Context, cutoff time.Time, items []domain.RawItem) (*RunReceipt, error) {
	if cutoff.IsZero() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit crawl run", errors.New("cutoff is required"))
	}
	if len(items) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit crawl run", errors.New("no items"))
	}
	for i, item := range items {
		if strings.TrimSpace(item.URL) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "submit crawl run", fmt.Errorf("item %d has no url", i))
		}
	}

	runID := uuid.NewString()
	now := uc.now().UTC()

	queued := 0
	for _, item := range items {
		if item.FetchedAt.IsZero() {
			item.FetchedAt = now
		}
		task := domain.CrawlTask{
			RunID:  runID,
			Cutoff: cutoff.UTC(),
			Item:   item,
		}
		if err := uc.queue.PublishCrawlTask(ctx, task); err != nil {
			return nil, fmt.Errorf("publish crawl task %d/%d: %w", queued+1, len(items), err)
		}
		queued++
	}

	return &RunReceipt{RunID: runID, Queued: queued}, nil
}
