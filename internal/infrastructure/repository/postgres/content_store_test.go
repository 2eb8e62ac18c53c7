package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

func newContentStoreWithMock(t *testing.T) (*ContentStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ContentStore{db: db}, mock, func() { _ = db.Close() }
}

func testArticle(publishedAt time.Time) *domain.Article {
	return &domain.Article{
		Fingerprint: "fp-1",
		URL:         "https://example.com/a",
		Title:       "t",
		Body:        "b",
		PublishedAt: publishedAt,
		FetchedAt:   publishedAt.Add(time.Hour),
	}
}

func TestAdmitAcceptsNewFingerprint(t *testing.T) {
	store, mock, done := newContentStoreWithMock(t)
	defer done()

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO articles").
		WillReturnResult(sqlmock.NewResult(0, 1))

	admission, err := store.Admit(context.Background(), testArticle(cutoff.AddDate(0, 0, 5)), cutoff)
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if admission.Status != domain.AdmissionAccepted {
		t.Fatalf("status = %q, want accepted", admission.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAdmitRejectsDuplicate(t *testing.T) {
	store, mock, done := newContentStoreWithMock(t)
	defer done()

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO articles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	admission, err := store.Admit(context.Background(), testArticle(cutoff.AddDate(0, 0, 5)), cutoff)
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if admission.Status != domain.AdmissionDuplicate {
		t.Fatalf("status = %q, want duplicate", admission.Status)
	}
	if admission.DuplicateOf != "fp-1" {
		t.Fatalf("duplicateOf = %q", admission.DuplicateOf)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAdmitCutoffBoundary(t *testing.T) {
	store, mock, done := newContentStoreWithMock(t)
	defer done()

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// publishedAt == cutoff is inside the window and hits the database.
	mock.ExpectExec("INSERT INTO articles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	admission, err := store.Admit(context.Background(), testArticle(cutoff), cutoff)
	if err != nil {
		t.Fatalf("Admit(at cutoff) error = %v", err)
	}
	if admission.Status != domain.AdmissionAccepted {
		t.Fatalf("status at cutoff = %q, want accepted", admission.Status)
	}

	// One day earlier is rejected without touching the database at all.
	admission, err = store.Admit(context.Background(), testArticle(cutoff.AddDate(0, 0, -1)), cutoff)
	if err != nil {
		t.Fatalf("Admit(before cutoff) error = %v", err)
	}
	if admission.Status != domain.AdmissionBeforeCutoff {
		t.Fatalf("status before cutoff = %q, want before_cutoff", admission.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAdmitWrapsPersistenceFailure(t *testing.T) {
	store, mock, done := newContentStoreWithMock(t)
	defer done()

	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO articles").
		WillReturnError(context.DeadlineExceeded)

	_, err := store.Admit(context.Background(), testArticle(cutoff.AddDate(0, 0, 5)), cutoff)
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAnnotateWritesCategoryAndBody(t *testing.T) {
	store, mock, done := newContentStoreWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE articles").
		WithArgs("fp-1", "automation", "sanitized text").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Annotate(context.Background(), "fp-1", "automation", "sanitized text"); err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPruneBeforeReturnsDroppedCount(t *testing.T) {
	store, mock, done := newContentStoreWithMock(t)
	defer done()

	horizon := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM articles").
		WithArgs(horizon).
		WillReturnResult(sqlmock.NewResult(0, 7))

	dropped, err := store.PruneBefore(context.Background(), horizon)
	if err != nil {
		t.Fatalf("PruneBefore() error = %v", err)
	}
	if dropped != 7 {
		t.Fatalf("dropped = %d, want 7", dropped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
