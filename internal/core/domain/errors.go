package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrArticleNotFound = errors.New("article not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrProfileNotFound = errors.New("profile not found")

	// ErrPersistence marks a failed store write. The only hard pipeline
	// failure: the caller re-submits the item on a later run, which is safe
	// because dedup makes retries idempotent.
	ErrPersistence = errors.New("persistence failure")

	// ErrTemporary marks failures worth retrying (queue hiccups and the like).
	ErrTemporary = errors.New("temporary failure")

	// Quote provider outcomes. None of these ever fail a profile read; they
	// degrade it to quote=null with an error marker.
	ErrQuoteRateLimited = errors.New("quote provider rate limited")
	ErrQuoteUnavailable = errors.New("quote provider unavailable")
	ErrUnknownTicker    = errors.New("unknown ticker")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
