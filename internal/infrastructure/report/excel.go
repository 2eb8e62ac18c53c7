// Package report renders company profiles to an Excel workbook for the
// sales team. Quotes and signal history come in already enriched; this
// layer only formats.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

const profilesSheet = "Profiles"

var profileHeaders = []string{
	"company_id",
	"company",
	"aggregate_score",
	"top_signal_types",
	"last_signal_at",
	"ticker",
	"price",
	"change",
	"quote_error",
}

// WriteProfiles writes one row per enriched profile, ordered as given.
func WriteProfiles(w io.Writer, profiles []domain.EnrichedProfile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", profilesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range profileHeaders {
		if err := setCell(f, i+1, 1, header); err != nil {
			return err
		}
	}

	for rowIdx, profile := range profiles {
		row := profileRow(profile)
		for colIdx, value := range row {
			if err := setCell(f, colIdx+1, rowIdx+2, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func profileRow(profile domain.EnrichedProfile) []any {
	types := make([]string, 0, len(profile.TopSignals))
	var lastAt time.Time
	for _, signal := range profile.TopSignals {
		types = append(types, string(signal.Type))
		if signal.DetectedAt.After(lastAt) {
			lastAt = signal.DetectedAt
		}
	}

	lastSignal := ""
	if !lastAt.IsZero() {
		lastSignal = lastAt.UTC().Format(time.RFC3339)
	}

	ticker, price, change := "", any(""), any("")
	if profile.Quote != nil {
		ticker = profile.Quote.Ticker
		price = profile.Quote.Price
		change = profile.Quote.Change
	}

	return []any{
		profile.CompanyID,
		profile.CanonicalName,
		profile.AggregateScore,
		strings.Join(types, ", "),
		lastSignal,
		ticker,
		price,
		change,
		profile.QuoteError,
	}
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell coordinates: %w", err)
	}
	if err := f.SetCellValue(profilesSheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
