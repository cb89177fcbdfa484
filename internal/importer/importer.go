// Package importer inserts externally sourced categories into a month.
//
// Parsing spreadsheets or pasted text into name/amount pairs is the job of
// the caller; this package only takes the resulting pairs across the engine
// boundary.
package importer

import (
	"strings"

	"pennywise/internal/ledger"
	"pennywise/internal/types"

	"github.com/shopspring/decimal"
)

// ParsedCategory is one category to import, as delivered by an external
// parser.
type ParsedCategory struct {
	Name      string
	Allocated decimal.Decimal
}

// Result reports what a batch import did.
type Result struct {
	Created int
	Skipped int
}

// Import inserts the parsed categories into the month, one by one. A pair
// whose name already exists in the month (ignoring case) is skipped rather
// than duplicated, and a pair failing validation is skipped without
// affecting the rest of the batch.
func Import(l *ledger.Ledger, month types.Month, categories []ParsedCategory) (Result, error) {
	period, err := l.GetMonth(month)
	if err != nil {
		return Result{}, err
	}

	existing := make(map[string]bool, len(period.Categories))
	for _, category := range period.Categories {
		existing[strings.ToLower(category.Name)] = true
	}

	var result Result
	for _, parsed := range categories {
		name := strings.TrimSpace(parsed.Name)
		if existing[strings.ToLower(name)] {
			result.Skipped++
			continue
		}

		_, err := l.AddCategory(month, ledger.CategoryParams{
			Name:      name,
			Allocated: parsed.Allocated,
		})
		if err != nil {
			result.Skipped++
			continue
		}

		existing[strings.ToLower(name)] = true
		result.Created++
	}

	return result, nil
}
