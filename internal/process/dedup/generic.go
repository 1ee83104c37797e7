package dedup

import (
	"github.com/rs/zerolog"

	"github.com/mpull123/thriftpulse/internal/core/domain"
)

// Log key constants for deduplication.
const (
	logKeySkippedTerm = "skipped_term"
	logKeyDuplicateOf = "duplicate_of"
)

// DeduplicateResult contains the result of deduplication with metadata.
type DeduplicateResult[T domain.Termed] struct {
	// Items contains the deduplicated items in input order.
	Items []T

	// DroppedCount is the number of items removed as duplicates.
	DroppedCount int

	// DuplicateMap maps each dedupe key to the index in Items of the item
	// that kept it.
	DuplicateMap map[string]int
}

// DeduplicateTerms keeps the first item per dedupe key and drops the rest.
func DeduplicateTerms[T domain.Termed](items []T, logger *zerolog.Logger) DeduplicateResult[T] {
	result := DeduplicateResult[T]{
		Items:        make([]T, 0, len(items)),
		DuplicateMap: make(map[string]int, len(items)),
	}

	for _, item := range items {
		key := Key(item.GetTerm())
		if key == "" {
			result.DroppedCount++
			continue
		}

		if idx, ok := result.DuplicateMap[key]; ok {
			result.DroppedCount++

			if logger != nil {
				logger.Debug().
					Str(logKeySkippedTerm, item.GetTerm()).
					Str(logKeyDuplicateOf, result.Items[idx].GetTerm()).
					Msg("Skipping duplicate term")
			}

			continue
		}

		result.DuplicateMap[key] = len(result.Items)
		result.Items = append(result.Items, item)
	}

	return result
}
