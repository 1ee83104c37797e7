package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpull123/thriftpulse/internal/core/ports"
)

// QueryPackCollector feeds the operator's active query-pack terms through
// classification. Query-pack terms carry no evidence channel.
type QueryPackCollector struct {
	repo ports.QueryTermRepository
}

var _ Collector = (*QueryPackCollector)(nil)

// NewQueryPackCollector creates a query-pack collector.
func NewQueryPackCollector(repo ports.QueryTermRepository) *QueryPackCollector {
	return &QueryPackCollector{repo: repo}
}

// Name implements Collector.
func (c *QueryPackCollector) Name() string { return SourceQueryPack }

// Collect lists active terms.
func (c *QueryPackCollector) Collect(ctx context.Context) (Batch, error) {
	batch := Batch{Source: SourceQueryPack}

	terms, err := c.repo.ListActiveQueryTerms(ctx)
	if err != nil {
		return batch, fmt.Errorf("list query terms: %w", err)
	}

	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		batch.Items = append(batch.Items, Item{Title: t, Terms: []string{t}})
	}

	return batch, nil
}
