// Package collect implements the source channels a run draws candidate
// titles from: news and trend feeds, community feeds, AI-suggested terms,
// marketplace discovery listings and the operator's query pack.
package collect

import (
	"context"
	"errors"
	"strings"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

// Source names recorded on collector jobs and rejection rows.
const (
	SourceNewsRSS         = "news_rss"
	SourceSearchTrends    = "search_trends"
	SourceCommunity       = "community"
	SourceAICorpus        = "ai_corpus"
	SourceSecondaryMarket = "secondary_market"
	SourceQueryPack       = "query_pack"
)

const maxErrorMessage = 500

// Item is one raw title and the candidate terms extracted from it.
type Item struct {
	Title string
	Terms []string
}

// Batch is everything one collector produced in a run. Errs holds per-URL
// failures that did not stop the channel.
type Batch struct {
	Source  string
	Channel domain.Channel
	Items   []Item
	Errs    []error
}

// Titles returns the raw titles of every item.
func (b Batch) Titles() []string {
	out := make([]string, 0, len(b.Items))
	for _, it := range b.Items {
		out = append(out, it.Title)
	}

	return out
}

// Status maps a collect outcome to the job status it closes with.
func (b Batch) Status(err error) domain.JobStatus {
	switch {
	case err != nil:
		return domain.JobFailed
	case len(b.Errs) > 0:
		return domain.JobDegraded
	default:
		return domain.JobSuccess
	}
}

// ErrorMessage joins the collect error and partial failures for the job record.
func (b Batch) ErrorMessage(err error) string {
	all := make([]error, 0, len(b.Errs)+1)
	if err != nil {
		all = append(all, err)
	}

	all = append(all, b.Errs...)
	if len(all) == 0 {
		return ""
	}

	msg := strings.ReplaceAll(errors.Join(all...).Error(), "\n", "; ")

	return textnorm.Truncate(msg, maxErrorMessage)
}

// Collector produces one channel's batch. A returned error means the whole
// channel failed; partial failures are reported in Batch.Errs.
type Collector interface {
	Name() string
	Collect(ctx context.Context) (Batch, error)
}
