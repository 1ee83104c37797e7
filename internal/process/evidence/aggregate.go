package evidence

import (
	"sync"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
	"github.com/mpull123/thriftpulse/internal/process/dedup"
)

// Aggregator tracks per-term channel flags for one run, keyed by dedupe key.
type Aggregator struct {
	mu      sync.Mutex
	flags   map[string]domain.ChannelFlags
	corpora map[domain.Channel]*Corpus
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		flags:   make(map[string]domain.ChannelFlags),
		corpora: make(map[domain.Channel]*Corpus),
	}
}

// Mark records that term surfaced in channel.
func (a *Aggregator) Mark(term string, ch domain.Channel) {
	key := dedup.Key(term)
	if key == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.flags[key]
	if !ok {
		f = domain.ChannelFlags{}
		a.flags[key] = f
	}

	f.Set(ch)
}

// AddCorpus records raw titles a channel saw, for cross-channel corroboration.
func (a *Aggregator) AddCorpus(ch domain.Channel, titles ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.corpora[ch]
	if !ok {
		c = &Corpus{}
		a.corpora[ch] = c
	}

	c.Add(titles...)
}

// Flags returns a copy of term's flags: channels that surfaced it plus
// channels whose corpus mentions it.
func (a *Aggregator) Flags(term string) domain.ChannelFlags {
	key := dedup.Key(term)

	a.mu.Lock()
	defer a.mu.Unlock()

	out := domain.ChannelFlags{}
	out.Merge(a.flags[key])

	for ch, c := range a.corpora {
		if !out[ch] && c.Mentions(term) {
			out.Set(ch)
		}
	}

	return out
}

// Corpus is a bag of titles tokenized for containment checks.
type Corpus struct {
	docs []map[string]bool
}

// Add tokenizes and stores titles.
func (c *Corpus) Add(titles ...string) {
	for _, t := range titles {
		toks := textnorm.Tokens(textnorm.StripDiacritics(textnorm.Clean(t)))
		if len(toks) == 0 {
			continue
		}

		set := make(map[string]bool, len(toks))
		for _, tok := range toks {
			set[tok] = true
		}

		c.docs = append(c.docs, set)
	}
}

// Len returns the number of stored titles.
func (c *Corpus) Len() int { return len(c.docs) }

// Mentions reports whether a single title contains every token of term.
func (c *Corpus) Mentions(term string) bool {
	toks := textnorm.Tokens(textnorm.StripDiacritics(dedup.Normalize(term)))
	if len(toks) == 0 {
		return false
	}

	for _, doc := range c.docs {
		all := true

		for _, tok := range toks {
			if !doc[tok] {
				all = false
				break
			}
		}

		if all {
			return true
		}
	}

	return false
}
