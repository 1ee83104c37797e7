package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSourcesYAML []byte

// Selectors locate listing rows in a marketplace results page.
type Selectors struct {
	Item  string `yaml:"item"`
	Title string `yaml:"title"`
	Price string `yaml:"price"`
	Link  string `yaml:"link"`
}

// Marketplace holds sold-listing and discovery URL templates. Templates take
// one %s, the query-escaped search term.
type Marketplace struct {
	SoldURL          string    `yaml:"sold_url"`
	DiscoveryURL     string    `yaml:"discovery_url"`
	DiscoveryQueries []string  `yaml:"discovery_queries"`
	Selectors        Selectors `yaml:"selectors"`
}

// Sources lists the URLs each collector reads.
type Sources struct {
	NewsFeeds          []string    `yaml:"news_feeds"`
	TrendFeeds         []string    `yaml:"trend_feeds"`
	CommunityFeeds     []string    `yaml:"community_feeds"`
	CommunitySearchURL string      `yaml:"community_search_url"`
	Marketplace        Marketplace `yaml:"marketplace"`
}

// DefaultSources returns the embedded source lists.
func DefaultSources() (Sources, error) {
	var s Sources
	if err := yaml.Unmarshal(defaultSourcesYAML, &s); err != nil {
		return Sources{}, fmt.Errorf("parse embedded sources: %w", err)
	}

	return s, nil
}

// LoadSources reads path over the embedded defaults. Keys absent from the
// file keep their default; an empty path returns the defaults.
func LoadSources(path string) (Sources, error) {
	s, err := DefaultSources()
	if err != nil {
		return Sources{}, err
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Sources{}, fmt.Errorf("read sources file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Sources{}, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	return s, nil
}
