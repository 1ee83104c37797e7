// Package evidence gathers per-term evidence: sold-listing price samples from
// a marketplace search and channel hit flags from the run's collectors.
package evidence

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mpull123/thriftpulse/internal/core/domain"
)

var (
	minPrice = decimal.NewFromInt(5)
	maxPrice = decimal.NewFromInt(5000)

	numberRe      = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	currencyNoise = strings.NewReplacer("$", "", "£", "", "€", "", ",", "")
)

// Percentile ranks used for low, median and high.
const (
	lowRank    = 0.25
	medianRank = 0.5
	highRank   = 0.75
)

// ParsePrice extracts a price from listing text such as "$1,249.99" or
// "$40.00 to $55.00" (the first number wins). Prices outside (5, 5000) are
// rejected as placeholders or garbage.
func ParsePrice(text string) (decimal.Decimal, bool) {
	m := numberRe.FindString(currencyNoise.Replace(text))
	if m == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}

	if !d.GreaterThan(minPrice) || !d.LessThan(maxPrice) {
		return decimal.Zero, false
	}

	return d, true
}

// Percentile returns the nearest-rank value at ratio: the sorted element at
// index floor((n-1)*ratio), floored to an integer. sorted must be ascending.
func Percentile(sorted []decimal.Decimal, ratio float64) int {
	if len(sorted) == 0 {
		return 0
	}

	idx := int(float64(len(sorted)-1) * ratio)

	return int(sorted[idx].Floor().IntPart())
}

// ComputeStats summarizes samples. With no samples, Avg is fallback and every
// other field is zero; that is valid low-evidence output, not a failure.
func ComputeStats(samples []decimal.Decimal, fallback int) domain.PriceStats {
	if len(samples) == 0 {
		return domain.PriceStats{Avg: fallback}
	}

	sorted := append([]decimal.Decimal(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	sum := decimal.Zero
	for _, s := range sorted {
		sum = sum.Add(s)
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(sorted)))).Floor()

	return domain.PriceStats{
		Avg:         int(avg.IntPart()),
		Low:         Percentile(sorted, lowRank),
		Median:      Percentile(sorted, medianRank),
		High:        Percentile(sorted, highRank),
		SampleCount: len(sorted),
	}
}

// SpreadPct is (high-low)/low*100 over the comp range, or 0 without a low.
func SpreadPct(stats domain.PriceStats) float64 {
	if stats.Low <= 0 {
		return 0
	}

	return float64(stats.High-stats.Low) / float64(stats.Low) * 100
}
