package domain

// TermType is the classifier's categorization of a candidate term.
type TermType string

const (
	TermRejected   TermType = "rejected"
	TermBrand      TermType = "brand"
	TermStyle      TermType = "style"
	TermBrandStyle TermType = "brand_style"
)

// Verdict is the classifier output for one term. Brand is empty when no
// brand was detected.
type Verdict struct {
	OK     bool     `json:"ok"`
	Reason string   `json:"reason"`
	Type   TermType `json:"type"`
	Brand  string   `json:"brand,omitempty"`
}

// Candidate is a normalized term surfaced by a collector, carrying the raw
// title it came from and its verdict.
type Candidate struct {
	Term     string
	Key      string
	RawTitle string
	Source   string
	Verdict  Verdict
}

// Termed is implemented by anything that can be deduplicated by its term.
type Termed interface {
	GetTerm() string
}

// GetTerm implements Termed.
func (c Candidate) GetTerm() string { return c.Term }
