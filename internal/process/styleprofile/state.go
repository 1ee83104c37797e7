package styleprofile

import (
	"strings"
	"time"

	"github.com/mpull123/thriftpulse/internal/core/domain"
	"github.com/mpull123/thriftpulse/internal/core/textnorm"
)

// GuidanceState is how a signal's style guidance should be presented.
type GuidanceState string

const (
	StateOK              GuidanceState = "ok"
	StateNeedsGeneration GuidanceState = "needs_generation"
	StateFailed          GuidanceState = "failed"
)

const reasonMissing = "Style guidance has not been generated for this node yet."

// Guidance is the readable state of a stored style profile.
type Guidance struct {
	OK      bool
	State   GuidanceState
	Status  domain.StyleProfileStatus
	Reason  string
	Profile *domain.StyleProfile
}

// NormalizeStatus maps unknown or empty stored statuses to missing.
func NormalizeStatus(s domain.StyleProfileStatus) domain.StyleProfileStatus {
	v := domain.StyleProfileStatus(strings.ToLower(textnorm.CompactWhitespace(string(s))))

	switch v {
	case domain.StyleStatusOK, domain.StyleStatusInvalid, domain.StyleStatusMissing, domain.StyleStatusError:
		return v
	default:
		return domain.StyleStatusMissing
	}
}

// ParseFromNode derives the guidance state of a stored signal. A profile
// that still validates is usable unless the status says error; an error
// from on-demand generation is a hard failure, anything else just needs
// generating.
func ParseFromNode(sig domain.MarketSignal) Guidance {
	title := strings.TrimSpace(sig.TrendName)
	status := NormalizeStatus(sig.StyleProfileStatus)
	errText := textnorm.CompactWhitespace(sig.StyleProfileError)

	profile, err := Revalidate(sig.StyleProfile, title)
	valid := err == nil

	if valid && status != domain.StyleStatusError {
		return Guidance{OK: true, State: StateOK, Status: domain.StyleStatusOK, Profile: &profile}
	}

	if status == domain.StyleStatusError && strings.Contains(strings.ToLower(errText), "on_demand") {
		return Guidance{State: StateFailed, Status: status, Reason: errText}
	}

	if errText == "" {
		errText = reasonMissing
	}

	return Guidance{State: StateNeedsGeneration, Status: status, Reason: errText}
}

// ShouldRefresh reports whether a signal's profile must be regenerated:
// missing, not ok, no longer valid, undated, or older than ttlDays
// (minimum one day).
func ShouldRefresh(sig domain.MarketSignal, ttlDays int, now time.Time) bool {
	if sig.StyleProfile == nil || NormalizeStatus(sig.StyleProfileStatus) != domain.StyleStatusOK {
		return true
	}

	if _, err := Revalidate(sig.StyleProfile, sig.TrendName); err != nil {
		return true
	}

	if sig.StyleProfileUpdatedAt.IsZero() {
		return true
	}

	ttl := time.Duration(max(1, ttlDays)) * 24 * time.Hour

	return now.Sub(sig.StyleProfileUpdatedAt) > ttl
}

// IsStyleLikeTrack gates generation to style tracks. An empty track counts.
func IsStyleLikeTrack(track string) bool {
	v := strings.ToLower(textnorm.CompactWhitespace(track))

	return v == "" || strings.Contains(v, "style")
}
