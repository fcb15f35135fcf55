package domain

import (
	"strings"
)

// LookupRequest is one vehicle to query: plate plus the owner document number.
// Duplicates are processed independently.
type LookupRequest struct {
	Plate          string
	DocumentNumber string
}

// SoatStatus is the normalized SOAT policy state extracted from the portal.
type SoatStatus string

const (
	SoatVigente   SoatStatus = "Vigente"
	SoatNoVigente SoatStatus = "No Vigente"
)

// ParseSoatStatus normalizes the raw cell text. The negated form wins: the
// portal renders "NO VIGENTE DESDE ..." which contains "vigente" as a
// substring, so the bare positive match alone is not authoritative.
func ParseSoatStatus(raw string) SoatStatus {
	text := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(text, "vigente") && !strings.Contains(text, "no vigente") {
		return SoatVigente
	}
	return SoatNoVigente
}

// Outcome is the tagged result of a settled lookup. Exactly one of the two
// branches is populated.
type Outcome struct {
	Success       bool
	SoatStatus    SoatStatus
	Limitations   string
	FailureReason string
}

func SuccessOutcome(status SoatStatus, limitations string) Outcome {
	return Outcome{
		Success:     true,
		SoatStatus:  status,
		Limitations: limitations,
	}
}

// FailureOutcome keeps only the first line of the reason so stack dumps from
// the driver never leak into reports.
func FailureOutcome(reason string) Outcome {
	if i := strings.IndexByte(reason, '\n'); i >= 0 {
		reason = reason[:i]
	}
	return Outcome{
		Success:       false,
		FailureReason: reason,
	}
}

// RequestResult is the final, retry-settled outcome for one input request.
// Every input request yields exactly one.
type RequestResult struct {
	Request LookupRequest
	Outcome Outcome
}

// ChallengeSolution is the solver's answer for one captcha image. SolutionID
// is an opaque token used only to report a wrong solve back to the solver.
type ChallengeSolution struct {
	Code       string
	SolutionID string
}
