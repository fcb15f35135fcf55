package domain

import (
	"strings"
)

// VisualClass annotates a report cell independent of the serialization format.
// The Excel writer maps Positive to a light green fill and Negative to a light
// red fill; VisualNone cells stay unstyled.
type VisualClass string

const (
	VisualNone     VisualClass = ""
	VisualPositive VisualClass = "positive"
	VisualNegative VisualClass = "negative"
)

const ErrorCell = "Error"

// ReportRow is one output line: plate plus the two result cells with their
// visual annotation.
type ReportRow struct {
	Plate             string
	Soat              string
	SoatClass         VisualClass
	Limitaciones      string
	LimitacionesClass VisualClass
}

// Report is the ordered row set handed to the artifact writer. Row order is
// the arrival order of settled results, not the input order.
type Report struct {
	Rows []ReportRow
}

// BuildReport classifies every settled result into a row. Failed requests are
// kept as "Error"/"Error" rows rather than dropped, so the failure count stays
// reconcilable against the batch total.
func BuildReport(results []RequestResult) *Report {
	rows := make([]ReportRow, 0, len(results))
	for _, result := range results {
		rows = append(rows, classifyResult(result))
	}
	return &Report{Rows: rows}
}

func classifyResult(result RequestResult) ReportRow {
	if !result.Outcome.Success {
		return ReportRow{
			Plate:        result.Request.Plate,
			Soat:         ErrorCell,
			Limitaciones: ErrorCell,
		}
	}

	return ReportRow{
		Plate:             result.Request.Plate,
		Soat:              string(result.Outcome.SoatStatus),
		SoatClass:         classifySoat(string(result.Outcome.SoatStatus)),
		Limitaciones:      result.Outcome.Limitations,
		LimitacionesClass: classifyLimitaciones(result.Outcome.Limitations),
	}
}

func classifySoat(cell string) VisualClass {
	switch cell {
	case ErrorCell:
		return VisualNone
	case string(SoatVigente):
		return VisualPositive
	default:
		return VisualNegative
	}
}

// classifyLimitaciones flags any real limitation text red. Text affirming that
// the vehicle has no limitations, or that the portal found nothing, is good
// news and goes green.
func classifyLimitaciones(cell string) VisualClass {
	if cell == ErrorCell || cell == "" {
		return VisualNone
	}
	text := strings.ToLower(cell)
	if strings.Contains(text, "no tiene limitaciones a la propiedad") ||
		strings.Contains(text, "no se encontraron") ||
		strings.Contains(text, "no se encontró") {
		return VisualPositive
	}
	return VisualNegative
}
