package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

func result(plate string, outcome domain.Outcome) domain.RequestResult {
	return domain.RequestResult{
		Request: domain.LookupRequest{Plate: plate, DocumentNumber: "900123456"},
		Outcome: outcome,
	}
}

func TestBuildReport_SuccessRows(t *testing.T) {
	report := domain.BuildReport([]domain.RequestResult{
		result("ABC123", domain.SuccessOutcome(domain.SoatVigente, "El vehículo NO tiene limitaciones a la propiedad")),
		result("DEF456", domain.SuccessOutcome(domain.SoatNoVigente, "PRENDA A FAVOR DE BANCO XYZ")),
	})

	assert.Len(t, report.Rows, 2)

	valid := report.Rows[0]
	assert.Equal(t, "ABC123", valid.Plate)
	assert.Equal(t, "Vigente", valid.Soat)
	assert.Equal(t, domain.VisualPositive, valid.SoatClass)
	assert.Equal(t, domain.VisualPositive, valid.LimitacionesClass)

	expired := report.Rows[1]
	assert.Equal(t, "No Vigente", expired.Soat)
	assert.Equal(t, domain.VisualNegative, expired.SoatClass)
	assert.Equal(t, domain.VisualNegative, expired.LimitacionesClass)
}

// Failed requests become Error/Error rows with no styling, never dropped.
func TestBuildReport_FailureRow(t *testing.T) {
	report := domain.BuildReport([]domain.RequestResult{
		result("XXX000", domain.FailureOutcome("challenge rejected")),
	})

	assert.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, "XXX000", row.Plate)
	assert.Equal(t, domain.ErrorCell, row.Soat)
	assert.Equal(t, domain.ErrorCell, row.Limitaciones)
	assert.Equal(t, domain.VisualNone, row.SoatClass)
	assert.Equal(t, domain.VisualNone, row.LimitacionesClass)
}

func TestBuildReport_LimitacionesClassification(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.VisualClass
	}{
		{"explicit no limitations", "El vehículo NO tiene limitaciones a la propiedad", domain.VisualPositive},
		{"nothing found plural", "No se encontraron limitaciones", domain.VisualPositive},
		{"nothing found singular", "No se encontró información", domain.VisualPositive},
		{"real limitation", "PRENDA A FAVOR DE BANCO XYZ", domain.VisualNegative},
		{"empty cell", "", domain.VisualNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := domain.BuildReport([]domain.RequestResult{
				result("ABC123", domain.SuccessOutcome(domain.SoatVigente, tc.text)),
			})
			assert.Equal(t, tc.want, report.Rows[0].LimitacionesClass)
		})
	}
}

// Outcomes arrive with the limitations text already folded to one line; the
// report cell carries it through verbatim.
func TestBuildReport_PassesLimitacionesThrough(t *testing.T) {
	report := domain.BuildReport([]domain.RequestResult{
		result("ABC123", domain.SuccessOutcome(domain.SoatVigente, "PRENDA A FAVOR DE BANCO XYZ")),
	})

	assert.Equal(t, "PRENDA A FAVOR DE BANCO XYZ", report.Rows[0].Limitaciones)
}

func TestBuildReport_Empty(t *testing.T) {
	report := domain.BuildReport(nil)
	assert.Empty(t, report.Rows)
}
