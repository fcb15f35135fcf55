package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

func TestParseSoatStatus(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want domain.SoatStatus
	}{
		{"valid policy", "VIGENTE HASTA 2026-05-01", domain.SoatVigente},
		{"valid lowercase", "vigente", domain.SoatVigente},
		{"valid with whitespace", "  Vigente  ", domain.SoatVigente},
		{"expired policy contains the positive word", "NO VIGENTE DESDE 2020-03-15", domain.SoatNoVigente},
		{"expired lowercase", "no vigente", domain.SoatNoVigente},
		{"empty cell", "", domain.SoatNoVigente},
		{"unrelated text", "SIN INFORMACION", domain.SoatNoVigente},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.ParseSoatStatus(tc.raw))
		})
	}
}

func TestFailureOutcome_KeepsFirstLineOnly(t *testing.T) {
	outcome := domain.FailureOutcome("navigation failed: timeout\ngoroutine 42 [running]:\nmain.main()")

	assert.False(t, outcome.Success)
	assert.Equal(t, "navigation failed: timeout", outcome.FailureReason)
}

func TestSuccessOutcome(t *testing.T) {
	outcome := domain.SuccessOutcome(domain.SoatVigente, "No se encontraron limitaciones")

	assert.True(t, outcome.Success)
	assert.Equal(t, domain.SoatVigente, outcome.SoatStatus)
	assert.Equal(t, "No se encontraron limitaciones", outcome.Limitations)
	assert.Empty(t, outcome.FailureReason)
}
