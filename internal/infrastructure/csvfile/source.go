package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

// Source reads the input batch from a local CSV with a header row and columns
// [placa, numero_documento]. Mainly for the one-shot CLI, which should not
// require Google credentials.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) FetchRequests(ctx context.Context) ([]domain.LookupRequest, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open input csv failed: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse input csv failed: %w", err)
	}
	if len(records) == 0 {
		return []domain.LookupRequest{}, nil
	}

	// skip header
	requests := make([]domain.LookupRequest, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		plate := strings.TrimSpace(record[0])
		docNumber := strings.TrimSpace(record[1])
		if plate == "" || docNumber == "" {
			continue
		}
		requests = append(requests, domain.LookupRequest{
			Plate:          plate,
			DocumentNumber: docNumber,
		})
	}
	return requests, nil
}

var _ domain.RequestSource = (*Source)(nil)
