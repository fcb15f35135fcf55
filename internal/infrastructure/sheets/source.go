package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// Source reads the input batch from a Google Sheet. Column A holds the plate,
// column B the document number; row 1 is the header and excluded by the read
// range.
type Source struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	logger        logger.Logger
}

func NewSource(ctx context.Context, credentialsFile, spreadsheetID, readRange string, log logger.Logger) (*Source, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials failed: %w", err)
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(creds),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service failed: %w", err)
	}

	return &Source{
		service:       service,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		logger:        log,
	}, nil
}

func (s *Source) FetchRequests(ctx context.Context) ([]domain.LookupRequest, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read google sheet failed: %w", err)
	}

	requests := make([]domain.LookupRequest, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		plate := strings.TrimSpace(fmt.Sprint(row[0]))
		docNumber := strings.TrimSpace(fmt.Sprint(row[1]))
		if plate == "" || docNumber == "" {
			continue
		}
		requests = append(requests, domain.LookupRequest{
			Plate:          plate,
			DocumentNumber: docNumber,
		})
	}

	s.logger.Infof(ctx, "[Sheets] fetched %d requests", len(requests))
	return requests, nil
}

var _ domain.RequestSource = (*Source)(nil)
