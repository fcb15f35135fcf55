package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

const (
	sheetName  = "Sheet1"
	greenFill  = "C6EFCE"
	redFill    = "FFC7CE"
	xlsxMIME   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	soatCol    = "B"
	limitCol   = "C"
)

var header = []interface{}{"Placa", "SOAT", "Limitaciones"}

// Writer renders a report as an xlsx workbook: header row, one row per
// request, cell fills per visual class.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) ContentType() string {
	return xlsxMIME
}

func (w *Writer) Render(report *domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	positive, err := fillStyle(f, greenFill)
	if err != nil {
		return nil, err
	}
	negative, err := fillStyle(f, redFill)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header failed: %w", err)
	}

	for i, row := range report.Rows {
		rowIdx := i + 2
		cells := []interface{}{row.Plate, row.Soat, row.Limitaciones}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", rowIdx), &cells); err != nil {
			return nil, fmt.Errorf("write row %d failed: %w", rowIdx, err)
		}
		if err := applyClass(f, fmt.Sprintf("%s%d", soatCol, rowIdx), row.SoatClass, positive, negative); err != nil {
			return nil, err
		}
		if err := applyClass(f, fmt.Sprintf("%s%d", limitCol, rowIdx), row.LimitacionesClass, positive, negative); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("create fill style failed: %w", err)
	}
	return style, nil
}

func applyClass(f *excelize.File, cell string, class domain.VisualClass, positive, negative int) error {
	var style int
	switch class {
	case domain.VisualPositive:
		style = positive
	case domain.VisualNegative:
		style = negative
	default:
		return nil
	}
	if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
		return fmt.Errorf("style cell %s failed: %w", cell, err)
	}
	return nil
}

var _ domain.ReportWriter = (*Writer)(nil)
