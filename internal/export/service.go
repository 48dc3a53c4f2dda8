package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/owlin/docintake/internal/entity"
)

// Service produces XLSX bytes from intake results for downstream review.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) listing the batch's
// canonical invoices, one row per invoice.
func (s *Service) ExportInvoicesXLSX(result entity.IntakeResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Supplier",
		"Invoice Number",
		"Invoice Date",
		"Currency",
		"Total",
		"Tax",
		"Confidence",
		"Extraction Method",
		"Source Pages",
		"Source Segments",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, inv := range result.CanonicalInvoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, inv.SupplierName)
		write(2, inv.InvoiceNumber)
		write(3, inv.InvoiceDate)
		write(4, inv.Currency)
		write(5, inv.Total)
		write(6, inv.Tax)
		write(7, fmt.Sprintf("%.2f", inv.Confidence))
		write(8, inv.ExtractionMethod)
		write(9, joinInts(inv.SourcePages))
		write(10, strings.Join(inv.SourceSegments, ", "))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // supplier
	_ = f.SetColWidth(sheet, "B", "C", 16) // number, date
	_ = f.SetColWidth(sheet, "D", "F", 10) // currency, amounts
	_ = f.SetColWidth(sheet, "H", "H", 18) // method
	_ = f.SetColWidth(sheet, "I", "J", 36) // provenance

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(result.CanonicalInvoices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func joinInts(nums []int) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ", ")
}
