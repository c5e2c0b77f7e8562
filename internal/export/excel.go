package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/cmcs/claims-api/internal/domain/entity"
)

const (
	invoiceSheet = "Claims"
	batchSheet   = "Payment Batch"

	dateLayout = "2006-01-02"
)

// ExcelExporter renders claim and payment batch reports as xlsx workbooks
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// InvoiceReport renders the period's claims, one row each, with a bold
// header and a total row. Lecturer names come from the lecturers map; claims
// with no matching lecturer show "Unknown".
func (e *ExcelExporter) InvoiceReport(claims []*entity.Claim, lecturers map[int64]*entity.Lecturer, start, end time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(invoiceSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	setCell := func(cell string, value interface{}) {
		_ = f.SetCellValue(invoiceSheet, cell, value)
	}

	setCell("A1", "Claims Invoice Report")
	setCell("A2", fmt.Sprintf("Period: %s to %s", start.Format(dateLayout), end.Format(dateLayout)))
	_ = f.SetCellStyle(invoiceSheet, "A1", "A1", bold)

	headers := []string{"Claim ID", "Lecturer", "Department", "Hours", "Amount", "Status", "Submitted", "Approved"}
	headerRow := 4
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		setCell(cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	_ = f.SetCellStyle(invoiceSheet, first, last, bold)

	row := headerRow + 1
	totalAmount := 0.0
	for _, c := range claims {
		name, dept := "Unknown", ""
		if l, ok := lecturers[c.LecturerID]; ok {
			name, dept = l.Name, l.Department
		}
		approved := ""
		if c.ApprovalDate != nil {
			approved = c.ApprovalDate.Format(dateLayout)
		}

		amount, _ := c.Amount.Float64()
		totalAmount += amount

		values := []interface{}{
			c.ID, name, dept, c.HoursWorked.InexactFloat64(), amount,
			c.Status.String(), c.SubmissionDate.Format(dateLayout), approved,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			setCell(cell, v)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(4, row)
	totalCell, _ := excelize.CoordinatesToCellName(5, row)
	setCell(totalLabel, "Total")
	setCell(totalCell, totalAmount)
	_ = f.SetCellStyle(invoiceSheet, totalLabel, totalCell, bold)

	buf, err := f.WriteToBuffer()
	if err != nil {
		e.logger.Error("Failed to render invoice report", zap.Error(err))
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	e.logger.Debug("Invoice report rendered", zap.Int("claims", len(claims)))
	return buf.Bytes(), nil
}

// BatchReport renders one payment batch: the batch summary on top, then a
// row per paid claim
func (e *ExcelExporter) BatchReport(batch *entity.PaymentBatch, claims []*entity.Claim, lecturers map[int64]*entity.Lecturer) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(batchSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	setCell := func(cell string, value interface{}) {
		_ = f.SetCellValue(batchSheet, cell, value)
	}

	setCell("A1", fmt.Sprintf("Payment Batch %s", batch.BatchNumber))
	setCell("A2", fmt.Sprintf("Generated %s by %s", batch.GeneratedAt.Format(dateLayout), batch.GeneratedBy))
	setCell("A3", fmt.Sprintf("%d claims, total %s", batch.TotalClaims, batch.TotalAmount.StringFixed(2)))
	_ = f.SetCellStyle(batchSheet, "A1", "A1", bold)

	headers := []string{"Claim ID", "Lecturer", "Hours", "Amount", "Payment Date"}
	headerRow := 5
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		setCell(cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	_ = f.SetCellStyle(batchSheet, first, last, bold)

	row := headerRow + 1
	for _, c := range claims {
		name := "Unknown"
		if l, ok := lecturers[c.LecturerID]; ok {
			name = l.Name
		}
		paid := ""
		if c.PaymentDate != nil {
			paid = c.PaymentDate.Format(dateLayout)
		}

		values := []interface{}{c.ID, name, c.HoursWorked.InexactFloat64(), c.Amount.InexactFloat64(), paid}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			setCell(cell, v)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		e.logger.Error("Failed to render batch report", zap.Error(err))
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
