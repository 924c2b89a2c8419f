package payroll

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// RegisterXLSX renders the payroll register of a run as an Excel workbook.
func (s *Store) RegisterXLSX(ctx context.Context, runID string) ([]byte, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	rows, err := s.RegisterRows(ctx, runID)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	sheet := "Register"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value any) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Payroll run")
	set("B1", fmt.Sprintf("%02d/%d", run.Month, run.Year))
	set("A2", "Status")
	set("B2", run.Status)
	set("A3", "Total net")
	set("B3", run.TotalAmount.StringFixed(2))

	headerRow := 5
	headers := []string{"Matricule", "Last name", "First name", "Base salary", "Bonus", "Deductions", "Net salary"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, header)
	}

	for i, row := range rows {
		lineRow := headerRow + 1 + i
		values := []any{
			row.Matricule,
			row.LastName,
			row.FirstName,
			row.BaseSalary.StringFixed(2),
			row.Bonus.StringFixed(2),
			row.Deductions.StringFixed(2),
			row.NetSalary.StringFixed(2),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, lineRow)
			set(cell, value)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
