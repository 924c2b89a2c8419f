package finance

import (
	"context"

	"github.com/xuri/excelize/v2"
)

// TransactionsXLSX renders the transaction register as an Excel workbook,
// optionally filtered by agency.
func (s *Store) TransactionsXLSX(ctx context.Context, agencyID string) ([]byte, error) {
	rows, _, err := s.ListTransactions(ctx, agencyID, "", 10000, 0)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	sheet := "Transactions"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Description", "Category", "Type", "Status", "Amount", "Recorded by", "Validated by"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(sheet, cell, header)
	}

	for i, t := range rows {
		values := []any{
			t.CreatedAt.Format("2006-01-02"),
			t.Description,
			t.Category,
			t.Type,
			t.Status,
			t.Amount.StringFixed(2),
			t.RecordedBy,
			t.ValidatedBy,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = file.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
