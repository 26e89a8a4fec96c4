// Package report renders usage history as spreadsheet exports.
package report

import (
	"bytes"
	"fmt"

	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	"github.com/xuri/excelize/v2"
)

const usageSheet = "Usage"

// UsageWorkbook renders the user's usage history plus the current balance
// into an xlsx workbook.
func UsageWorkbook(token *quotadomain.ServiceToken, records []quotadomain.UsageRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", usageSheet)

	headers := []string{"Charged At", "Request ID", "Provider", "Minutes"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(usageSheet, cell, header); err != nil {
			return nil, err
		}
	}

	var total float64
	for i, record := range records {
		row := i + 2
		values := []any{
			record.CreatedAt.Format("2006-01-02 15:04:05"),
			record.RequestID,
			record.Provider,
			record.ChargedMinutes,
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(usageSheet, cell, value); err != nil {
				return nil, err
			}
		}
		total += record.ChargedMinutes
	}

	summaryRow := len(records) + 3
	summary := [][2]any{
		{"Total charged minutes", total},
	}
	if token != nil {
		summary = append(summary,
			[2]any{"Quota minutes", token.QuotaMinutes},
			[2]any{"Used minutes", token.UsedMinutes},
			[2]any{"Remaining minutes", token.Remaining()},
			[2]any{"Expiry", token.ExpiryDate.Format("2006-01-02")},
		)
	}
	for i, line := range summary {
		if err := f.SetCellValue(usageSheet, fmt.Sprintf("A%d", summaryRow+i), line[0]); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(usageSheet, fmt.Sprintf("B%d", summaryRow+i), line[1]); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
