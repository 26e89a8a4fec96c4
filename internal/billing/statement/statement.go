// Package statement renders a monthly billing row as a PDF document.
package statement

import (
	"bytes"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
)

// Render produces the PDF statement for one billing row.
func Render(billing *billingdomain.MonthlyBilling) (io.Reader, error) {
	if billing == nil {
		return nil, fmt.Errorf("nil billing row")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Transcription Service Statement", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New(fmt.Sprintf("Statement ID: %s", billing.ID), props.Text{Top: 0}),
			text.New(fmt.Sprintf("Billing period: %04d-%02d", billing.BillingYear, billing.BillingMonth), props.Text{Top: 5}),
			text.New("Plan: "+billing.PlanCode, props.Text{Top: 10}),
			text.New("Due date: "+billing.DueDate.Format("2006-01-02"), props.Text{Top: 15}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Account: %s", billing.UserID), props.Text{Top: 0}),
			text.New("Status: "+string(billing.Status), props.Text{Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	lines := []struct {
		label  string
		amount int64
	}{
		{fmt.Sprintf("Base subscription fee (%.1f min included)", billing.IncludedMinutes), billing.BaseFee},
		{fmt.Sprintf("Overage: %.1f min over quota (of %.1f min used)", billing.ExcessMinutes, billing.UsageMinutes), billing.OverageFee},
	}
	for _, line := range lines {
		m.AddRow(8,
			text.NewCol(8, line.label, props.Text{Size: 9}),
			text.NewCol(4, formatAmount(line.amount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(8,
		text.NewCol(8, "Subtotal", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(4, formatAmount(billing.Subtotal), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(8, "VAT", props.Text{Size: 9}),
		text.NewCol(4, formatAmount(billing.VATAmount), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		text.NewCol(8, "Total due", props.Text{Size: 11, Style: fontstyle.Bold}),
		text.NewCol(4, formatAmount(billing.TotalAmount), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate statement: %w", err)
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func formatAmount(v int64) string {
	return fmt.Sprintf("%d", v)
}
