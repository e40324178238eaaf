package application

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Applications"

var exportHeaders = []string{
	"ID", "Submitted At", "Status", "Full Name", "Email", "Phone",
	"Preferred Location", "Preferred Room Type", "Monthly Income",
	"Pre-Approval Reason", "Reviewed At",
}

var exportWidths = []float64{38, 22, 14, 24, 30, 16, 12, 14, 14, 60, 22}

// WriteXLSX writes every application matching f.Status as a spreadsheet. It pages by cursor,
// so submissions arriving during the export are neither repeated nor skipped.
func WriteXLSX(ctx context.Context, store Store, f Filter, w io.Writer) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := file.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := file.SetColWidth(exportSheet, col, col, exportWidths[i]); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	row := 2
	page := Filter{Status: f.Status, Limit: MaxPageSize}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := store.List(ctx, page)
		if err != nil {
			return err
		}
		for i := range p.Items {
			if err := writeRow(file, row, &p.Items[i]); err != nil {
				return err
			}
			row++
		}
		if len(p.Items) < page.Limit {
			break
		}
		page.After = CursorOf(p.Items[len(p.Items)-1])
	}

	if err := file.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeRow(file *excelize.File, row int, a *Application) error {
	answers := a.Answers()
	str := func(k string) string {
		s, _ := answers[k].(string)
		return s
	}
	reviewed := ""
	if a.ReviewedAt != nil {
		reviewed = a.ReviewedAt.UTC().Format("2006-01-02 15:04:05")
	}
	values := []any{
		a.ID,
		a.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		string(a.Status),
		str("full_name"),
		str("email"),
		str("phone"),
		str("preferred_location"),
		str("preferred_room_type"),
		income(answers["monthly_income"]),
		a.PreApprovalReason,
		reviewed,
	}
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(exportSheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func income(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
