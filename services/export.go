package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"metahire/models"
)

var leadExportHeader = []string{
	"first_name", "last_name", "email", "phone", "company", "position", "status", "campaign_id", "assigned_to", "created_at",
}

func leadRecord(l *models.Lead) []string {
	return []string{
		l.FirstName,
		l.LastName,
		deref(l.Email),
		deref(l.Phone),
		deref(l.Company),
		deref(l.Position),
		string(l.Status),
		deref(l.CampaignID),
		deref(l.AssignedTo),
		l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

// WriteLeadsCSV writes leads as CSV with a header row.
func WriteLeadsCSV(w io.Writer, leads []models.Lead) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(leadExportHeader); err != nil {
		return err
	}
	for i := range leads {
		if err := writer.Write(leadRecord(&leads[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteLeadsXLSX writes leads as a single-sheet workbook.
func WriteLeadsXLSX(w io.Writer, leads []models.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leads"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	write := func(row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		out := make([]interface{}, len(values))
		for i, v := range values {
			out[i] = v
		}
		return f.SetSheetRow(sheet, cell, &out)
	}

	if err := write(1, leadExportHeader); err != nil {
		return err
	}
	for i := range leads {
		if err := write(i+2, leadRecord(&leads[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}
