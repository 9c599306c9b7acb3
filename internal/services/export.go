package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const exportSheet = "Projects"

// ExportProjects writes every project, with its client and displayed
// status, as an .xlsx workbook.
func (s *ProjectService) ExportProjects(ctx context.Context, w io.Writer) error {
	views, err := s.List(ctx, nil, nil)
	if err != nil {
		return err
	}

	clientNames := map[primitive.ObjectID]string{}
	for _, v := range views {
		if _, seen := clientNames[v.ClientID]; seen {
			continue
		}
		name := ""
		if client, err := s.clients.GetByID(ctx, v.ClientID); err == nil {
			name = client.Name
		}
		clientNames[v.ClientID] = name
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	headers := []string{"Order ID", "Project", "Client", "Amount (BDT)", "Status", "Expiry date", "Paid at"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, header)
	}

	for i, v := range views {
		row := i + 2
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), v.OrderID)
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), v.Name)
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), clientNames[v.ClientID])
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), v.Amount)
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), string(v.DisplayStatus))
		if !v.ExpiryDate.IsZero() {
			f.SetCellValue(exportSheet, fmt.Sprintf("F%d", row), v.ExpiryDate.Format("2006-01-02"))
		}
		if v.PaidAt != nil {
			f.SetCellValue(exportSheet, fmt.Sprintf("G%d", row), v.PaidAt.Format(time.RFC3339))
		}
	}

	return f.Write(w)
}

// ExportFileName names the download.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("projects_%s.xlsx", now.Format("20060102_150405"))
}
