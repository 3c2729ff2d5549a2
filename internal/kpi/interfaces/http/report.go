package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	kpi "iiot-monitor/internal/kpi/domain"
)

// BuildKPIReportPDF renders line KPI windows as a PDF table.
func BuildKPIReportPDF(kpis []kpi.LineKPI) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Line KPI Report")
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Line", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Window End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Availability", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Performance", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Quality", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "OEE", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, record := range kpis {
		pdf.CellFormat(45, 6, record.LineName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, record.WindowEnd.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f%%", record.Availability), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.1f%%", record.Performance), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.1f%%", record.Quality), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.1f%%", record.OEE), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildKPIReportXLSX renders line KPI windows as a workbook.
func BuildKPIReportXLSX(kpis []kpi.LineKPI) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "kpis"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Line")
	_ = f.SetCellValue(sheet, "B1", "Window End")
	_ = f.SetCellValue(sheet, "C1", "Availability (%)")
	_ = f.SetCellValue(sheet, "D1", "Performance (%)")
	_ = f.SetCellValue(sheet, "E1", "Quality (%)")
	_ = f.SetCellValue(sheet, "F1", "OEE (%)")

	for i, record := range kpis {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), record.LineName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), record.WindowEnd.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), record.Availability)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), record.Performance)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), record.Quality)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), record.OEE)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
