package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	billing "github.com/dshinde1318/Milk-Management-System-backend/internal/billing/domain"
)

// BuildStatementPDF renders a minimal PDF for a buyer statement.
func BuildStatementPDF(stmt *billing.Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Milk Billing Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Buyer: %s", stmt.BuyerID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", stmt.Period.Month))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
		stmt.Period.Start.Format("2006-01-02"), stmt.Period.End.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Deliveries: %d", stmt.TotalTransactions))
	pdf.Ln(5)

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total Quantity: %s", stmt.TotalQuantity.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Amount: %s", stmt.TotalAmount.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Payments Applied: %s", stmt.PaymentsApplied.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Net Payable: %s", stmt.NetPayable.StringFixed(2)))
	pdf.Ln(8)

	// Entries table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Session", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Milk", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Rate", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, tx := range stmt.Transactions {
		pdf.CellFormat(30, 6, tx.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, string(tx.Session), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, string(tx.MilkType), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, tx.Quantity.StringFixed(2)+" "+tx.Unit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, tx.PricePerUnit.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, tx.TotalAmount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatementXLSX renders a minimal XLSX for a buyer statement.
func BuildStatementXLSX(stmt *billing.Statement) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	entriesSheet := "entries"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(entriesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Milk Billing Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Buyer")
	_ = f.SetCellValue(summarySheet, "B3", stmt.BuyerID)
	_ = f.SetCellValue(summarySheet, "A4", "Month")
	_ = f.SetCellValue(summarySheet, "B4", stmt.Period.Month)
	_ = f.SetCellValue(summarySheet, "A5", "Period Start")
	_ = f.SetCellValue(summarySheet, "B5", stmt.Period.Start.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A6", "Period End")
	_ = f.SetCellValue(summarySheet, "B6", stmt.Period.End.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A7", "Deliveries")
	_ = f.SetCellValue(summarySheet, "B7", stmt.TotalTransactions)
	_ = f.SetCellValue(summarySheet, "A8", "Total Quantity")
	_ = f.SetCellValue(summarySheet, "B8", stmt.TotalQuantity.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A9", "Total Amount")
	_ = f.SetCellValue(summarySheet, "B9", stmt.TotalAmount.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A10", "Payments Applied")
	_ = f.SetCellValue(summarySheet, "B10", stmt.PaymentsApplied.StringFixed(2))
	_ = f.SetCellValue(summarySheet, "A11", "Net Payable")
	_ = f.SetCellValue(summarySheet, "B11", stmt.NetPayable.StringFixed(2))

	_ = f.SetCellValue(entriesSheet, "A1", "Date")
	_ = f.SetCellValue(entriesSheet, "B1", "Session")
	_ = f.SetCellValue(entriesSheet, "C1", "Milk Type")
	_ = f.SetCellValue(entriesSheet, "D1", "Quantity")
	_ = f.SetCellValue(entriesSheet, "E1", "Unit")
	_ = f.SetCellValue(entriesSheet, "F1", "Rate")
	_ = f.SetCellValue(entriesSheet, "G1", "Amount")
	for i, tx := range stmt.Transactions {
		row := i + 2
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("A%d", row), tx.Date.Format("2006-01-02"))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("B%d", row), string(tx.Session))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("C%d", row), string(tx.MilkType))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("D%d", row), tx.Quantity.StringFixed(2))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("E%d", row), tx.Unit)
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("F%d", row), tx.PricePerUnit.StringFixed(2))
		_ = f.SetCellValue(entriesSheet, fmt.Sprintf("G%d", row), tx.TotalAmount.StringFixed(2))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
