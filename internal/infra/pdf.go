package infra

// pdf.go: supplier invoice receipts rendered with go-pdf/fpdf.
// One A5 page per invoice: header, supplier/number/date block, an item
// table with the units received, and the total unit count.
// The file is saved to storagePath/invoice_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"cantina/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateInvoicePDF renders inv and returns the path of the written file.
// storagePath is created if needed.
func GenerateInvoicePDF(inv *model.Invoice, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("invoice_%s.pdf", inv.ID))

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	// Core fonts are cp1252; names come in as UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Cantina", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Nota de entrada de estoque"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	info := [][2]string{
		{"Fornecedor", inv.Supplier},
		{"Nota", inv.Number},
		{"Data", inv.Date.Format("02/01/2006 15:04")},
	}
	if inv.School != "" {
		info = append(info, [2]string{"Escola", string(inv.School)})
	}
	for _, row := range info {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(30, 5, tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW-30, 5, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	colName := contentW * 0.75
	colQty := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colName, 6, "Produto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 6, "Quantidade", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	units := 0
	for _, it := range inv.Items {
		name := it.ProductName
		if len([]rune(name)) > 48 {
			name = string([]rune(name)[:47]) + "..."
		}
		pdf.CellFormat(colName, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 5, fmt.Sprintf("%d", it.Quantity), "", 1, "R", false, 0, "")
		units += it.Quantity
	}

	pdf.Ln(1)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colName, 6, "Total de unidades", "", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 6, fmt.Sprintf("%d", units), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
