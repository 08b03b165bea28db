package response

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/andretaki/simurgh/internal/models"
)

// RenderQuote lays out a one-page quote sheet: company identifiers, the
// solicitation reference, priced line items, and notes.
func RenderQuote(prof *models.CompanyProfile, doc *models.RfqDocument, data models.ResponseData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetMargins(10, 10, 10)

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, "QUOTATION")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	name := prof.CompanyName
	if name == "" {
		name = "Quote Response"
	}
	pdf.Cell(190, 8, name)
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	if prof.CageCode != "" {
		pdf.Cell(95, 6, fmt.Sprintf("CAGE: %s", prof.CageCode))
	}
	if prof.UEI != "" {
		pdf.Cell(95, 6, fmt.Sprintf("UEI: %s", prof.UEI))
	}
	pdf.Ln(6)
	if prof.ContactName != "" || prof.ContactEmail != "" {
		pdf.Cell(190, 6, fmt.Sprintf("%s  %s  %s", prof.ContactName, prof.ContactEmail, prof.ContactPhone))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if doc != nil {
		pdf.SetFont("Arial", "B", 11)
		if doc.RfqNumber != nil {
			pdf.Cell(95, 6, fmt.Sprintf("RFQ No: %s", *doc.RfqNumber))
		}
		if doc.DueDate != nil {
			pdf.Cell(95, 6, fmt.Sprintf("Due Date: %s", doc.DueDate.Format("02-Jan-2006")))
		}
		pdf.Ln(10)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(35, 8, "NSN", "1", 0, "L", true, 0, "")
	pdf.CellFormat(70, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(15, 8, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Unit Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	var grandTotal float64
	for _, item := range data.LineItems {
		lineTotal := 0.0
		if item.Total != nil {
			lineTotal = *item.Total
		} else if item.Quantity != nil && item.UnitPrice != nil {
			lineTotal = *item.Quantity * *item.UnitPrice
		}
		grandTotal += lineTotal

		pdf.CellFormat(35, 8, strValue(item.NSN), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 8, strValue(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, floatValue(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(15, 8, strValue(item.Unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 8, floatValue(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", lineTotal), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(165, 8, "Total")
	pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", grandTotal), "1", 1, "R", false, 0, "")

	if data.Notes != nil && *data.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 8, "Notes:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, *data.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatValue(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *f)
}
