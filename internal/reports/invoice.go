package reports

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const invoiceDateLayout = "Jan 2, 2006"

// column widths in mm for the line table
var invoiceColumns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 90, "L"},
	{"Qty", 20, "C"},
	{"Unit price", 35, "R"},
	{"Line total", 35, "R"},
}

func renderInvoice(order *models.Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+order.OrderIdentifier, false)
	pdf.SetCreationDate(order.OrderDate)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{
		"Order: " + order.OrderIdentifier,
		"Order date: " + order.OrderDate.UTC().Format(invoiceDateLayout),
		"Status: " + order.Status.Label(),
		"Payment method: " + order.PaymentMethod,
	} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Ship to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s\n%s %s\n%s",
		order.ShippingAddress, order.ShippingProvince, order.ShippingZipCode, order.ShippingPhoneNumber)), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for _, col := range invoiceColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range order.Items {
		values := []string{
			tr(item.ProductName),
			fmt.Sprintf("%d", item.Quantity),
			types.FormatCents(item.UnitPriceCents),
			types.FormatCents(item.PriceAtPurchaseCents),
		}
		for i, col := range invoiceColumns {
			pdf.CellFormat(col.width, 7, values[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	labelWidth := 0.0
	for _, col := range invoiceColumns[:len(invoiceColumns)-1] {
		labelWidth += col.width
	}
	pdf.CellFormat(labelWidth, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(invoiceColumns[len(invoiceColumns)-1].width, 8, types.FormatCents(order.TotalOrderAmountCents), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
