package reports

import (
	"bytes"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const (
	exportSheetName  = "Orders"
	exportDateLayout = "2006-01-02 15:04:05"
	moneyFormat      = "#,##0.00"
)

var exportHeaders = []string{
	"Order Identifier",
	"Status",
	"Order Date",
	"Total Order Amount",
	"Ordered Items",
	"Quantity",
	"Shipping Address",
	"Estimated Delivery Date",
	"Payment Method",
	"User Email",
}

func renderOrdersWorkbook(rows []models.Order) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(exportSheetName)
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		cell := header.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		style.Font.Bold = true
		style.ApplyFont = true
		cell.SetStyle(style)
	}

	for _, o := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(o.OrderIdentifier)
		row.AddCell().SetString(o.Status.Label())
		row.AddCell().SetString(o.OrderDate.UTC().Format(exportDateLayout))
		row.AddCell().SetFloatWithFormat(float64(o.TotalOrderAmountCents)/100, moneyFormat)
		row.AddCell().SetString(itemNames(o.Items))
		row.AddCell().SetInt(o.TotalQuantity())
		row.AddCell().SetString(o.ShippingAddress)
		row.AddCell().SetString(o.EstimatedDeliveryDate.UTC().Format(exportDateLayout))
		row.AddCell().SetString(o.PaymentMethod)
		email := ""
		if o.User != nil {
			email = o.User.Email
		}
		row.AddCell().SetString(email)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itemNames(items []models.OrderItem) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.ProductName)
	}
	return strings.Join(names, ", ")
}
