package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/gausamvardhan/storefront-backend/internal/app/model"
)

const invoiceSheet = "Invoice"

var invoiceHeaders = []interface{}{"#", "Product", "Variant", "Qty", "Unit Price", "Subtotal"}

// RenderInvoice writes an XLSX invoice for order.
func RenderInvoice(order *model.Order, customer *model.User) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), invoiceSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	header := [][]interface{}{
		{"Gausamvardhan", ""},
		{"Order", order.OrderNumber},
		{"Date", order.CreatedAt.Format("02 Jan 2006")},
		{"Customer", customer.Name},
		{"Phone", order.Phone},
		{"Ship to", order.ShippingAddress},
		{"Payment", fmt.Sprintf("%s (%s)", order.PaymentMethod, order.PaymentStatus)},
	}
	for i, row := range header {
		if err := f.SetSheetRow(invoiceSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, err
		}
	}

	tableStart := len(header) + 2
	if err := f.SetSheetRow(invoiceSheet, fmt.Sprintf("A%d", tableStart), &invoiceHeaders); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(invoiceSheet, fmt.Sprintf("A%d", tableStart), fmt.Sprintf("F%d", tableStart), bold); err != nil {
		return nil, err
	}

	row := tableStart
	for i, item := range order.OrderItems {
		row++
		values := []interface{}{
			i + 1,
			item.ProductName,
			item.Variant(),
			item.Quantity,
			item.UnitPrice.InexactFloat64(),
			item.Subtotal().InexactFloat64(),
		}
		if err := f.SetSheetRow(invoiceSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
	}

	row += 2
	total := []interface{}{"", "", "Total", order.TotalItems, "", order.TotalAmount.InexactFloat64()}
	if err := f.SetSheetRow(invoiceSheet, fmt.Sprintf("A%d", row), &total); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(invoiceSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(invoiceSheet, "B", "B", 32); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write invoice: %w", err)
	}
	return buf, nil
}
