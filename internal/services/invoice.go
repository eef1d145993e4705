package services

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/scpnet/scp-backend/internal/models"
)

type InvoiceData struct {
	Order        *models.Order
	Supplier     *models.Supplier
	Consumer     *models.User
	ProductNames map[uuid.UUID]string
}

// RenderInvoice lays an order out on one A4 page: parties, one row per
// line with the snapshotted unit price, and the stored total.
func RenderInvoice(data InvoiceData) ([]byte, error) {
	order := data.Order

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 10, "Invoice", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Order "+order.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Date "+order.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Status "+string(order.Status), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if data.Supplier != nil {
		pdf.CellFormat(contentW, 5, "Supplier: "+tr(data.Supplier.Name), "", 1, "L", false, 0, "")
	}
	if data.Consumer != nil {
		pdf.CellFormat(contentW, 5, "Customer: "+data.Consumer.Email, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	col1 := contentW * 0.46
	col2 := contentW * 0.14
	col3 := contentW * 0.20
	col4 := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 7, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 7, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 7, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range order.Items {
		name, ok := data.ProductNames[item.ProductID]
		if !ok {
			name = item.ProductID.String()
		}
		pdf.CellFormat(col1, 6, tr(shorten(name, 48)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, item.UnitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, item.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 7, "Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 7, order.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// shorten cuts name to at most limit runes, marking the cut with "...".
func shorten(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit-1]) + "..."
}
