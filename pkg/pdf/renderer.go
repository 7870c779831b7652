package pdf

import (
	"bytes"
	"fmt"

	"pharmapos/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// BillRenderer renders persisted bills into PDF documents. It is pure
// presentation: it never touches catalog or cart state.
type BillRenderer struct {
	PharmacyName string
	Tagline      string
	Phone        string
	Email        string
}

// NewBillRenderer creates a renderer with the pharmacy letterhead.
func NewBillRenderer(name, tagline, phone, email string) *BillRenderer {
	return &BillRenderer{
		PharmacyName: name,
		Tagline:      tagline,
		Phone:        phone,
		Email:        email,
	}
}

// Render produces the printable PDF for a bill.
func (r *BillRenderer) Render(bill *models.Bill) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	// Letterhead
	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(110, 10, r.PharmacyName, "", 0, "L", false, 0, "")

	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 10, fmt.Sprintf("Bill #: %s", bill.BillNumber), "", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(110, 5, r.Tagline, "", 0, "L", false, 0, "")
	doc.CellFormat(0, 5, fmt.Sprintf("Date: %s", bill.CreatedAt.Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	doc.CellFormat(110, 5, fmt.Sprintf("Phone: %s", r.Phone), "", 0, "L", false, 0, "")
	doc.CellFormat(0, 5, fmt.Sprintf("Time: %s", bill.CreatedAt.Format("15:04:05")), "", 1, "R", false, 0, "")
	doc.CellFormat(110, 5, fmt.Sprintf("Email: %s", r.Email), "", 1, "L", false, 0, "")
	doc.Ln(4)

	// Customer details, when present
	if bill.Customer.Name != "" {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(0, 6, "Customer Details:", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(0, 5, fmt.Sprintf("Name: %s", bill.Customer.Name), "", 1, "L", false, 0, "")
		if bill.Customer.Phone != "" {
			doc.CellFormat(0, 5, fmt.Sprintf("Phone: %s", bill.Customer.Phone), "", 1, "L", false, 0, "")
		}
		doc.Ln(3)
	}

	// Items table
	doc.SetFont("Helvetica", "B", 9)
	doc.CellFormat(95, 7, "Item", "B", 0, "L", false, 0, "")
	doc.CellFormat(20, 7, "Qty", "B", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Price", "B", 0, "R", false, 0, "")
	doc.CellFormat(30, 7, "Total", "B", 1, "R", false, 0, "")

	doc.SetFont("Helvetica", "", 9)
	for _, item := range bill.Items {
		label := fmt.Sprintf("%s (%s) - %s", item.Name, item.Brand, item.Strength)
		doc.CellFormat(95, 6, label, "", 0, "L", false, 0, "")
		doc.CellFormat(20, 6, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, fmt.Sprintf("Rs. %.2f", item.UnitPrice), "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, fmt.Sprintf("Rs. %.2f", item.TotalPrice), "", 1, "R", false, 0, "")
	}
	doc.Ln(2)

	// Totals block
	doc.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
	doc.CellFormat(30, 6, "Subtotal:", "T", 0, "R", false, 0, "")
	doc.CellFormat(30, 6, fmt.Sprintf("Rs. %.2f", bill.Subtotal), "T", 1, "R", false, 0, "")

	if bill.Tax > 0 {
		doc.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
		doc.CellFormat(30, 6, "Tax:", "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, fmt.Sprintf("Rs. %.2f", bill.Tax), "", 1, "R", false, 0, "")
	}
	if bill.Discount > 0 {
		doc.CellFormat(115, 6, "", "", 0, "L", false, 0, "")
		doc.CellFormat(30, 6, "Discount:", "", 0, "R", false, 0, "")
		doc.CellFormat(30, 6, fmt.Sprintf("-Rs. %.2f", bill.Discount), "", 1, "R", false, 0, "")
	}

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(115, 8, "", "", 0, "L", false, 0, "")
	doc.CellFormat(30, 8, "Total Amount:", "", 0, "R", false, 0, "")
	doc.CellFormat(30, 8, fmt.Sprintf("Rs. %.2f", bill.TotalAmount), "", 1, "R", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 5, fmt.Sprintf("Payment Method: %s", bill.PaymentMethod), "", 1, "L", false, 0, "")
	if bill.Notes != "" {
		doc.CellFormat(0, 5, fmt.Sprintf("Notes: %s", bill.Notes), "", 1, "L", false, 0, "")
	}

	// Footer
	doc.SetY(-30)
	doc.SetFont("Helvetica", "", 8)
	doc.CellFormat(0, 4, "Thank you for your business!", "", 1, "C", false, 0, "")
	doc.CellFormat(0, 4, fmt.Sprintf("Generated by %s System", r.PharmacyName), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render bill PDF: %w", err)
	}
	return buf.Bytes(), nil
}
