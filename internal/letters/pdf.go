package letters

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/oakline/lettermill/internal/model"
)

// PDFRenderer converts rendered letter content into PDF bytes. It may fail
// independently of template rendering; the pipeline keeps the text content
// when it does.
type PDFRenderer interface {
	Render(letter *Letter, customer model.CustomerRecord) ([]byte, error)
}

// fpdfRenderer renders letters onto an A4 letterhead page.
type fpdfRenderer struct {
	bankName string
	now      func() time.Time
}

// NewPDFRenderer creates the default PDF renderer.
func NewPDFRenderer(bankName string) PDFRenderer {
	if bankName == "" {
		bankName = "Oakline Bank"
	}
	return &fpdfRenderer{bankName: bankName, now: time.Now}
}

// Render lays out the letterhead, address block and body.
func (r *fpdfRenderer) Render(letter *Letter, customer model.CustomerRecord) ([]byte, error) {
	if letter == nil {
		return nil, fmt.Errorf("nil letter")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Letterhead
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, r.bankName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, r.now().Format("2 January 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	// Address block
	pdf.SetFont("Helvetica", "", 11)
	if name := customer.Get(model.FieldName); name != "" {
		pdf.CellFormat(0, 6, name, "", 1, "L", false, 0, "")
	}
	if address := customer.Get(model.FieldAddress); address != "" {
		pdf.MultiCell(0, 6, address, "", "L", false)
	}
	pdf.Ln(4)

	// Subject
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 7, letter.Subject, "", "L", false)
	pdf.Ln(2)

	// Body
	pdf.SetFont("Helvetica", "", 11)
	for _, paragraph := range strings.Split(letter.Body, "\n\n") {
		pdf.MultiCell(0, 6, strings.TrimSpace(paragraph), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output failed: %w", err)
	}
	return buf.Bytes(), nil
}
