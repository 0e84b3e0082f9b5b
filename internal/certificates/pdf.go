package certificates

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"bank-chatbot/internal/domain"
)

const qrImageSize = 256

// Generator renders product-certificate PDFs: one page per product with a
// bank header, a generation subtitle, and a QR code pointing at the bank
// site.
type Generator struct {
	location  string
	qrWebsite string
}

// New creates a Generator. Location appears in the certificate subtitle;
// qrWebsite is encoded into the QR code on every page.
func New(location, qrWebsite string) (*Generator, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("certificates: location must not be empty")
	}
	if strings.TrimSpace(qrWebsite) == "" {
		return nil, errors.New("certificates: qr website must not be empty")
	}
	return &Generator{location: location, qrWebsite: qrWebsite}, nil
}

// now is the certificate timestamp source. Package-level var so tests can
// pin it.
var now = time.Now

// Generate renders the certificate for the given products and returns the
// PDF bytes.
func (g *Generator) Generate(products []domain.Record) ([]byte, error) {
	if len(products) == 0 {
		return nil, errors.New("certificates: no products to certify")
	}

	qrPNG, err := qrcode.Encode(g.qrWebsite, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("certificates: encode qr: %w", err)
	}

	generated := now().UTC()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, "RUFUS BANK CERTIFICATE", "", 1, "C", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))

	subtitle := fmt.Sprintf("Generated at: %s, Location: %s",
		generated.Format("2006-01-02 15:04:05"), g.location)

	for _, product := range products {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, subtitle, "", 1, "C", false, 0, "")
		pdf.Ln(10)

		pdf.SetFont("Arial", "", 11)
		for _, line := range productLines(product) {
			pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
		}

		pdf.ImageOptions("qr", 160, 230, 30, 30, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("certificates: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// productLines flattens a product record into display lines. The PK renders
// as the bare user id, the SK is an internal key and is omitted, remaining
// attributes print sorted for stable output.
func productLines(product domain.Record) []string {
	userID := product.PK
	if idx := strings.LastIndex(userID, "#"); idx >= 0 {
		userID = userID[idx+1:]
	}
	lines := []string{fmt.Sprintf("User: %s", userID)}

	keys := make([]string, 0, len(product.Attributes))
	for k := range product.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, product.Attributes[k]))
	}
	return lines
}
