// Package idcard renders the printable patient identity card: a landscape
// card-sized PDF carrying the patient's photo, demographics, and a QR code
// encoding the same details for front-desk scanning.
package idcard

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Card dimensions in points.
const (
	cardWidth  = 400
	cardHeight = 250
)

// CardData is the subset of a patient record printed on the card.
type CardData struct {
	PatientID string `json:"patientId"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
}

// Generator renders identity cards. FooterText appears at the bottom of
// every card.
type Generator struct {
	FooterText string
}

func NewGenerator() *Generator {
	return &Generator{FooterText: "MediLink Healthcare System"}
}

// Generate renders the PDF. photo is optional JPEG or PNG bytes; photoType
// must be "JPG" or "PNG" when a photo is supplied.
func (g *Generator) Generate(data CardData, photo []byte, photoType string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Background
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(0, 0, cardWidth, cardHeight, "F")

	// Photo or placeholder
	if len(photo) > 0 {
		opts := fpdf.ImageOptions{ImageType: photoType, ReadDpi: true}
		pdf.RegisterImageOptionsReader("patient-photo", opts, bytes.NewReader(photo))
		pdf.ImageOptions("patient-photo", 30, 40, 80, 100, false, opts, 0, "")
	} else {
		pdf.SetFillColor(204, 204, 204)
		pdf.Rect(30, 40, 80, 100, "F")
		pdf.SetTextColor(102, 102, 102)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(44, 92, "No Photo")
	}

	// Demographics
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(130, 62, data.Name)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(130, 90, fmt.Sprintf("Patient ID: %s", data.PatientID))
	pdf.Text(130, 110, fmt.Sprintf("Age: %d years", data.Age))
	pdf.Text(130, 130, fmt.Sprintf("Gender: %s", data.Gender))

	// QR code with the card payload
	qrPayload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal qr payload: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrPayload), qrcode.Medium, 160)
	if err != nil {
		return nil, fmt.Errorf("qr code generation failed: %w", err)
	}
	qrOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 280, 50, 80, 80, false, qrOpts, 0, "")

	// Footer
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(130, 210, g.FooterText)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render id card: %w", err)
	}
	return buf.Bytes(), nil
}
