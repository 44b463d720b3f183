package idcard

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testCard() CardData {
	return CardData{PatientID: "JOHN199542", Name: "John Smith", Age: 30, Gender: "male"}
}

func TestGenerate_WithoutPhoto(t *testing.T) {
	pdf, err := NewGenerator().Generate(testCard(), nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("expected PDF magic bytes, got %q", pdf[:8])
	}
	if len(pdf) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(pdf))
	}
}

func TestGenerate_WithPhoto(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 10))
	for x := 0; x < 8; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var photo bytes.Buffer
	if err := png.Encode(&photo, img); err != nil {
		t.Fatal(err)
	}

	pdf, err := NewGenerator().Generate(testCard(), photo.Bytes(), "PNG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("expected PDF magic bytes")
	}
}
