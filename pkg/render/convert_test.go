package render

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

const tinySVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`

func TestConvertMissingTool(t *testing.T) {
	old := converter
	converter = "jsontree-no-such-converter"
	defer func() { converter = old }()

	if CanConvert() {
		t.Fatal("CanConvert should be false for a missing binary")
	}
	if _, err := ToPDF(context.Background(), []byte(tinySVG)); !errors.Is(err, ErrNoConverter) {
		t.Errorf("ToPDF err = %v, want ErrNoConverter", err)
	}
	if _, err := ToPNG(context.Background(), []byte(tinySVG), 2); !errors.Is(err, ErrNoConverter) {
		t.Errorf("ToPNG err = %v, want ErrNoConverter", err)
	}
}

func TestToPNG(t *testing.T) {
	if !CanConvert() {
		t.Skip("rsvg-convert not installed")
	}
	png, err := ToPNG(context.Background(), []byte(tinySVG), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG: %q", png[:min(8, len(png))])
	}
}

func TestToPDF(t *testing.T) {
	if !CanConvert() {
		t.Skip("rsvg-convert not installed")
	}
	pdf, err := ToPDF(context.Background(), []byte(tinySVG))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output is not a PDF")
	}
}
