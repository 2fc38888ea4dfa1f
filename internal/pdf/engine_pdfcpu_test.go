package pdf

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// fixturePDF builds a two-page document with real text content so the
// extraction path runs against genuine page streams.
func fixturePDF(t *testing.T) []byte {
	t.Helper()

	doc := gofpdf.New("P", "pt", "A4", "")
	doc.SetFont("Helvetica", "", 12)

	doc.AddPage()
	doc.Text(72, 120, "The measurement apparatus was calibrated before each trial run.")
	doc.Text(72, 138, "Results were averaged over twenty independent repetitions.")
	doc.Text(72, 400, "Figure 1: calibration drift over time.")

	doc.AddPage()
	doc.Text(72, 120, "Section two describes the evaluation protocol in detail.")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}
	return buf.Bytes()
}

func TestPdfcpuEngineValidateAndPageCount(t *testing.T) {
	engine := NewPdfcpuEngine()
	doc := fixturePDF(t)

	if err := engine.Validate(doc); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	n, err := engine.PageCount(doc)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 2 {
		t.Errorf("page count = %d, want 2", n)
	}

	if err := engine.Validate([]byte("not a pdf")); err == nil {
		t.Error("Validate accepted garbage input")
	}
}

func TestPdfcpuEngineExtract(t *testing.T) {
	engine := NewPdfcpuEngine()
	pages, err := engine.Extract(fixturePDF(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("extracted %d pages, want 2", len(pages))
	}
	if len(pages[0]) == 0 || len(pages[1]) == 0 {
		t.Fatal("pages extracted without blocks")
	}

	var all strings.Builder
	for pageIdx, page := range pages {
		for _, block := range page {
			if block.PageIndex != pageIdx {
				t.Errorf("block on page %d reports page %d", pageIdx, block.PageIndex)
			}
			if !block.BBox.IsValid() {
				t.Errorf("block %d/%d has invalid box %+v", pageIdx, block.BlockIndex, block.BBox)
			}
			if block.FontSize <= 0 {
				t.Errorf("block %d/%d has font size %v", pageIdx, block.BlockIndex, block.FontSize)
			}
			all.WriteString(block.Text)
			all.WriteString("\n")
		}
		for i, block := range page {
			if block.BlockIndex != i {
				t.Errorf("page %d block %d carries index %d", pageIdx, i, block.BlockIndex)
			}
		}
	}
	for _, want := range []string{"calibrated", "Figure 1", "protocol"} {
		if !strings.Contains(all.String(), want) {
			t.Errorf("extracted text missing %q", want)
		}
	}
}

func TestPdfcpuEngineRedact(t *testing.T) {
	engine := NewPdfcpuEngine()
	doc := fixturePDF(t)

	out, err := engine.Redact(doc, [][]BoundingBox{
		{{X0: 70, Y0: 100, X1: 500, Y1: 150}},
		{{X0: 70, Y0: 100, X1: 500, Y1: 135}},
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	if err := engine.Validate(out); err != nil {
		t.Errorf("redacted document fails validation: %v", err)
	}
	n, err := engine.PageCount(out)
	if err != nil || n != 2 {
		t.Errorf("redacted page count = %d (%v), want 2", n, err)
	}
	if bytes.Equal(out, doc) {
		t.Error("redaction did not modify the document")
	}
}

func TestPdfcpuEnginePaintTextBox(t *testing.T) {
	engine := NewPdfcpuEngine()
	doc := fixturePDF(t)

	out, err := engine.PaintTextBox(doc, 0,
		BoundingBox{X0: 72, Y0: 500, X1: 400, Y1: 540},
		"painted replacement line", 12, "", 1.5)
	if err != nil {
		t.Fatalf("PaintTextBox: %v", err)
	}
	if err := engine.Validate(out); err != nil {
		t.Errorf("painted document fails validation: %v", err)
	}
}

func TestPdfcpuEnginePaintTextBoxInsufficientSpace(t *testing.T) {
	engine := NewPdfcpuEngine()

	// Three lines at 12pt with 1.5 line height need 54pt; the box has 20.
	_, err := engine.PaintTextBox(fixturePDF(t), 0,
		BoundingBox{X0: 72, Y0: 500, X1: 400, Y1: 520},
		"one\ntwo\nthree", 12, "", 1.5)
	if !errors.Is(err, ErrInsufficientSpace) {
		t.Fatalf("err = %v, want ErrInsufficientSpace", err)
	}
}

func TestPdfcpuEngineSpread(t *testing.T) {
	engine := NewPdfcpuEngine()
	doc := fixturePDF(t)

	spread, err := engine.Spread(doc, doc)
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}
	n, err := engine.PageCount(spread)
	if err != nil {
		t.Fatalf("PageCount on spread: %v", err)
	}
	if n != 4 {
		t.Errorf("spread page count = %d, want 4", n)
	}
	if err := engine.Validate(spread); err != nil {
		t.Errorf("spread fails validation: %v", err)
	}
}

func TestPdfcpuEngineSpreadPageCountMismatch(t *testing.T) {
	engine := NewPdfcpuEngine()
	two := fixturePDF(t)

	one := gofpdf.New("P", "pt", "A4", "")
	one.SetFont("Helvetica", "", 12)
	one.AddPage()
	one.Text(72, 120, "single page")
	var buf bytes.Buffer
	if err := one.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}

	if _, err := engine.Spread(two, buf.Bytes()); err == nil {
		t.Error("Spread accepted documents with different page counts")
	}
}
