//go:build mupdf && cgo

package pdf

import (
	"fmt"
	"os"
	"strings"

	"paper-translator/internal/mupdf"
)

// IsMuPDFAvailable reports whether the native engine was compiled in.
func IsMuPDFAvailable() bool { return true }

// MuPDFEngine is the native document engine. Redaction truly removes
// text from content streams instead of covering it, and the spread is
// grafted into a single document in one pass. Extraction and
// validation delegate to the pure Go engine, which reads geometry well
// enough for both backends.
type MuPDFEngine struct {
	fallback *PdfcpuEngine
}

// NewMuPDFEngine creates the native engine.
func NewMuPDFEngine() (DocumentEngine, error) {
	return &MuPDFEngine{fallback: NewPdfcpuEngine()}, nil
}

// Name implements DocumentEngine.
func (e *MuPDFEngine) Name() string { return "mupdf" }

// Validate implements DocumentEngine.
func (e *MuPDFEngine) Validate(doc []byte) error {
	return e.fallback.Validate(doc)
}

// PageCount implements DocumentEngine.
func (e *MuPDFEngine) PageCount(doc []byte) (int, error) {
	return e.fallback.PageCount(doc)
}

// Extract implements DocumentEngine.
func (e *MuPDFEngine) Extract(doc []byte) ([][]Block, error) {
	return e.fallback.Extract(doc)
}

// withDocument opens doc through the binding, runs fn, and returns the
// saved result when fn modified the document.
func (e *MuPDFEngine) withDocument(doc []byte, fn func(d *mupdf.Document) error) ([]byte, error) {
	ctx, err := mupdf.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	dir, path, err := writeTemp(doc, "in.pdf")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	d, err := ctx.OpenPDF(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if err := fn(d); err != nil {
		return nil, err
	}

	outPath := path + ".out"
	if err := d.Save(outPath); err != nil {
		return nil, err
	}
	return os.ReadFile(outPath)
}

// Redact implements DocumentEngine using redaction annotations, so the
// covered text is removed from the page content rather than hidden.
func (e *MuPDFEngine) Redact(doc []byte, boxes [][]BoundingBox) ([]byte, error) {
	return e.withDocument(doc, func(d *mupdf.Document) error {
		for pageIdx, pageBoxes := range boxes {
			if len(pageBoxes) == 0 {
				continue
			}
			for _, box := range pageBoxes {
				if !box.IsValid() {
					continue
				}
				if err := d.AddRedactRect(pageIdx, box.X0, box.Y0, box.X1, box.Y1); err != nil {
					return fmt.Errorf("queue redaction on page %d: %w", pageIdx+1, err)
				}
			}
			if err := d.ApplyRedactions(pageIdx); err != nil {
				return fmt.Errorf("apply redactions on page %d: %w", pageIdx+1, err)
			}
		}
		return nil
	})
}

// PaintTextBox implements DocumentEngine.
func (e *MuPDFEngine) PaintTextBox(doc []byte, pageIndex int, box BoundingBox, text string, fontSize float64, fontFile string, lineHeight float64) ([]byte, error) {
	lines := strings.Count(text, "\n") + 1
	if float64(lines)*fontSize*lineHeight > box.Height()+0.5 {
		return nil, ErrInsufficientSpace
	}

	return e.withDocument(doc, func(d *mupdf.Document) error {
		return d.FillTextBox(pageIndex, box.X0, box.Y0, box.X1, box.Y1,
			text, fontFile, fontSize, lineHeight)
	})
}

// Spread implements DocumentEngine.
func (e *MuPDFEngine) Spread(original, translated []byte) ([]byte, error) {
	ctx, err := mupdf.NewContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	dir, origPath, err := writeTemp(original, "orig.pdf")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	transPath := origPath + ".trans.pdf"
	if err := os.WriteFile(transPath, translated, 0644); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	outPath := origPath + ".spread.pdf"
	if err := ctx.BuildSpread(origPath, transPath, outPath); err != nil {
		return nil, err
	}
	return os.ReadFile(outPath)
}
