package pdf

import "errors"

// ErrInsufficientSpace is returned by PaintTextBox when the text cannot
// fit the box at the requested size. The writer reacts by growing the
// box bottom edge and retrying.
var ErrInsufficientSpace = errors.New("insufficient space for text in box")

// ErrEngineUnavailable is returned by engines compiled out of the
// current build.
var ErrEngineUnavailable = errors.New("mupdf engine not available: build with -tags mupdf")

// DocumentEngine is the boundary to the PDF backend. All methods take
// and return whole documents as byte slices; engines never share
// mutable state between calls.
type DocumentEngine interface {
	// Name identifies the engine in logs and reports.
	Name() string

	// Validate checks that doc parses as a well-formed PDF.
	Validate(doc []byte) error

	// PageCount returns the number of pages in doc.
	PageCount(doc []byte) (int, error)

	// Extract returns one slice of text blocks per page, page-ordered.
	// Only text content is reported; graphics and images are dropped.
	// Coordinates are top-left origin, y growing downward.
	Extract(doc []byte) ([][]Block, error)

	// Redact removes the content inside every box from its page and
	// returns the blanked document. boxes is indexed by page; pages
	// with no boxes are untouched.
	Redact(doc []byte, boxes [][]BoundingBox) ([]byte, error)

	// PaintTextBox paints text into box on the given page at fontSize
	// with the given line-height factor, using the font file for the
	// target language. Returns ErrInsufficientSpace when the text does
	// not fit vertically.
	PaintTextBox(doc []byte, pageIndex int, box BoundingBox, text string, fontSize float64, fontFile string, lineHeight float64) ([]byte, error)

	// Spread builds the side-by-side review document: for every page
	// index the original page on the left, the translated page on the
	// right, with the viewer page layout set to a two-page spread.
	// Both inputs must have the same page count.
	Spread(original, translated []byte) ([]byte, error)
}

// NewEngine returns the engine selected by name: "pdfcpu" for the pure
// Go engine, "mupdf" for the native binding, or "auto" to prefer mupdf
// when it is compiled in.
func NewEngine(name string) (DocumentEngine, error) {
	switch name {
	case "", "auto":
		if IsMuPDFAvailable() {
			return NewMuPDFEngine()
		}
		return NewPdfcpuEngine(), nil
	case "pdfcpu":
		return NewPdfcpuEngine(), nil
	case "mupdf":
		return NewMuPDFEngine()
	default:
		return nil, NewPipelineErrorWithDetails(ErrConfigInvalid, "unknown document engine", name, nil)
	}
}
