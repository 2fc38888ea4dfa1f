//go:build !mupdf || !cgo

// Package mupdf binds the MuPDF library for the native document
// engine. This stub compiles when the binding is disabled; every
// operation fails with ErrNotAvailable.
package mupdf

// IsAvailable reports whether the binding was compiled in.
func IsAvailable() bool { return false }

// Context wraps an fz_context (stub).
type Context struct{}

// NewContext creates a MuPDF context (stub).
func NewContext() (*Context, error) {
	return nil, ErrNotAvailable
}

// Close releases the context (stub).
func (c *Context) Close() {}

// Document is an open PDF document (stub).
type Document struct{}

// OpenPDF opens the PDF at path (stub).
func (c *Context) OpenPDF(path string) (*Document, error) {
	return nil, ErrNotAvailable
}

// Close releases the document (stub).
func (d *Document) Close() {}

// PageCount returns the number of pages (stub).
func (d *Document) PageCount() (int, error) {
	return 0, ErrNotAvailable
}

// PageBounds returns the page size in points (stub).
func (d *Document) PageBounds(page int) (width, height float64, err error) {
	return 0, 0, ErrNotAvailable
}

// AddRedactRect queues a redaction over the rect (stub).
func (d *Document) AddRedactRect(page int, x0, y0, x1, y1 float64) error {
	return ErrNotAvailable
}

// ApplyRedactions removes all queued regions from the page (stub).
func (d *Document) ApplyRedactions(page int) error {
	return ErrNotAvailable
}

// FillTextBox paints text inside the box (stub).
func (d *Document) FillTextBox(page int, x0, y0, x1, y1 float64, text string, fontPath string, fontSize, lineHeight float64) error {
	return ErrNotAvailable
}

// Save writes the document to path (stub).
func (d *Document) Save(path string) error {
	return ErrNotAvailable
}

// BuildSpread grafts page pairs into a side-by-side document (stub).
func (c *Context) BuildSpread(origPath, transPath, outPath string) error {
	return ErrNotAvailable
}
