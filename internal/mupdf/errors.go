package mupdf

import "errors"

var (
	ErrNotAvailable  = errors.New("mupdf: not available (build with -tags mupdf)")
	ErrContextCreate = errors.New("mupdf: failed to create context")
	ErrOpenDocument  = errors.New("mupdf: failed to open document")
	ErrInvalidPage   = errors.New("mupdf: invalid page")
	ErrRedact        = errors.New("mupdf: failed to redact page")
	ErrAddText       = errors.New("mupdf: failed to add text")
	ErrSaveDocument  = errors.New("mupdf: failed to save document")
	ErrSpread        = errors.New("mupdf: failed to build spread document")
)
