//go:build !mupdf || !cgo

package pdf

// IsMuPDFAvailable reports whether the native engine was compiled in.
func IsMuPDFAvailable() bool { return false }

// NewMuPDFEngine fails in builds without the native binding.
func NewMuPDFEngine() (DocumentEngine, error) {
	return nil, ErrEngineUnavailable
}
