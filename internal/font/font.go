// Package font measures glyph advances for the reflow search. Font
// files are parsed once and the faces cached for the process lifetime.
package font

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gofont "github.com/go-text/typesetting/font"
)

// Library loads and caches font faces by file path.
type Library struct {
	mu    sync.RWMutex
	faces map[string]*gofont.Face
}

// NewLibrary creates an empty font library.
func NewLibrary() *Library {
	return &Library{faces: make(map[string]*gofont.Face)}
}

// face returns the cached face for path, parsing the file on first
// use. Collection files (.ttc) contribute their first face.
func (l *Library) face(path string) (*gofont.Face, error) {
	l.mu.RLock()
	face, ok := l.faces[path]
	l.mu.RUnlock()
	if ok {
		return face, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if face, ok := l.faces[path]; ok {
		return face, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}

	var parsed *gofont.Face
	if strings.EqualFold(filepath.Ext(path), ".ttc") {
		faces, err := gofont.ParseTTC(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse font collection %s: %w", filepath.Base(path), err)
		}
		if len(faces) == 0 {
			return nil, fmt.Errorf("font collection %s has no faces", filepath.Base(path))
		}
		parsed = faces[0]
	} else {
		parsed, err = gofont.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", filepath.Base(path), err)
		}
	}

	l.faces[path] = parsed
	return parsed, nil
}

// GlyphWidth returns the horizontal advance of glyph at size, in
// points: advance * size / unitsPerEm.
func (l *Library) GlyphWidth(fontFile string, glyph rune, size float64) (float64, error) {
	face, err := l.face(fontFile)
	if err != nil {
		return 0, err
	}

	gid, ok := face.NominalGlyph(glyph)
	if !ok {
		return 0, fmt.Errorf("font %s has no glyph for %q", filepath.Base(fontFile), glyph)
	}
	advance := float64(face.HorizontalAdvance(gid))
	upem := float64(face.Upem())
	if upem == 0 {
		return 0, fmt.Errorf("font %s reports zero units per em", filepath.Base(fontFile))
	}
	return advance * size / upem, nil
}
