package pdf

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// tableMeasurer returns scripted glyph widths keyed by font size so
// tests can steer the fit search deterministically.
type tableMeasurer struct {
	width func(size float64) float64
}

func (m *tableMeasurer) GlyphWidth(fontFile string, glyph rune, size float64) (float64, error) {
	return m.width(size), nil
}

// proportionalMeasurer models a glyph half as wide as the font size.
func proportionalMeasurer() GlyphMeasurer {
	return &tableMeasurer{width: func(size float64) float64 { return size * 0.5 }}
}

func oneBoxUnit(text string, box BoundingBox, size float64) [][]TranslationUnit {
	return [][]TranslationUnit{{{
		PageIndexes:  []int{0},
		BlockIndexes: []int{0},
		Boxes:        []BoundingBox{box},
		Sizes:        []float64{size},
		Text:         text,
	}}}
}

func TestReflowFitsAtOriginalSize(t *testing.T) {
	r := NewReflower(proportionalMeasurer(), FontSpec{File: "test.ttf", Probe: 'a'})

	// Box fits 3 lines of 20 chars at size 10; 25 chars of text.
	units := oneBoxUnit("this is a short paragraph", BoundingBox{X0: 0, Y0: 0, X1: 100, Y1: 40}, 10)
	pages, err := r.ReflowUnits(units)
	if err != nil {
		t.Fatalf("ReflowUnits: %v", err)
	}
	if len(pages) != 1 || len(pages[0]) != 1 {
		t.Fatalf("got %d pages, want 1 page with 1 block", len(pages))
	}

	block := pages[0][0]
	if !floatsClose(block.FontSize, 10) {
		t.Errorf("font size = %v, want 10 (no shrink needed)", block.FontSize)
	}
	// Content survives modulo line breaks and no-break spaces.
	got := strings.ReplaceAll(strings.ReplaceAll(block.Text, "\n", ""), "\u00a0", " ")
	if got != "this is a short paragraph" {
		t.Errorf("reflowed text = %q", got)
	}
}

func TestReflowShrinksUntilFit(t *testing.T) {
	// One line per box at every candidate size; the scripted widths
	// admit 5, 8, then 10 chars per line, so 9 chars of text need
	// exactly two decrements.
	m := &tableMeasurer{width: func(size float64) float64 {
		switch {
		case size > 9.95:
			return 10 // 5 chars per 50pt line
		case size > 9.85:
			return 6.25 // 8 chars
		default:
			return 5 // 10 chars
		}
	}}
	r := NewReflower(m, FontSpec{File: "test.ttf", Probe: 'a'})

	units := oneBoxUnit("ninechars", BoundingBox{X0: 0, Y0: 0, X1: 50, Y1: 13}, 10)
	pages, err := r.ReflowUnits(units)
	if err != nil {
		t.Fatalf("ReflowUnits: %v", err)
	}

	block := pages[0][0]
	if math.Abs(block.FontSize-9.8) > 1e-6 {
		t.Errorf("font size = %v, want 9.8 after two decrements", block.FontSize)
	}
	if got := strings.ReplaceAll(block.Text, "\n", ""); got != "ninechars" {
		t.Errorf("reflowed text = %q, want %q", got, "ninechars")
	}
}

func TestReflowSplitsAcrossBoxes(t *testing.T) {
	r := NewReflower(proportionalMeasurer(), FontSpec{File: "test.ttf", Probe: 'a'})

	// Each box holds one 10-char line at size 10.
	unit := TranslationUnit{
		PageIndexes:  []int{0, 1},
		BlockIndexes: []int{4, 2},
		Boxes: []BoundingBox{
			{X0: 0, Y0: 0, X1: 50, Y1: 14},
			{X0: 0, Y0: 100, X1: 50, Y1: 114},
		},
		Sizes: []float64{10, 10},
		Text:  "abcdefghijklmno",
	}
	pages, err := r.ReflowUnits([][]TranslationUnit{{unit}})
	if err != nil {
		t.Fatalf("ReflowUnits: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want blocks on 2 pages", len(pages))
	}

	first, second := pages[0][0], pages[1][0]
	if first.PageIndex != 0 || second.PageIndex != 1 {
		t.Errorf("page indexes = %d, %d", first.PageIndex, second.PageIndex)
	}
	if first.Text != "abcdefghij" {
		t.Errorf("first box text = %q, want first 10 chars", first.Text)
	}
	if second.Text != "klmno" {
		t.Errorf("second box text = %q, want the carry", second.Text)
	}
}

func TestReflowOverflowError(t *testing.T) {
	r := NewReflower(proportionalMeasurer(), FontSpec{File: "test.ttf", Probe: 'a'})

	// The box is too small for the text at any legible size.
	units := oneBoxUnit(strings.Repeat("x", 500), BoundingBox{X0: 0, Y0: 0, X1: 10, Y1: 5}, 10)
	_, err := r.ReflowUnits(units)

	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Code != ErrReflowOverflow {
		t.Fatalf("err = %v, want REFLOW_OVERFLOW", err)
	}
}

func TestReflowMisalignedUnit(t *testing.T) {
	r := NewReflower(proportionalMeasurer(), FontSpec{File: "test.ttf", Probe: 'a'})

	units := [][]TranslationUnit{{{
		PageIndexes:  []int{0},
		BlockIndexes: []int{0, 1},
		Boxes:        []BoundingBox{{X0: 0, Y0: 0, X1: 50, Y1: 14}},
		Sizes:        []float64{10},
		Text:         "text",
	}}}
	_, err := r.ReflowUnits(units)

	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Code != ErrConfigInvalid {
		t.Fatalf("err = %v, want CONFIG_INVALID", err)
	}
}

func TestReflowEmptyUnit(t *testing.T) {
	r := NewReflower(proportionalMeasurer(), FontSpec{File: "test.ttf", Probe: 'a'})

	units := oneBoxUnit("", BoundingBox{X0: 0, Y0: 0, X1: 50, Y1: 14}, 10)
	pages, err := r.ReflowUnits(units)
	if err != nil {
		t.Fatalf("ReflowUnits: %v", err)
	}
	if len(pages) != 1 || len(pages[0]) != 1 {
		t.Fatalf("expected one block for the empty unit")
	}
	if pages[0][0].Text != "" {
		t.Errorf("text = %q, want empty", pages[0][0].Text)
	}
}
