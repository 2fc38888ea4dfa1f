package pdf

import (
	"strings"
	"unicode"
)

const (
	// reflowLineFactor is the line height multiple used when counting
	// how many lines fit a box during the font-size search.
	reflowLineFactor = 1.3
	// reflowStep is how much the candidate font size shrinks per failed
	// fit attempt.
	reflowStep = 0.1
	// reflowFloor is the smallest candidate size; going below it means
	// the translation cannot fit its regions at a legible size.
	reflowFloor = 1.0
)

// GlyphMeasurer reports the horizontal advance of a glyph at a font
// size, in points. The reflow search measures one representative probe
// glyph per target language.
type GlyphMeasurer interface {
	GlyphWidth(fontFile string, glyph rune, size float64) (float64, error)
}

// FontSpec names the render font for a target language and the probe
// glyph used to estimate character width in that script.
type FontSpec struct {
	File  string
	Probe rune
}

// Reflower distributes translated unit text back across each unit's
// original sub-regions, searching downward for the largest font size at
// which everything fits.
type Reflower struct {
	measurer GlyphMeasurer
	font     FontSpec
}

// NewReflower creates a Reflower measuring with the given font.
func NewReflower(measurer GlyphMeasurer, font FontSpec) *Reflower {
	return &Reflower{measurer: measurer, font: font}
}

// ReflowUnits lays every unit's translated text out over its boxes and
// returns paintable blocks grouped by page in first-appearance order.
func (r *Reflower) ReflowUnits(pages [][]TranslationUnit) ([][]Block, error) {
	grouped := make(map[int][]Block)
	var pageOrder []int

	for _, page := range pages {
		for i := range page {
			blocks, err := r.reflowUnit(&page[i])
			if err != nil {
				return nil, err
			}
			for _, block := range blocks {
				if _, seen := grouped[block.PageIndex]; !seen {
					pageOrder = append(pageOrder, block.PageIndex)
				}
				grouped[block.PageIndex] = append(grouped[block.PageIndex], block)
			}
		}
	}

	out := make([][]Block, 0, len(pageOrder))
	for _, pageIdx := range pageOrder {
		out = append(out, grouped[pageIdx])
	}
	return out, nil
}

// reflowUnit finds the largest font size at which the unit's text fits
// its boxes, then returns one block per filled box. Boxes that receive
// no text produce no block.
func (r *Reflower) reflowUnit(u *TranslationUnit) ([]Block, error) {
	if !u.Aligned() {
		return nil, NewPipelineError(ErrConfigInvalid, "translation unit region lists are misaligned", nil)
	}

	// Spaces become no-break spaces so width accounting is uniform and
	// painted lines keep their word separators.
	text := strings.ReplaceAll(u.Text, " ", "\u00a0")

	fontSize := u.Sizes[0]
	for {
		probeWidth, err := r.measurer.GlyphWidth(r.font.File, r.font.Probe, fontSize)
		if err != nil {
			return nil, NewPipelineError(ErrFontFailed, "glyph measurement failed", err)
		}
		if probeWidth <= 0 {
			return nil, NewPipelineErrorWithDetails(ErrFontFailed, "glyph measurement failed",
				"probe glyph has zero advance", nil)
		}

		boxTexts, fits := fitBoxes(text, u.Boxes, fontSize, probeWidth)
		if fits {
			blocks := make([]Block, 0, len(boxTexts))
			for i, bt := range boxTexts {
				blocks = append(blocks, Block{
					PageIndex:  u.PageIndexes[i],
					BlockIndex: u.BlockIndexes[i],
					BBox:       u.Boxes[i],
					Text:       trimReflowed(bt),
					FontSize:   fontSize,
				})
			}
			return blocks, nil
		}

		fontSize -= reflowStep
		if fontSize < reflowFloor {
			return nil, NewPipelineErrorWithDetails(ErrReflowOverflow,
				"translated text cannot fit its regions at a legible size",
				strings.TrimSpace(u.Text), nil)
		}
	}
}

// fitBoxes simulates laying text out across the boxes at fontSize with
// glyphWidth-wide characters. It returns the per-box text (one entry
// per box actually used) and whether everything was placed.
func fitBoxes(text string, boxes []BoundingBox, fontSize, glyphWidth float64) ([]string, bool) {
	paragraphs := strings.Split(text, "\n")
	cur := []rune(paragraphs[0])
	paragraphs = paragraphs[1:]
	remaining := len(cur)

	boxTexts := make([]string, 0, len(boxes))
	done := false

	for _, box := range boxes {
		if done {
			break
		}
		var bt strings.Builder
		lines := int(box.Height() / (fontSize * reflowLineFactor))
		charsPerLine := int(box.Width() / glyphWidth)

		for line := 0; line < lines; line++ {
			if done {
				break
			}
			remaining -= charsPerLine
			if remaining <= 0 {
				bt.WriteString(string(cur))
				bt.WriteString("\n")
				if len(paragraphs) == 0 {
					done = true
					cur = nil
					remaining = 0
					break
				}
				cur = []rune(paragraphs[0])
				paragraphs = paragraphs[1:]
				remaining = len(cur)
			}
		}

		// Whatever part of the current paragraph was consumed by this
		// box stays in this box; the rest carries to the next one.
		if len(cur) != remaining {
			cut := len(cur) - remaining
			bt.WriteString(string(cur[:cut]))
			cur = cur[cut:]
		}
		boxTexts = append(boxTexts, bt.String())
	}

	return boxTexts, done
}

// trimReflowed strips the leading whitespace and trailing newlines the
// layout simulation leaves behind.
func trimReflowed(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	return strings.TrimRight(s, "\n")
}
