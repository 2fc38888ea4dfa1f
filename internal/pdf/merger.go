package pdf

import "strings"

// DefaultTerminators are the sentence-ending characters that close a
// translation unit during merging.
var DefaultTerminators = []string{".", ":", ";"}

// MergeUnits joins consecutive blocks into translation units so that
// sentences split across blocks, columns, or pages travel to the
// translator as one payload.
//
// Blocks accumulate into the open unit until a flush condition holds:
// the accumulated text ends with a terminator, the block index is
// adjacent to the previously seen one, or enforceTerminators is false
// (every block then closes a unit). The accumulator survives page
// boundaries, so a sentence continuing onto the next page stays in one
// unit; the unit is attached to the page where it closed.
func MergeUnits(pages [][]Block, terminators []string, enforceTerminators bool) [][]TranslationUnit {
	if len(terminators) == 0 {
		terminators = DefaultTerminators
	}

	units := make([][]TranslationUnit, len(pages))

	var (
		text         strings.Builder
		pageIndexes  []int
		blockIndexes []int
		boxes        []BoundingBox
		sizes        []float64
	)
	reset := func() {
		text.Reset()
		pageIndexes = nil
		blockIndexes = nil
		boxes = nil
		sizes = nil
	}

	for pageIdx, page := range pages {
		prevBlockNo := 0
		for _, block := range page {
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(block.Text)
			pageIndexes = append(pageIndexes, block.PageIndex)
			blockIndexes = append(blockIndexes, block.BlockIndex)
			boxes = append(boxes, block.BBox)
			sizes = append(sizes, block.FontSize)

			flush := !enforceTerminators ||
				endsWithAny(text.String(), terminators) ||
				block.BlockIndex-prevBlockNo <= 1
			prevBlockNo = block.BlockIndex

			if flush {
				units[pageIdx] = append(units[pageIdx], TranslationUnit{
					PageIndexes:  pageIndexes,
					BlockIndexes: blockIndexes,
					Boxes:        boxes,
					Sizes:        sizes,
					Text:         text.String(),
				})
				reset()
			}
		}
	}

	// A trailing open unit attaches to the last page.
	if text.Len() > 0 && len(pages) > 0 {
		last := len(pages) - 1
		units[last] = append(units[last], TranslationUnit{
			PageIndexes:  pageIndexes,
			BlockIndexes: blockIndexes,
			Boxes:        boxes,
			Sizes:        sizes,
			Text:         text.String(),
		})
	}

	return units
}

func endsWithAny(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
