package pdf

// Redactor removes classified regions from the document through the
// engine, so translated text can be painted onto blank space.
type Redactor struct {
	engine DocumentEngine
}

// NewRedactor creates a Redactor backed by engine.
func NewRedactor(engine DocumentEngine) *Redactor {
	return &Redactor{engine: engine}
}

// RemoveBlocks blanks the region of every block and returns the
// modified document. Pages with no blocks are untouched.
func (r *Redactor) RemoveBlocks(doc []byte, pages [][]Block) ([]byte, error) {
	boxes := make([][]BoundingBox, len(pages))
	total := 0
	for pageIdx, page := range pages {
		for _, block := range page {
			if !block.BBox.IsValid() {
				continue
			}
			boxes[pageIdx] = append(boxes[pageIdx], block.BBox)
			total++
		}
	}
	if total == 0 {
		return doc, nil
	}

	out, err := r.engine.Redact(doc, boxes)
	if err != nil {
		return nil, NewPipelineError(ErrRedactFailed, "failed to blank original text regions", err)
	}
	return out, nil
}
