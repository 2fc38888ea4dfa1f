package pdf

import (
	"errors"

	"paper-translator/internal/logger"
)

const (
	// writerLineHeight is the line height factor used when painting.
	// Slightly looser than the reflow factor so descenders never clip.
	writerLineHeight = 1.5
	// writerGrowthStep is how far the box bottom edge extends per
	// insufficient-space retry, in points.
	writerGrowthStep = 1.0
	// writerGrowthBudget caps total bottom growth for one block before
	// the write is abandoned as a hard failure.
	writerGrowthBudget = 200.0
)

// Writer paints reflowed blocks into the redacted document through the
// engine. When a block does not fit vertically the box grows downward
// point by point until the paint succeeds.
type Writer struct {
	engine DocumentEngine
	font   FontSpec
}

// NewWriter creates a Writer painting with the given font.
func NewWriter(engine DocumentEngine, font FontSpec) *Writer {
	return &Writer{engine: engine, font: font}
}

// WriteBlocks paints every block and returns the updated document.
// Empty blocks are skipped.
func (w *Writer) WriteBlocks(doc []byte, pages [][]Block) ([]byte, error) {
	for _, page := range pages {
		for _, block := range page {
			if block.Text == "" {
				continue
			}
			out, err := w.writeBlock(doc, &block)
			if err != nil {
				return nil, err
			}
			doc = out
		}
	}
	return doc, nil
}

func (w *Writer) writeBlock(doc []byte, block *Block) ([]byte, error) {
	box := block.BBox
	for {
		out, err := w.engine.PaintTextBox(doc, block.PageIndex, box, block.Text,
			block.FontSize, w.font.File, writerLineHeight)
		if err == nil {
			if box.Y1 > block.BBox.Y1 {
				logger.Debug("grew text box to fit",
					logger.Int("page", block.PageIndex),
					logger.Int("block", block.BlockIndex),
					logger.Float64("growth", box.Y1-block.BBox.Y1))
			}
			return out, nil
		}
		if !errors.Is(err, ErrInsufficientSpace) {
			return nil, NewPipelineErrorWithPage(ErrWriteFailed,
				"failed to paint translated text", block.PageIndex, err)
		}

		box.Y1 += writerGrowthStep
		if box.Y1-block.BBox.Y1 > writerGrowthBudget {
			return nil, NewPipelineErrorWithPage(ErrWriteFailed,
				"text box growth budget exhausted", block.PageIndex, err)
		}
	}
}
