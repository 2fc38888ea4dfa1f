package pdf

import (
	"errors"
	"fmt"
)

// paintCall records one PaintTextBox invocation on the fake engine.
type paintCall struct {
	page int
	box  BoundingBox
	text string
	size float64
}

// fakeEngine is an in-memory DocumentEngine for tests. Documents are
// opaque byte slices; every mutating call appends a deterministic
// marker so output bytes are reproducible across runs.
type fakeEngine struct {
	blocks      [][]Block
	validateErr error
	paintErr    func(call paintCall) error

	redactions  [][][]BoundingBox
	paints      []paintCall
	spreadCalls int
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Validate(doc []byte) error { return e.validateErr }

func (e *fakeEngine) PageCount(doc []byte) (int, error) { return len(e.blocks), nil }

func (e *fakeEngine) Extract(doc []byte) ([][]Block, error) {
	out := make([][]Block, len(e.blocks))
	for i, page := range e.blocks {
		out[i] = append([]Block(nil), page...)
	}
	return out, nil
}

func (e *fakeEngine) Redact(doc []byte, boxes [][]BoundingBox) ([]byte, error) {
	e.redactions = append(e.redactions, boxes)
	n := 0
	for _, page := range boxes {
		n += len(page)
	}
	return append(append([]byte(nil), doc...), []byte(fmt.Sprintf("|redact:%d", n))...), nil
}

func (e *fakeEngine) PaintTextBox(doc []byte, pageIndex int, box BoundingBox, text string, fontSize float64, fontFile string, lineHeight float64) ([]byte, error) {
	call := paintCall{page: pageIndex, box: box, text: text, size: fontSize}
	if e.paintErr != nil {
		if err := e.paintErr(call); err != nil {
			return nil, err
		}
	}
	e.paints = append(e.paints, call)
	return append(append([]byte(nil), doc...), []byte(fmt.Sprintf("|paint:%d:%s", pageIndex, text))...), nil
}

func (e *fakeEngine) Spread(original, translated []byte) ([]byte, error) {
	e.spreadCalls++
	out := append([]byte(nil), original...)
	out = append(out, []byte("|spread|")...)
	return append(out, translated...), nil
}

var _ DocumentEngine = (*fakeEngine)(nil)

// errAlways wraps a sentinel so errors.Is still matches through it.
func errAlways(err error) func(paintCall) error {
	return func(paintCall) error { return fmt.Errorf("paint: %w", err) }
}

var errPaintBroken = errors.New("backend rejected content stream")
