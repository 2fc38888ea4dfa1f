package pdf

import "fmt"

// SpreadBuilder produces the side-by-side review document that shows
// every original page next to its translated counterpart.
type SpreadBuilder struct {
	engine DocumentEngine
}

// NewSpreadBuilder creates a SpreadBuilder backed by engine.
func NewSpreadBuilder(engine DocumentEngine) *SpreadBuilder {
	return &SpreadBuilder{engine: engine}
}

// Build interleaves the two documents page by page. Both must have the
// same page count.
func (s *SpreadBuilder) Build(original, translated []byte) ([]byte, error) {
	origCount, err := s.engine.PageCount(original)
	if err != nil {
		return nil, NewPipelineError(ErrSpreadFailed, "failed to count original pages", err)
	}
	transCount, err := s.engine.PageCount(translated)
	if err != nil {
		return nil, NewPipelineError(ErrSpreadFailed, "failed to count translated pages", err)
	}
	if origCount != transCount {
		return nil, NewPipelineErrorWithDetails(ErrSpreadFailed, "page count mismatch",
			fmt.Sprintf("original %d pages, translated %d pages", origCount, transCount), nil)
	}

	out, err := s.engine.Spread(original, translated)
	if err != nil {
		return nil, NewPipelineError(ErrSpreadFailed, "failed to build side-by-side document", err)
	}
	return out, nil
}
