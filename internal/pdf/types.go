// Package pdf implements the layout-preserving PDF translation pipeline:
// text block extraction with geometry, statistical body-text classification,
// in-place redaction, translation-unit merging, concurrent translation,
// font-fit reflow, and justified re-painting into the original regions.
package pdf

import (
	"strings"
	"time"
)

// BoundingBox is a rectangular region in document coordinates.
// y grows downward; (X0,Y0) is the top-left corner.
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y1 - b.Y0 }

// IsValid reports whether the box has positive extent on both axes.
func (b BoundingBox) IsValid() bool { return b.X1 > b.X0 && b.Y1 > b.Y0 }

// Block is a single extracted text region on one page.
type Block struct {
	PageIndex  int         `json:"page_index"`
	BlockIndex int         `json:"block_index"`
	BBox       BoundingBox `json:"bbox"`
	Text       string      `json:"text"`
	FontSize   float64     `json:"font_size"`
	FontName   string      `json:"font_name,omitempty"`
}

// IsValidBlock reports whether the block carries usable geometry.
func (b *Block) IsValidBlock() bool {
	return b.PageIndex >= 0 && b.BlockIndex >= 0 && b.BBox.IsValid()
}

// BlockCategory is the classifier's label for a block.
type BlockCategory string

const (
	CategoryBody        BlockCategory = "body"
	CategoryFigureTable BlockCategory = "figure_table"
	CategoryExcluded    BlockCategory = "excluded"
)

// Classification is the classifier's partition of a document's blocks.
// All three slices are page-aligned with the extraction output; excluded
// blocks carry diagnostic text in place of their original content.
type Classification struct {
	Body        [][]Block `json:"body"`
	FigureTable [][]Block `json:"figure_table"`
	Excluded    [][]Block `json:"excluded"`
	// Degenerate is set when histogram math was ill-defined and every
	// block was treated as body.
	Degenerate bool `json:"degenerate,omitempty"`
}

// TranslationUnit is a merge of one or more consecutive same-page blocks
// whose concatenated text is translated as a single payload. The four
// slices are positionally aligned: element i describes the i-th original
// sub-region the translated text must be reflowed into.
type TranslationUnit struct {
	PageIndexes  []int         `json:"page_indexes"`
	BlockIndexes []int         `json:"block_indexes"`
	Boxes        []BoundingBox `json:"boxes"`
	Sizes        []float64     `json:"sizes"`
	Text         string        `json:"text"`
}

// Aligned reports whether the unit's positional lists have equal length.
// Reflow depends on this contract to emit one block per sub-region.
func (u *TranslationUnit) Aligned() bool {
	n := len(u.Boxes)
	return len(u.PageIndexes) == n && len(u.BlockIndexes) == n && len(u.Sizes) == n && n > 0
}

// IsBlank reports whether the unit's text is empty or whitespace-only.
// Blank units pass through translation untouched.
func (u *TranslationUnit) IsBlank() bool {
	return strings.TrimSpace(u.Text) == ""
}

// TaskState is the document-level lifecycle state.
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskProcessing TaskState = "processing"
	TaskCompleted  TaskState = "completed"
	TaskFailed     TaskState = "failed"
)

// IsTerminal reports whether the state admits no further transitions.
func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// CanTransition reports whether moving from s to next is a legal
// lifecycle step.
func (s TaskState) CanTransition(next TaskState) bool {
	switch s {
	case TaskPending:
		return next == TaskProcessing || next == TaskFailed
	case TaskProcessing:
		return next == TaskCompleted || next == TaskFailed
	default:
		return false
	}
}

// Phase identifies the pipeline stage currently running.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseExtracting  Phase = "extracting"
	PhaseClassifying Phase = "classifying"
	PhaseRedacting   Phase = "redacting"
	PhaseMerging     Phase = "merging"
	PhaseTranslating Phase = "translating"
	PhaseReflowing   Phase = "reflowing"
	PhaseWriting     Phase = "writing"
	PhaseSpread      Phase = "spread"
	PhaseComplete    Phase = "complete"
	PhaseError       Phase = "error"
)

// Status is a point-in-time snapshot of a document run.
type Status struct {
	State          TaskState `json:"state"`
	Phase          Phase     `json:"phase"`
	TotalUnits     int       `json:"total_units"`
	CompletedUnits int       `json:"completed_units"`
	Message        string    `json:"message,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// RunReport summarizes a completed (or failed) pipeline run.
type RunReport struct {
	Pages          int           `json:"pages"`
	Blocks         int           `json:"blocks"`
	BodyBlocks     int           `json:"body_blocks"`
	FigureBlocks   int           `json:"figure_blocks"`
	ExcludedBlocks int           `json:"excluded_blocks"`
	BodyUnits      int           `json:"body_units"`
	FigureUnits    int           `json:"figure_units"`
	Degenerate     bool          `json:"degenerate,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// PipelineErrorCode classifies pipeline failures.
type PipelineErrorCode string

const (
	ErrDocInvalid      PipelineErrorCode = "DOC_INVALID"
	ErrDocEncrypted    PipelineErrorCode = "DOC_ENCRYPTED"
	ErrExtractFailed   PipelineErrorCode = "EXTRACT_FAILED"
	ErrRedactFailed    PipelineErrorCode = "REDACT_FAILED"
	ErrTranslateFailed PipelineErrorCode = "TRANSLATE_FAILED"
	ErrReflowOverflow  PipelineErrorCode = "REFLOW_OVERFLOW"
	ErrWriteFailed     PipelineErrorCode = "WRITE_FAILED"
	ErrSpreadFailed    PipelineErrorCode = "SPREAD_FAILED"
	ErrEngineFailed    PipelineErrorCode = "ENGINE_FAILED"
	ErrFontFailed      PipelineErrorCode = "FONT_FAILED"
	ErrConfigInvalid   PipelineErrorCode = "CONFIG_INVALID"
	ErrCancelled       PipelineErrorCode = "CANCELLED"
)

// PipelineError is the pipeline's structured error. Every fatal stage
// failure is wrapped in one so callers can branch on Code without
// string matching.
type PipelineError struct {
	Code    PipelineErrorCode `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Page    int               `json:"page,omitempty"`
	Cause   error             `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError creates a PipelineError with the given code, message,
// and optional cause.
func NewPipelineError(code PipelineErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPipelineErrorWithDetails creates a PipelineError with details.
func NewPipelineErrorWithDetails(code PipelineErrorCode, message, details string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// NewPipelineErrorWithPage creates a PipelineError tied to a page.
func NewPipelineErrorWithPage(code PipelineErrorCode, message string, page int, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Page:    page,
		Cause:   cause,
	}
}

// CountBlocks returns the total number of blocks across pages.
func CountBlocks(pages [][]Block) int {
	n := 0
	for _, page := range pages {
		n += len(page)
	}
	return n
}

// CountUnits returns the total number of units across pages.
func CountUnits(pages [][]TranslationUnit) int {
	n := 0
	for _, page := range pages {
		n += len(page)
	}
	return n
}
