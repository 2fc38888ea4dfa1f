package pdf

import (
	"context"
	"os"
	"sync"
	"time"

	"paper-translator/internal/logger"
)

// Options configures a Pipeline.
type Options struct {
	// Engine is the document backend. Required.
	Engine DocumentEngine
	// Measurer provides glyph advances for reflow. Required.
	Measurer GlyphMeasurer
	// Fonts maps target language codes to render fonts. Languages
	// absent from the map cannot be translated into.
	Fonts map[string]FontSpec
	// Classifier tunes block classification.
	Classifier ClassifierConfig
	// Terminators close translation units during merging; nil means
	// DefaultTerminators.
	Terminators []string
	// MaxAttempts and RetryDelay tune per-unit translation retry.
	MaxAttempts int
	RetryDelay  time.Duration
	// OnStatus, when set, receives a snapshot at every phase change and
	// after every translated unit. Snapshots are delivered one at a
	// time, never concurrently.
	OnStatus func(Status)
}

// DefaultFonts returns the built-in language-to-font mapping, resolved
// relative to fontsDir.
func DefaultFonts(fontsDir string) map[string]FontSpec {
	join := func(name string) string {
		if fontsDir == "" {
			return name
		}
		return fontsDir + "/" + name
	}
	return map[string]FontSpec{
		"en": {File: join("TIMES.TTF"), Probe: 'a'},
		"ja": {File: join("MSMINCHO.TTC"), Probe: 'あ'},
	}
}

// ValidateFonts checks that every configured font file exists before a
// run starts, so a missing font surfaces immediately instead of deep
// in reflow.
func ValidateFonts(fonts map[string]FontSpec) error {
	for lang, spec := range fonts {
		if spec.File == "" {
			return NewPipelineErrorWithDetails(ErrConfigInvalid,
				"no font file configured", lang, nil)
		}
		if _, err := os.Stat(spec.File); err != nil {
			return NewPipelineErrorWithDetails(ErrConfigInvalid,
				"font file not found", lang+": "+spec.File, err)
		}
	}
	return nil
}

// Pipeline runs the full layout-preserving translation of one
// document: extract, classify, redact, merge, translate, reflow,
// paint, and assemble the review spread.
type Pipeline struct {
	opts Options
}

// NewPipeline validates opts and creates a Pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Engine == nil {
		return nil, NewPipelineError(ErrConfigInvalid, "document engine is required", nil)
	}
	if opts.Measurer == nil {
		return nil, NewPipelineError(ErrConfigInvalid, "glyph measurer is required", nil)
	}
	if opts.Fonts == nil {
		opts.Fonts = DefaultFonts("fonts")
	}
	if len(opts.Terminators) == 0 {
		opts.Terminators = DefaultTerminators
	}
	return &Pipeline{opts: opts}, nil
}

// Result carries the artifacts of one pipeline run.
type Result struct {
	// Translated is the document with body and caption regions blanked
	// and repainted in the target language.
	Translated []byte
	// Spread is the side-by-side review document, original page left,
	// translated page right.
	Spread []byte
	// Report summarizes the run.
	Report *RunReport
}

// Run translates doc from sourceLang to targetLang using translate for
// every unit. The input document is never modified; both artifacts are
// fresh byte slices.
func (p *Pipeline) Run(ctx context.Context, doc []byte, sourceLang, targetLang string, translate TranslateFunc) (*Result, error) {
	start := time.Now()
	state := TaskPending
	status := Status{State: state, Phase: PhaseIdle}

	// Unit translations report progress from their own goroutines, so
	// the snapshot and the callback are guarded by one mutex. Holding
	// it through OnStatus keeps delivery serialized and in order.
	var statusMu sync.Mutex

	emit := func(phase Phase) {
		statusMu.Lock()
		defer statusMu.Unlock()
		status.Phase = phase
		status.State = state
		if p.opts.OnStatus != nil {
			p.opts.OnStatus(status)
		}
	}
	progress := func(done int) {
		statusMu.Lock()
		defer statusMu.Unlock()
		if done > status.CompletedUnits {
			status.CompletedUnits = done
		}
		status.Phase = PhaseTranslating
		status.State = state
		if p.opts.OnStatus != nil {
			p.opts.OnStatus(status)
		}
	}
	fail := func(err error) (*Result, error) {
		if state.CanTransition(TaskFailed) {
			state = TaskFailed
		}
		status.Error = err.Error()
		emit(PhaseError)
		return nil, err
	}

	font, ok := p.opts.Fonts[targetLang]
	if !ok {
		return fail(NewPipelineErrorWithDetails(ErrConfigInvalid,
			"no font configured for target language", targetLang, nil))
	}

	if err := p.opts.Engine.Validate(doc); err != nil {
		return fail(NewPipelineError(ErrDocInvalid, "document failed validation", err))
	}

	state = TaskProcessing
	emit(PhaseExtracting)

	pages, err := p.opts.Engine.Extract(doc)
	if err != nil {
		return fail(NewPipelineError(ErrExtractFailed, "text extraction failed", err))
	}
	pageCount := len(pages)
	totalBlocks := CountBlocks(pages)
	logger.Info("extracted text blocks",
		logger.Int("pages", pageCount), logger.Int("blocks", totalBlocks))

	emit(PhaseClassifying)
	classifier := NewClassifier(sourceLang, p.opts.Classifier)
	classes := classifier.Classify(pages)

	for _, page := range classes.Excluded {
		for _, block := range page {
			logger.Debug("excluded block", logger.Int("page", block.PageIndex),
				logger.String("detail", block.Text))
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(NewPipelineError(ErrCancelled, "run cancelled", err))
	}

	emit(PhaseRedacting)
	redactor := NewRedactor(p.opts.Engine)
	redacted, err := redactor.RemoveBlocks(doc, classes.Body)
	if err != nil {
		return fail(err)
	}
	redacted, err = redactor.RemoveBlocks(redacted, classes.FigureTable)
	if err != nil {
		return fail(err)
	}

	emit(PhaseMerging)
	bodyUnits := MergeUnits(classes.Body, p.opts.Terminators, true)
	figUnits := MergeUnits(classes.FigureTable, p.opts.Terminators, false)

	status.TotalUnits = CountUnits(bodyUnits) + CountUnits(figUnits)
	emit(PhaseTranslating)

	bodyTotal := CountUnits(bodyUnits)
	orch, err := NewOrchestrator(translate, OrchestratorConfig{
		MaxAttempts: p.opts.MaxAttempts,
		RetryDelay:  p.opts.RetryDelay,
		OnProgress: func(completed, total int) {
			progress(completed)
		},
	})
	if err != nil {
		return fail(err)
	}
	if err := orch.TranslateUnits(ctx, bodyUnits); err != nil {
		return fail(err)
	}

	orchFig, err := NewOrchestrator(translate, OrchestratorConfig{
		MaxAttempts: p.opts.MaxAttempts,
		RetryDelay:  p.opts.RetryDelay,
		OnProgress: func(completed, total int) {
			progress(bodyTotal + completed)
		},
	})
	if err != nil {
		return fail(err)
	}
	if err := orchFig.TranslateUnits(ctx, figUnits); err != nil {
		return fail(err)
	}

	emit(PhaseReflowing)
	reflower := NewReflower(p.opts.Measurer, font)
	bodyBlocks, err := reflower.ReflowUnits(bodyUnits)
	if err != nil {
		return fail(err)
	}
	figBlocks, err := reflower.ReflowUnits(figUnits)
	if err != nil {
		return fail(err)
	}

	emit(PhaseWriting)
	writer := NewWriter(p.opts.Engine, font)
	translated, err := writer.WriteBlocks(redacted, bodyBlocks)
	if err != nil {
		return fail(err)
	}
	translated, err = writer.WriteBlocks(translated, figBlocks)
	if err != nil {
		return fail(err)
	}

	emit(PhaseSpread)
	spread, err := NewSpreadBuilder(p.opts.Engine).Build(doc, translated)
	if err != nil {
		return fail(err)
	}

	state = TaskCompleted
	emit(PhaseComplete)

	report := &RunReport{
		Pages:          pageCount,
		Blocks:         totalBlocks,
		BodyBlocks:     CountBlocks(classes.Body),
		FigureBlocks:   CountBlocks(classes.FigureTable),
		ExcludedBlocks: CountBlocks(classes.Excluded),
		BodyUnits:      bodyTotal,
		FigureUnits:    CountUnits(figUnits),
		Degenerate:     classes.Degenerate,
		Duration:       time.Since(start),
	}
	logger.Info("translation run complete",
		logger.Int("pages", report.Pages),
		logger.Int("body_units", report.BodyUnits),
		logger.Int("figure_units", report.FigureUnits),
		logger.Duration("duration", report.Duration))

	return &Result{Translated: translated, Spread: spread, Report: report}, nil
}
