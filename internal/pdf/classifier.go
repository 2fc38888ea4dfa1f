package pdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"paper-translator/internal/logger"
	"paper-translator/internal/tokenizer"
)

// ClassifierConfig tunes the statistical body-text classifier.
type ClassifierConfig struct {
	// TokenThreshold scores a block 1 when its cleaned token count
	// exceeds this value, 0 at or below it.
	TokenThreshold int `json:"token_threshold"`
	// TopBins is how many of the most populated histogram bins count as
	// the body-text region of the composite score distribution.
	TopBins int `json:"top_bins"`
	// LongParagraphWords admits a block as body regardless of its score
	// when it has more than this many space-separated words.
	LongParagraphWords int `json:"long_paragraph_words"`
	// MaxSpaceFraction caps the space-to-length ratio for the long
	// paragraph rule, rejecting sparse table-like rows.
	MaxSpaceFraction float64 `json:"max_space_fraction"`
}

// DefaultClassifierConfig returns the standard classifier tuning.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		TokenThreshold:     10,
		TopBins:            2,
		LongParagraphWords: 30,
		MaxSpaceFraction:   0.4,
	}
}

// figure/table caption keywords per source language. Matching is a
// case-insensitive substring test against the first two tokens.
var (
	captionKeywordsJa      = []string{"表", "グラフ"}
	captionKeywordsDefault = []string{"fig", "table"}
)

// Classifier partitions extracted blocks into body text, figure and
// table captions, and excluded blocks, using distribution statistics
// over token count, width, and font size.
type Classifier struct {
	cfg  ClassifierConfig
	lang string
}

// NewClassifier creates a classifier for documents in the given source
// language. Zero config fields fall back to defaults.
func NewClassifier(lang string, cfg ClassifierConfig) *Classifier {
	def := DefaultClassifierConfig()
	if cfg.TokenThreshold <= 0 {
		cfg.TokenThreshold = def.TokenThreshold
	}
	if cfg.TopBins <= 0 {
		cfg.TopBins = def.TopBins
	}
	if cfg.LongParagraphWords <= 0 {
		cfg.LongParagraphWords = def.LongParagraphWords
	}
	if cfg.MaxSpaceFraction <= 0 {
		cfg.MaxSpaceFraction = def.MaxSpaceFraction
	}
	return &Classifier{cfg: cfg, lang: lang}
}

// Classify partitions the extracted pages. The returned slices stay
// page-aligned with the input; excluded blocks carry diagnostic text in
// place of their content.
func (c *Classifier) Classify(pages [][]Block) *Classification {
	result := &Classification{
		Body:        make([][]Block, len(pages)),
		FigureTable: make([][]Block, len(pages)),
		Excluded:    make([][]Block, len(pages)),
	}

	total := CountBlocks(pages)
	if total == 0 {
		return result
	}

	// Per-block features over the whole document.
	tokenCounts := make([][]int, len(pages))
	widths := make([]float64, 0, total)
	sizes := make([]float64, 0, total)
	composite := make([]float64, 0, total)

	flatTokens := make([]int, 0, total)
	for pageIdx, page := range pages {
		tokenCounts[pageIdx] = make([]int, len(page))
		for blockIdx, block := range page {
			n := len(tokenizer.Tokenize(c.lang, cleanText(block.Text)))
			tokenCounts[pageIdx][blockIdx] = n
			flatTokens = append(flatTokens, n)
			widths = append(widths, block.BBox.Width())
			sizes = append(sizes, block.FontSize)
		}
	}

	widthScores := deviationScores(widths)
	sizeScores := deviationScores(sizes)
	for i, n := range flatTokens {
		tokenScore := 0.0
		if n > c.cfg.TokenThreshold {
			tokenScore = 1.0
		}
		composite = append(composite, tokenScore+widthScores[i]+sizeScores[i])
	}

	bins, err := buildHistogram(composite)
	degenerate := err != nil
	var top []histogramBin
	if degenerate {
		logger.Warn("degenerate score distribution, treating all blocks as body",
			logger.Int("blocks", total))
		result.Degenerate = true
	} else {
		top = topBins(bins, c.cfg.TopBins)
	}

	flat := 0
	for pageIdx, page := range pages {
		for blockIdx, block := range page {
			tc := tokenCounts[pageIdx][blockIdx]
			tokenScore := 0.0
			if tc > c.cfg.TokenThreshold {
				tokenScore = 1.0
			}
			score := composite[flat]
			ws := widthScores[flat]
			ss := sizeScores[flat]
			flat++

			if c.isCaption(block.Text) {
				result.FigureTable[pageIdx] = append(result.FigureTable[pageIdx], block)
				continue
			}

			valid := degenerate ||
				(tokenScore == 1 && inAnyBin(top, score)) ||
				c.isLongParagraph(block.Text)

			if valid {
				result.Body[pageIdx] = append(result.Body[pageIdx], block)
			} else {
				diag := block
				diag.Text = diagnosticText(score, valid, tokenScore, tc, ws, ss, block.FontSize, block.Text)
				result.Excluded[pageIdx] = append(result.Excluded[pageIdx], diag)
			}
		}
	}

	return result
}

// isCaption reports whether the raw text starts with a figure or table
// keyword within its first two tokens.
func (c *Classifier) isCaption(text string) bool {
	keywords := captionKeywordsDefault
	if c.lang == "ja" {
		keywords = captionKeywordsJa
	}

	tokens := tokenizer.Tokenize(c.lang, text)
	limit := 2
	if len(tokens) < limit {
		limit = len(tokens)
	}
	for _, token := range tokens[:limit] {
		lower := strings.ToLower(token)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// isLongParagraph admits wide running text regardless of its score:
// many words, but not space-padded table rows.
func (c *Classifier) isLongParagraph(text string) bool {
	if len(text) == 0 {
		return false
	}
	words := len(strings.Split(text, " "))
	spaceFrac := float64(strings.Count(text, " ")) / float64(len(text))
	return words > c.cfg.LongParagraphWords && spaceFrac < c.cfg.MaxSpaceFraction
}

// inAnyBin reports whether v falls into any of the bins, edges
// inclusive.
func inAnyBin(bins []histogramBin, v float64) bool {
	for _, b := range bins {
		if b.contains(v) {
			return true
		}
	}
	return false
}

// cleanText strips punctuation, digits, and newlines, leaving the
// tokens the classifier counts.
func cleanText(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if r == '\n' || unicode.IsDigit(r) || isASCIIPunct(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimSpace(sb.String())
}

func isASCIIPunct(r rune) bool {
	return strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", r)
}

// diagnosticText renders the score breakdown stored in place of an
// excluded block's content.
func diagnosticText(score float64, valid bool, tokenScore float64, tokenCount int, widthScore, sizeScore, fontSize float64, text string) string {
	return fmt.Sprintf("[%s/%v] /T:%s/%d /W:%s /S:%s/%s /Text:%s",
		formatFloat(score), valid,
		formatFloat(tokenScore), tokenCount,
		formatFloat(widthScore),
		formatFloat(sizeScore), formatFloat(fontSize),
		text)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
