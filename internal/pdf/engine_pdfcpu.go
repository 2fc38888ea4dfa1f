package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	ledong "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"paper-translator/internal/logger"
)

// PdfcpuEngine is the pure Go document engine. Extraction reads text
// rows with their geometry, redaction covers regions with opaque white
// rectangles, and painting stamps text into the original regions. It
// needs no native libraries and is the default engine.
type PdfcpuEngine struct {
	conf *model.Configuration

	mu             sync.Mutex
	installedFonts map[string]string // font file path -> installed font name
}

// NewPdfcpuEngine creates a PdfcpuEngine with relaxed validation so
// slightly malformed documents still process.
func NewPdfcpuEngine() *PdfcpuEngine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PdfcpuEngine{
		conf:           conf,
		installedFonts: make(map[string]string),
	}
}

// Name implements DocumentEngine.
func (e *PdfcpuEngine) Name() string { return "pdfcpu" }

// writeTemp writes doc to a temporary file and returns its path. The
// caller removes the containing directory.
func writeTemp(doc []byte, name string) (dir, path string, err error) {
	dir, err = os.MkdirTemp("", "papertrans-*")
	if err != nil {
		return "", "", fmt.Errorf("create temp dir: %w", err)
	}
	path = filepath.Join(dir, name)
	if err := os.WriteFile(path, doc, 0644); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("write temp pdf: %w", err)
	}
	return dir, path, nil
}

// Validate implements DocumentEngine.
func (e *PdfcpuEngine) Validate(doc []byte) error {
	dir, path, err := writeTemp(doc, "in.pdf")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	if err := api.ValidateFile(path, e.conf); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}

// PageCount implements DocumentEngine.
func (e *PdfcpuEngine) PageCount(doc []byte) (int, error) {
	dir, path, err := writeTemp(doc, "in.pdf")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(dir)

	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// pageHeights returns the media box height of every page, in points.
func (e *PdfcpuEngine) pageHeights(path string) ([]float64, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf context: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("read page dimensions: %w", err)
	}
	heights := make([]float64, len(dims))
	for i, d := range dims {
		heights[i] = d.Height
	}
	return heights, nil
}

// extractedRow is one text row with its merged geometry, still in the
// extractor's bottom-left origin.
type extractedRow struct {
	text     string
	minX     float64
	maxX     float64
	baseline float64
	fontSize float64
	fontName string
}

// Extract implements DocumentEngine. Rows are read per page, filtered
// for operator garbage, converted to top-left coordinates, and grouped
// into blocks by vertical proximity.
func (e *PdfcpuEngine) Extract(doc []byte) ([][]Block, error) {
	dir, path, err := writeTemp(doc, "in.pdf")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	heights, err := e.pageHeights(path)
	if err != nil {
		return nil, err
	}

	f, r, err := ledong.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	if totalPages > len(heights) {
		totalPages = len(heights)
	}

	pages := make([][]Block, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		pageH := heights[pageNum-1]
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		if page.V.Key("Contents").Kind() == ledong.Null {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			logger.Warn("text extraction failed for page, skipping",
				logger.Int("page", pageNum), logger.Err(err))
			continue
		}

		var extracted []extractedRow
		for _, row := range rows {
			if er, ok := mergeRow(row.Content); ok {
				extracted = append(extracted, er)
			}
		}

		// Top-to-bottom reading order: the extractor's y grows upward.
		sort.SliceStable(extracted, func(i, j int) bool {
			return extracted[i].baseline > extracted[j].baseline
		})

		pages[pageNum-1] = groupRows(extracted, pageNum-1, pageH)
	}

	return pages, nil
}

// mergeRow collapses one extractor row into a single text span with
// bounds, dropping operator garbage. ok is false when nothing usable
// remains.
func mergeRow(content []ledong.Text) (extractedRow, bool) {
	var (
		sb        strings.Builder
		er        extractedRow
		sizeSum   float64
		sizeCount int
		first     = true
	)
	for _, t := range content {
		if t.S == "" || isOperatorGarbage(t.S) {
			continue
		}
		sb.WriteString(t.S)

		right := t.X + t.W
		if first {
			er.minX, er.maxX = t.X, right
			er.baseline = t.Y
			er.fontName = t.Font
			first = false
		} else {
			if t.X < er.minX {
				er.minX = t.X
			}
			if right > er.maxX {
				er.maxX = right
			}
		}
		sizeSum += t.FontSize
		sizeCount++
	}

	er.text = strings.TrimSpace(sb.String())
	if er.text == "" || isOperatorGarbage(er.text) || hasExcessiveNonPrintable(er.text) {
		return extractedRow{}, false
	}
	if sizeCount > 0 {
		er.fontSize = sizeSum / float64(sizeCount)
	}
	if er.fontSize <= 0 {
		er.fontSize = 10.0
	}
	if er.maxX <= er.minX {
		er.maxX = er.minX + float64(len(er.text))*er.fontSize*0.5
	}
	return er, true
}

// groupRows joins vertically adjacent rows into blocks and converts
// geometry to the top-left origin used everywhere downstream.
func groupRows(rows []extractedRow, pageIndex int, pageHeight float64) []Block {
	var blocks []Block
	var cur *Block
	var curLines []string
	var prevTop float64

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.Join(curLines, "\n")
		blocks = append(blocks, *cur)
		cur = nil
		curLines = nil
	}

	for _, row := range rows {
		top := pageHeight - row.baseline - row.fontSize
		bottom := pageHeight - row.baseline + row.fontSize*0.3
		box := BoundingBox{X0: row.minX, Y0: top, X1: row.maxX, Y1: bottom}

		// A row starts a new block when the vertical gap to the previous
		// row exceeds roughly one line, or it does not overlap the block
		// horizontally.
		adjacent := cur != nil &&
			top-prevTop < row.fontSize*1.8 &&
			box.X0 < cur.BBox.X1 && box.X1 > cur.BBox.X0

		if adjacent {
			curLines = append(curLines, row.text)
			if box.X0 < cur.BBox.X0 {
				cur.BBox.X0 = box.X0
			}
			if box.X1 > cur.BBox.X1 {
				cur.BBox.X1 = box.X1
			}
			if box.Y1 > cur.BBox.Y1 {
				cur.BBox.Y1 = box.Y1
			}
			cur.FontSize = (cur.FontSize + row.fontSize) / 2
		} else {
			flush()
			cur = &Block{
				PageIndex: pageIndex,
				BBox:      box,
				FontSize:  row.fontSize,
				FontName:  row.fontName,
			}
			curLines = []string{row.text}
		}
		prevTop = top
	}
	flush()

	for i := range blocks {
		blocks[i].BlockIndex = i
	}
	return blocks
}

// isOperatorGarbage reports whether text looks like leaked PostScript
// or content-stream operator code rather than document prose.
func isOperatorGarbage(text string) bool {
	if len(text) == 0 {
		return false
	}
	lower := strings.ToLower(text)

	if (strings.Contains(text, " def ") || strings.HasSuffix(text, " def")) && strings.Contains(text, "/") {
		return true
	}
	if strings.Contains(lower, "null def") {
		return true
	}
	if strings.Contains(text, "@stx") || strings.Contains(text, "@etx") {
		return true
	}
	if strings.Contains(lower, "/burl") || strings.Contains(lower, "burl@") {
		return true
	}

	operators := []string{
		"currentpoint", "gsave", "grestore", "newpath", "closepath",
		"setrgbcolor", "setgray", "setlinewidth", "showpage",
		"moveto", "lineto", "curveto",
	}
	for _, op := range operators {
		if strings.Contains(lower, op) {
			return true
		}
	}
	return false
}

// hasExcessiveNonPrintable reports whether more than 10% of the runes
// are control or non-printable characters.
func hasExcessiveNonPrintable(text string) bool {
	if len(text) == 0 {
		return false
	}
	bad := 0
	for _, r := range text {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			bad++
		}
		if r >= 0x7F && r <= 0x9F {
			bad++
		}
	}
	return float64(bad)/float64(len(text)) > 0.1
}

// Redact implements DocumentEngine. pdfcpu cannot rewrite content
// streams in place, so every box is covered with an opaque white
// image stamped on top of the page content.
func (e *PdfcpuEngine) Redact(doc []byte, boxes [][]BoundingBox) ([]byte, error) {
	dir, path, err := writeTemp(doc, "in.pdf")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	heights, err := e.pageHeights(path)
	if err != nil {
		return nil, err
	}

	for pageIdx, pageBoxes := range boxes {
		if pageIdx >= len(heights) {
			break
		}
		pageH := heights[pageIdx]
		selected := []string{strconv.Itoa(pageIdx + 1)}
		for _, box := range pageBoxes {
			if !box.IsValid() {
				continue
			}
			cover, err := coverImage(box)
			if err != nil {
				return nil, err
			}
			// One pixel per point at absolute scale 1, so the stamp
			// covers the box exactly. Stamp offsets are in user space
			// with y growing upward.
			desc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0",
				box.X0, pageH-box.Y1)
			wm, err := api.ImageWatermarkForReader(bytes.NewReader(cover), desc, true, false, types.POINTS)
			if err != nil {
				return nil, fmt.Errorf("cover region on page %d: %w", pageIdx+1, err)
			}
			if err := api.AddWatermarksFile(path, "", selected, wm, e.conf); err != nil {
				return nil, fmt.Errorf("cover region on page %d: %w", pageIdx+1, err)
			}
		}
	}

	return os.ReadFile(path)
}

// coverImage renders an opaque white PNG sized to the box, one pixel
// per point.
func coverImage(box BoundingBox) ([]byte, error) {
	w := int(math.Ceil(box.Width()))
	h := int(math.Ceil(box.Height()))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode cover image: %w", err)
	}
	return buf.Bytes(), nil
}

// PaintTextBox implements DocumentEngine. The vertical fit is checked
// against the line count before stamping; the stamp itself cannot
// report overflow.
func (e *PdfcpuEngine) PaintTextBox(doc []byte, pageIndex int, box BoundingBox, text string, fontSize float64, fontFile string, lineHeight float64) ([]byte, error) {
	lines := strings.Count(text, "\n") + 1
	if float64(lines)*fontSize*lineHeight > box.Height()+0.5 {
		return nil, ErrInsufficientSpace
	}

	fontName, err := e.ensureFont(fontFile)
	if err != nil {
		return nil, err
	}

	dir, path, err := writeTemp(doc, "in.pdf")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	heights, err := e.pageHeights(path)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(heights) {
		return nil, fmt.Errorf("page index %d out of range", pageIndex)
	}

	// Built through pdfcpu's own description parser so the stamp starts
	// from a fully initialized watermark.
	desc := fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%.2f %.2f, scalefactor:1 abs, aligntext:justify, fillcolor:#000000, rotation:0",
		fontName, int(fontSize), box.X0, heights[pageIndex]-box.Y1)
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("paint text on page %d: %w", pageIndex+1, err)
	}
	selected := []string{strconv.Itoa(pageIndex + 1)}
	if err := api.AddWatermarksFile(path, "", selected, wm, e.conf); err != nil {
		return nil, fmt.Errorf("paint text on page %d: %w", pageIndex+1, err)
	}

	return os.ReadFile(path)
}

// ensureFont installs the font file into pdfcpu's user font registry
// once and returns the registered font name. pdfcpu registers fonts
// under their PostScript name, so the name is discovered by diffing
// the registry around the install.
func (e *PdfcpuEngine) ensureFont(fontFile string) (string, error) {
	if fontFile == "" {
		return "Helvetica", nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if name, ok := e.installedFonts[fontFile]; ok {
		return name, nil
	}
	if _, err := os.Stat(fontFile); err != nil {
		return "", fmt.Errorf("font file: %w", err)
	}

	before := make(map[string]bool)
	for _, n := range pdffont.UserFontNames() {
		before[n] = true
	}

	base := filepath.Base(fontFile)
	if err := api.InstallFonts([]string{fontFile}); err != nil {
		return "", fmt.Errorf("install font %s: %w", base, err)
	}
	if err := pdffont.LoadUserFonts(); err != nil {
		return "", fmt.Errorf("load user fonts: %w", err)
	}

	after := pdffont.UserFontNames()
	sort.Strings(after)

	var name string
	for _, n := range after {
		if !before[n] {
			name = n
			break
		}
	}
	if name == "" {
		// Already installed in a previous process: match on the file's
		// base name instead.
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, n := range after {
			if strings.EqualFold(n, stem) {
				name = n
				break
			}
		}
	}
	if name == "" {
		return "", fmt.Errorf("font %s not registered after install", base)
	}

	e.installedFonts[fontFile] = name
	return name, nil
}

// Spread implements DocumentEngine. Both documents are split into
// single pages, interleaved original-then-translated, merged, and the
// viewer layout set to a two-page spread so each pair displays side by
// side.
func (e *PdfcpuEngine) Spread(original, translated []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "papertrans-spread-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	origPath := filepath.Join(dir, "orig.pdf")
	transPath := filepath.Join(dir, "trans.pdf")
	if err := os.WriteFile(origPath, original, 0644); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := os.WriteFile(transPath, translated, 0644); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	origCount, err := api.PageCountFile(origPath)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	transCount, err := api.PageCountFile(transPath)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if origCount != transCount {
		return nil, fmt.Errorf("page count mismatch: original %d, translated %d", origCount, transCount)
	}

	origDir := filepath.Join(dir, "orig")
	transDir := filepath.Join(dir, "trans")
	for _, d := range []string{origDir, transDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("create split dir: %w", err)
		}
	}
	if err := api.SplitFile(origPath, origDir, 1, e.conf); err != nil {
		return nil, fmt.Errorf("split original: %w", err)
	}
	if err := api.SplitFile(transPath, transDir, 1, e.conf); err != nil {
		return nil, fmt.Errorf("split translated: %w", err)
	}

	origPages, err := splitPagePaths(origDir, origCount)
	if err != nil {
		return nil, err
	}
	transPages, err := splitPagePaths(transDir, transCount)
	if err != nil {
		return nil, err
	}

	interleaved := make([]string, 0, origCount*2)
	for i := 0; i < origCount; i++ {
		interleaved = append(interleaved, origPages[i], transPages[i])
	}

	mergedPath := filepath.Join(dir, "merged.pdf")
	if err := api.MergeCreateFile(interleaved, mergedPath, false, e.conf); err != nil {
		return nil, fmt.Errorf("merge spread: %w", err)
	}

	outPath := filepath.Join(dir, "spread.pdf")
	if err := api.SetPageLayoutFile(mergedPath, outPath, model.PageLayoutTwoPageLeft, e.conf); err != nil {
		return nil, fmt.Errorf("set page layout: %w", err)
	}

	return os.ReadFile(outPath)
}

// splitPagePaths returns the single-page files produced by SplitFile in
// page order. File names carry the page number as the last numeric
// suffix before the extension.
func splitPagePaths(dir string, count int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read split dir: %w", err)
	}

	type pageFile struct {
		page int
		path string
	}
	var files []pageFile
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		idx := strings.LastIndexFunc(base, func(r rune) bool { return !unicode.IsDigit(r) })
		page, err := strconv.Atoi(base[idx+1:])
		if err != nil {
			continue
		}
		files = append(files, pageFile{page: page, path: filepath.Join(dir, name)})
	}
	if len(files) != count {
		return nil, fmt.Errorf("split produced %d pages, expected %d", len(files), count)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].page < files[j].page })
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
