package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"health-backend/internal/ingest"
	"health-backend/internal/ocr"
)

const (
	defaultPageTimeout   = 30 * time.Second
	defaultMaxConcurrent = 4
)

// PageText is the extraction result for a single source page.
type PageText struct {
	Index      int            `json:"index"`
	Text       string         `json:"text"`
	Confidence ocr.Confidence `json:"confidence"`
}

// ExtractedText is the ordered page texts for the whole document. Page
// order always matches source order; unreadable pages stay in place as
// empty strings so indices remain stable.
type ExtractedText struct {
	Pages   []PageText     `json:"pages"`
	Overall ocr.Confidence `json:"overall"`
	// Degraded flags documents where at least one page came back empty or
	// low confidence. A warning for the caller, never an error.
	Degraded bool `json:"degraded"`
}

// Concatenated joins page texts in source order, blank line between pages.
func (e ExtractedText) Concatenated() string {
	parts := make([]string, 0, len(e.Pages))
	for _, p := range e.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Extractor turns page units into text. Embedded-text pages are direct
// reads; OCR pages fan out to the engine, bounded per page by PageTimeout.
type Extractor struct {
	Engine        ocr.Engine
	PageTimeout   time.Duration
	MaxConcurrent int
}

// Extract produces one PageText per unit. OCR of independent pages runs
// concurrently; each result is written to its own slot, so completion
// order never affects output order.
func (x *Extractor) Extract(ctx context.Context, units []ingest.PageUnit) (ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return ExtractedText{}, err
	}

	pageTimeout := x.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}

	pages := make([]PageText, len(units))
	g, gctx := errgroup.WithContext(ctx)
	limit := x.MaxConcurrent
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}
	g.SetLimit(limit)

	for i, unit := range units {
		if !unit.NeedsOCR {
			pages[i] = PageText{
				Index:      unit.Index,
				Text:       NormalizeWhitespace(unit.Text),
				Confidence: ocr.ConfidenceHigh,
			}
			continue
		}

		g.Go(func() error {
			pages[i] = x.ocrPage(gctx, unit, pageTimeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ExtractedText{}, err
	}
	// User cancellation during OCR discards partial work.
	if err := ctx.Err(); err != nil {
		return ExtractedText{}, err
	}

	return summarize(pages), nil
}

// ocrPage runs one page through the engine. Timeouts and engine errors
// degrade to an empty low-confidence page; they never fail the pipeline.
func (x *Extractor) ocrPage(ctx context.Context, unit ingest.PageUnit, timeout time.Duration) PageText {
	empty := PageText{Index: unit.Index, Text: "", Confidence: ocr.ConfidenceLow}
	if len(unit.Image) == 0 || x.Engine == nil {
		return empty
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, conf, err := x.Engine.Recognize(pctx, unit.Image)
	if err != nil {
		return empty
	}
	text = NormalizeWhitespace(text)
	if text == "" {
		return empty
	}
	if conf == "" {
		conf = ocr.ConfidenceMedium
	}
	return PageText{Index: unit.Index, Text: text, Confidence: conf}
}

func summarize(pages []PageText) ExtractedText {
	out := ExtractedText{Pages: pages, Overall: ocr.ConfidenceHigh}
	if len(pages) == 0 {
		out.Overall = ocr.ConfidenceLow
		out.Degraded = true
		return out
	}
	for _, p := range pages {
		if rank(p.Confidence) < rank(out.Overall) {
			out.Overall = p.Confidence
		}
		if p.Text == "" || p.Confidence == ocr.ConfidenceLow {
			out.Degraded = true
		}
	}
	return out
}

func rank(c ocr.Confidence) int {
	switch c {
	case ocr.ConfidenceHigh:
		return 2
	case ocr.ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

var (
	spaceRuns     = regexp.MustCompile(`[ \t]+`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// NormalizeWhitespace collapses space runs and stacks of blank lines so
// prompt size stays predictable across scanners and OCR engines.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
