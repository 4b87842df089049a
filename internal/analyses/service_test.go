package analyses

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"health-backend/internal/extract"
	"health-backend/internal/llm"
	"health-backend/internal/ocr"
	"health-backend/report/model"
	"health-backend/report/render"
)

type lowConfidenceEngine struct {
	text string
}

func (e lowConfidenceEngine) Recognize(ctx context.Context, pageImage []byte) (string, ocr.Confidence, error) {
	return e.text, ocr.ConfidenceLow, nil
}

func newTestService(engine ocr.Engine, client llm.Client, maxPromptChars int) *Service {
	return &Service{
		Extractor: &extract.Extractor{Engine: engine, PageTimeout: time.Second},
		NewLLM: func(apiKey string) (llm.Client, error) {
			return client, nil
		},
		Retry:          RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, Retryable: llm.Retryable},
		Renderer:       render.New(""),
		MaxPromptChars: maxPromptChars,
		Now:            func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func hasWarning(warnings []string, code string) bool {
	for _, w := range warnings {
		if w == code {
			return true
		}
	}
	return false
}

func TestAnalyzeGlyphSetFailureKeepsReport(t *testing.T) {
	svc := newTestService(staticEngine{text: "हीमोग्लोबिन 11.8"}, staticLLM{resp: fullResponse}, 0)

	out, err := svc.Analyze(context.Background(), AnalyzeParams{
		Data:        pngBytes(t),
		MimeType:    "image/png",
		Language:    model.LanguageHindi,
		PatientName: "Asha",
		APIKey:      "sk-test",
	})
	if err != nil {
		t.Fatalf("analyze: %v (document rendering failure must not fail the analysis)", err)
	}
	if out.Document != nil {
		t.Error("document rendered without a Devanagari font")
	}
	if !hasWarning(out.Warnings, WarnDocumentUnavailable) {
		t.Errorf("warnings = %v, want %s", out.Warnings, WarnDocumentUnavailable)
	}
	if out.Display == "" {
		t.Error("display rendering missing")
	}
	if len(out.Report.Sections) != 8 {
		t.Errorf("sections = %d, want 8", len(out.Report.Sections))
	}
	if out.Report.PatientName != "Asha" {
		t.Errorf("patient = %q", out.Report.PatientName)
	}
}

func TestAnalyzeDegradedAndTruncatedWarnings(t *testing.T) {
	long := strings.Repeat("an observation about the checkup values ", 20)
	svc := newTestService(lowConfidenceEngine{text: long}, staticLLM{resp: fullResponse}, 80)

	out, err := svc.Analyze(context.Background(), AnalyzeParams{
		Data:     pngBytes(t),
		MimeType: "image/png",
		Language: model.LanguageEnglish,
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !hasWarning(out.Warnings, WarnExtractionDegraded) {
		t.Errorf("warnings = %v, want %s", out.Warnings, WarnExtractionDegraded)
	}
	if !hasWarning(out.Warnings, WarnInputTruncated) {
		t.Errorf("warnings = %v, want %s", out.Warnings, WarnInputTruncated)
	}
	if !out.Truncated {
		t.Error("truncated flag not carried through")
	}
	if out.Confidence != ocr.ConfidenceLow {
		t.Errorf("confidence = %s, want low", out.Confidence)
	}
	if len(out.Document) == 0 {
		t.Error("latin document missing")
	}
	if out.FileName == "" {
		t.Error("file name missing")
	}
}
