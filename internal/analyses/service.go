package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"health-backend/internal/extract"
	"health-backend/internal/ingest"
	"health-backend/internal/llm"
	"health-backend/internal/ocr"
	"health-backend/internal/shared/telemetry"
	"health-backend/internal/shared/util"
	"health-backend/report/model"
	"health-backend/report/render"
)

// ClientFactory builds a completion client for a request-scoped credential.
type ClientFactory func(apiKey string) (llm.Client, error)

// Service runs the analysis pipeline: bytes -> text -> prompt -> raw
// completion -> structured report -> rendered outputs. Stateless between
// requests; session settings arrive with each call.
type Service struct {
	Extractor      *extract.Extractor
	NewLLM         ClientFactory
	Retry          RetryPolicy
	Renderer       *render.Renderer
	MaxPromptChars int
	Now            func() time.Time // test hook
}

// AnalyzeParams is the full per-request input.
type AnalyzeParams struct {
	Data        []byte
	MimeType    string
	Language    model.Language
	PatientName string
	APIKey      string
	AnalysisID  string
	RequestID   string
}

// Warning codes attached to successful results for non-fatal degradations.
const (
	WarnExtractionDegraded  = "EXTRACTION_DEGRADED"
	WarnInputTruncated      = "INPUT_TRUNCATED"
	WarnDocumentUnavailable = "DOCUMENT_UNAVAILABLE"
)

// AnalyzeOutput is the pipeline result: one structured report and its two
// renderings, plus the degradation flags the user must see.
type AnalyzeOutput struct {
	Report     model.Report
	Display    string
	Document   []byte // nil when the glyph set is unsupported
	FileName   string
	PageCount  int
	Confidence ocr.Confidence
	Truncated  bool
	Warnings   []string
}

// Analyze runs the whole pipeline for one uploaded document.
func (s *Service) Analyze(ctx context.Context, p AnalyzeParams) (AnalyzeOutput, error) {
	pages, err := ingest.Normalize(ctx, ingest.UploadedDocument{Data: p.Data, MimeType: p.MimeType})
	if err != nil {
		return AnalyzeOutput{}, err
	}
	// The raw upload is dead weight from here on; only page units travel
	// forward, so the byte buffer can be collected during the slow calls.
	p.Data = nil

	extracted, err := s.Extractor.Extract(ctx, pages)
	if err != nil {
		return AnalyzeOutput{}, err
	}

	req := BuildRequest(extracted.Concatenated(), p.Language, p.PatientName, s.MaxPromptChars)

	var warnings []string
	if extracted.Degraded {
		warnings = append(warnings, WarnExtractionDegraded)
		telemetry.Warn("extract.degraded", map[string]any{
			"analysis_id": p.AnalysisID,
			"request_id":  p.RequestID,
			"pages":       len(extracted.Pages),
			"confidence":  extracted.Overall,
		})
	}
	if req.Truncated {
		warnings = append(warnings, WarnInputTruncated)
		telemetry.Warn("request.truncated", map[string]any{
			"analysis_id": p.AnalysisID,
			"request_id":  p.RequestID,
			"max_chars":   s.MaxPromptChars,
		})
	}

	base, err := s.NewLLM(p.APIKey)
	if err != nil {
		return AnalyzeOutput{}, err
	}
	client := WithRetry(base, s.Retry, p.AnalysisID, p.RequestID)

	raw, err := client.Complete(ctx, req.Payload())
	if err != nil {
		return AnalyzeOutput{}, err
	}

	rep, err := ParseReport(raw, p.Language)
	if err != nil {
		return AnalyzeOutput{}, err
	}
	now := s.now()
	rep.PatientName = req.PatientName
	rep.GeneratedAt = now.UTC().Format("2006-01-02 15:04:05")

	out := AnalyzeOutput{
		Report:     rep,
		Display:    render.Display(rep),
		FileName:   util.ReportFileName(req.PatientName, now),
		PageCount:  len(extracted.Pages),
		Confidence: extracted.Overall,
		Truncated:  req.Truncated,
		Warnings:   warnings,
	}

	doc, err := s.Renderer.Document(rep)
	switch {
	case err == nil:
		out.Document = doc
	case errors.Is(err, render.ErrUnsupportedGlyphSet):
		// Terminal for the download only; the display copy still ships.
		out.Warnings = append(out.Warnings, WarnDocumentUnavailable)
		telemetry.Warn("render.glyphs_unsupported", map[string]any{
			"analysis_id": p.AnalysisID,
			"request_id":  p.RequestID,
			"language":    p.Language,
			"error":       err.Error(),
		})
	default:
		return AnalyzeOutput{}, fmt.Errorf("render document: %w", err)
	}

	telemetry.Info("analysis.complete", map[string]any{
		"analysis_id": p.AnalysisID,
		"request_id":  p.RequestID,
		"language":    p.Language,
		"pages":       out.PageCount,
		"confidence":  out.Confidence,
		"truncated":   out.Truncated,
		"warnings":    out.Warnings,
	})
	return out, nil
}

// ExtractText runs only the front half of the pipeline, for the extracted-
// text preview shown before the user commits to an analysis.
func (s *Service) ExtractText(ctx context.Context, data []byte, mimeType string) (extract.ExtractedText, error) {
	pages, err := ingest.Normalize(ctx, ingest.UploadedDocument{Data: data, MimeType: mimeType})
	if err != nil {
		return extract.ExtractedText{}, err
	}
	return s.Extractor.Extract(ctx, pages)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
