package analyses

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"health-backend/internal/extract"
	"health-backend/internal/llm"
	"health-backend/internal/ocr"
	"health-backend/report/render"
)

type staticLLM struct {
	resp string
	err  error
}

func (s staticLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.resp, nil
}

type staticEngine struct {
	text string
}

func (s staticEngine) Recognize(ctx context.Context, pageImage []byte) (string, ocr.Confidence, error) {
	return s.text, ocr.ConfidenceMedium, nil
}

func newTestRouter(t *testing.T, llmClient llm.Client, engine ocr.Engine) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &Service{
		Extractor: &extract.Extractor{Engine: engine, PageTimeout: time.Second},
		NewLLM: func(apiKey string) (llm.Client, error) {
			if apiKey == "" {
				return nil, &llm.APIError{Kind: llm.KindAuth, Message: "missing key"}
			}
			return llmClient, nil
		},
		Retry:    RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, Retryable: llm.Retryable},
		Renderer: render.New(""),
		Now:      func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
	}

	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(svc, "test-key", 5<<20).RegisterRoutes(api)
	return r
}

func pngUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var imgBuf bytes.Buffer
	if err := png.Encode(&imgBuf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "report.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(imgBuf.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.WriteField("language", "English")
	_ = mw.WriteField("patientName", "Asha")
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestCreateAnalysisHappyPath(t *testing.T) {
	r := newTestRouter(t,
		staticLLM{resp: fullResponse},
		staticEngine{text: "Hemoglobin 11.8 g/dL"},
	)

	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp analysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AnalysisID == "" {
		t.Error("missing analysis id")
	}
	if len(resp.Report.Sections) != 8 {
		t.Errorf("sections = %d, want 8", len(resp.Report.Sections))
	}
	if resp.Report.PatientName != "Asha" {
		t.Errorf("patient = %q", resp.Report.PatientName)
	}
	if resp.Display == "" {
		t.Error("missing display rendering")
	}
	if resp.DocumentBase64 == "" || resp.DocumentMime != "application/pdf" {
		t.Errorf("missing document: mime=%q", resp.DocumentMime)
	}
	if resp.PageCount != 1 {
		t.Errorf("page count = %d, want 1", resp.PageCount)
	}
	if resp.Confidence != ocr.ConfidenceMedium {
		t.Errorf("confidence = %s", resp.Confidence)
	}
}

func TestCreateAnalysisAuthError(t *testing.T) {
	r := newTestRouter(t,
		staticLLM{err: &llm.APIError{Kind: llm.KindAuth, StatusCode: 401, Message: "bad key"}},
		staticEngine{text: "some text"},
	)

	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body = %s", w.Code, w.Body.String())
	}
}

func TestCreateAnalysisUnparseableResponse(t *testing.T) {
	r := newTestRouter(t,
		staticLLM{resp: "I cannot analyze this."},
		staticEngine{text: "some text"},
	)

	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", w.Code, w.Body.String())
	}
}

func TestCreateAnalysisMissingFile(t *testing.T) {
	r := newTestRouter(t, staticLLM{resp: fullResponse}, staticEngine{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("language", "English")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestExtractionPreview(t *testing.T) {
	r := newTestRouter(t, staticLLM{resp: fullResponse}, staticEngine{text: "preview text"})

	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp extractionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "preview text" {
		t.Errorf("text = %q", resp.Text)
	}
	if len(resp.Pages) != 1 {
		t.Errorf("pages = %d", len(resp.Pages))
	}
}
