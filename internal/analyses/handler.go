package analyses

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"health-backend/internal/extract"
	"health-backend/internal/ingest"
	"health-backend/internal/llm"
	"health-backend/internal/ocr"
	"health-backend/internal/shared/server/middleware"
	"health-backend/internal/shared/server/respond"
	"health-backend/report/model"
)

const apiKeyHeader = "X-OpenAI-Key"

// Handler exposes the analysis pipeline over HTTP.
type Handler struct {
	svc            *Service
	defaultAPIKey  string
	maxUploadBytes int64
}

// NewHandler builds the handler. defaultAPIKey backs requests that do not
// carry their own credential header.
func NewHandler(svc *Service, defaultAPIKey string, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{svc: svc, defaultAPIKey: defaultAPIKey, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes mounts the analysis endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.create)
	rg.POST("/extractions", h.extractPreview)
}

type analysisResponse struct {
	AnalysisID     string         `json:"analysisId"`
	Report         model.Report   `json:"report"`
	Display        string         `json:"display"`
	DocumentBase64 string         `json:"documentBase64,omitempty"`
	DocumentMime   string         `json:"documentMime,omitempty"`
	FileName       string         `json:"fileName,omitempty"`
	PageCount      int            `json:"pageCount"`
	Confidence     ocr.Confidence `json:"confidence"`
	Truncated      bool           `json:"truncated"`
	Warnings       []string       `json:"warnings,omitempty"`
}

func (h *Handler) create(c *gin.Context) {
	data, mimeType, ok := h.readUpload(c)
	if !ok {
		return
	}

	lang := model.ParseLanguage(c.PostForm("language"))
	c.Set("language", string(lang))

	apiKey := strings.TrimSpace(c.GetHeader(apiKeyHeader))
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	}

	analysisID := uuid.NewString()
	c.Set("analysisId", analysisID)

	out, err := h.svc.Analyze(c.Request.Context(), AnalyzeParams{
		Data:        data,
		MimeType:    mimeType,
		Language:    lang,
		PatientName: c.PostForm("patientName"),
		APIKey:      apiKey,
		AnalysisID:  analysisID,
		RequestID:   middleware.RequestIDFromContext(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := analysisResponse{
		AnalysisID: analysisID,
		Report:     out.Report,
		Display:    out.Display,
		FileName:   out.FileName,
		PageCount:  out.PageCount,
		Confidence: out.Confidence,
		Truncated:  out.Truncated,
		Warnings:   out.Warnings,
	}
	if len(out.Document) > 0 {
		resp.DocumentBase64 = base64.StdEncoding.EncodeToString(out.Document)
		resp.DocumentMime = "application/pdf"
	}
	respond.OK(c, resp)
}

type extractionResponse struct {
	Pages      []extract.PageText `json:"pages"`
	Text       string             `json:"text"`
	Confidence ocr.Confidence     `json:"confidence"`
	Degraded   bool               `json:"degraded"`
}

// extractPreview runs only text extraction, so the front end can show what
// was read before the user pays for an analysis.
func (h *Handler) extractPreview(c *gin.Context) {
	data, mimeType, ok := h.readUpload(c)
	if !ok {
		return
	}

	extracted, err := h.svc.ExtractText(c.Request.Context(), data, mimeType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.OK(c, extractionResponse{
		Pages:      extracted.Pages,
		Text:       extracted.Concatenated(),
		Confidence: extracted.Overall,
		Degraded:   extracted.Degraded,
	})
}

// readUpload pulls the multipart file, bounded by the configured size.
func (h *Handler) readUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "file is required", nil)
		return nil, "", false
	}
	if fileHeader.Size > h.maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeValidation, "file exceeds upload limit", nil)
		return nil, "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "cannot read uploaded file", nil)
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "cannot read uploaded file", nil)
		return nil, "", false
	}
	if int64(len(data)) > h.maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeValidation, "file exceeds upload limit", nil)
		return nil, "", false
	}

	return data, uploadMime(fileHeader), true
}

// uploadMime prefers the declared content type, falling back to the file
// extension for clients that send application/octet-stream.
func uploadMime(fh *multipart.FileHeader) string {
	declared := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	name := strings.ToLower(fh.Filename)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return ingest.MimePDF
	case strings.HasSuffix(name, ".png"):
		return ingest.MimePNG
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return ingest.MimeJPEG
	default:
		return declared
	}
}

// respondError maps pipeline failures onto user-facing responses. Every
// terminal error reaches the caller as a distinct message with a
// remediation hint; nothing is swallowed into an empty success.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrUnreadableDocument):
		respond.Error(c, http.StatusBadRequest, ErrorCodeUnreadable,
			"Could not read the uploaded file. Please upload a clear, uncorrupted PDF or image.", nil)
	case errors.Is(err, ErrUnparseableAnalysis):
		respond.Error(c, http.StatusUnprocessableEntity, ErrorCodeUnparseable,
			"The analysis service returned an unusable response. Please try again.", nil)
	default:
		h.respondLLMError(c, err)
	}
}

func (h *Handler) respondLLMError(c *gin.Context, err error) {
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "Unexpected server error", nil)
		return
	}
	switch apiErr.Kind {
	case llm.KindAuth:
		respond.Error(c, http.StatusUnauthorized, ErrorCodeAuth,
			"The analysis service rejected the API key. Check the key and available quota.", nil)
	case llm.KindRateLimited:
		respond.Error(c, http.StatusTooManyRequests, ErrorCodeRateLimited,
			"The analysis service is rate limiting requests. Please retry shortly.", nil)
	case llm.KindTimeout:
		respond.Error(c, http.StatusBadGateway, ErrorCodeLLMTimeout,
			"The analysis service timed out. Please retry.", nil)
	default:
		respond.Error(c, http.StatusBadGateway, ErrorCodeLLMService,
			"The analysis service failed. Please retry.", nil)
	}
}
