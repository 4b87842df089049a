package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"health-backend/internal/analyses"
	"health-backend/internal/extract"
	"health-backend/internal/llm"
	"health-backend/internal/llm/openai"
	"health-backend/internal/ocr"
	"health-backend/internal/shared/config"
	"health-backend/internal/shared/server/middleware"
	"health-backend/internal/shared/server/respond"
	"health-backend/report/render"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	svc := buildService(cfg)
	handler := analyses.NewHandler(svc, cfg.OpenAIAPIKey, int64(cfg.MaxUploadMB)<<20)

	api := r.Group("/api/v1")
	api.GET("/health", respond.Healthy)
	handler.RegisterRoutes(api)

	return r
}

func buildService(cfg config.Config) *analyses.Service {
	engine := ocr.NewTesseract(cfg.OCRBin, cfg.OCRLangs)

	retry := analyses.DefaultRetryPolicy()
	if cfg.LLMMaxAttempts > 0 {
		retry.MaxAttempts = cfg.LLMMaxAttempts
	}

	return &analyses.Service{
		Extractor: &extract.Extractor{
			Engine:      engine,
			PageTimeout: time.Duration(cfg.OCRPageTimeoutSecs) * time.Second,
		},
		NewLLM: func(apiKey string) (llm.Client, error) {
			return openai.NewClient(apiKey, cfg.LLMModel, time.Duration(cfg.LLMTimeoutSecs)*time.Second)
		},
		Retry:          retry,
		Renderer:       render.New(cfg.HindiFontPath),
		MaxPromptChars: cfg.MaxPromptChars,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
