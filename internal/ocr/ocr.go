package ocr

import "context"

// Confidence is a qualitative indicator of extraction reliability for a page.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Engine abstracts the optical character recognition service. Implementations
// must return empty text rather than failing the page: a page the engine
// cannot read is a degradation, not a pipeline error.
type Engine interface {
	Recognize(ctx context.Context, pageImage []byte) (text string, conf Confidence, err error)
}
