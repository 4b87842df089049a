package llm

import "context"

// Request is the instruction payload sent to the completion service.
type Request struct {
	System string
	User   string
}

// Client abstracts completion-service providers for report analysis.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
