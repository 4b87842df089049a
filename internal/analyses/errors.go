package analyses

import "errors"

// ErrUnparseableAnalysis reports a model response with too few recognizable
// sections to build a report from (a refusal or error text, typically).
// Terminal; the caller advises the user to retry.
var ErrUnparseableAnalysis = errors.New("unparseable analysis")

const (
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeUnreadable  = "UNREADABLE_DOCUMENT"
	ErrorCodeAuth        = "AUTH_ERROR"
	ErrorCodeRateLimited = "RATE_LIMITED"
	ErrorCodeLLMTimeout  = "LLM_TIMEOUT"
	ErrorCodeLLMService  = "LLM_SERVICE_ERROR"
	ErrorCodeUnparseable = "UNPARSEABLE_ANALYSIS"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)
