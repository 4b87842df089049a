package analyses

import (
	"strings"
	"unicode/utf8"

	"health-backend/internal/llm"
	"health-backend/report/model"
)

// DefaultMaxPromptChars bounds the extracted text handed to the completion
// service. Roughly 4k tokens of report text; overridable via config.
const DefaultMaxPromptChars = 16000

// AnalysisRequest is the immutable input to the completion call: the
// bounded extracted text plus the session settings that shape the prompt.
type AnalysisRequest struct {
	Text        string
	Language    model.Language
	PatientName string
	// Truncated flags that Text was cut to fit the prompt bound. Carried
	// forward so the caller can disclose it alongside the report.
	Truncated bool
}

// BuildRequest bounds the text and captures the session settings. An empty
// text still yields a valid request; the model decides what it can say.
func BuildRequest(text string, lang model.Language, patientName string, maxChars int) AnalysisRequest {
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}
	bounded, truncated := truncateAtParagraph(text, maxChars)
	return AnalysisRequest{
		Text:        bounded,
		Language:    lang,
		PatientName: strings.TrimSpace(patientName),
		Truncated:   truncated,
	}
}

// Payload produces the instruction payload. Deterministic: identical
// requests serialize to byte-identical payloads.
func (r AnalysisRequest) Payload() llm.Request {
	return llm.BuildAnalysisPrompt(r.Text, r.Language, r.PatientName)
}

// truncateAtParagraph cuts text to at most maxChars bytes, preferring the
// paragraph boundary nearest the limit, then a sentence end, and only as a
// last resort a rune boundary. Never cuts mid-rune.
func truncateAtParagraph(text string, maxChars int) (string, bool) {
	if len(text) <= maxChars {
		return text, false
	}

	limit := maxChars
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	head := text[:limit]

	if cut := strings.LastIndex(head, "\n\n"); cut > 0 {
		return strings.TrimRight(head[:cut], "\n"), true
	}
	if cut := lastSentenceEnd(head); cut > 0 {
		return strings.TrimSpace(head[:cut]), true
	}
	return strings.TrimSpace(head), true
}

// sentenceEnders includes the Devanagari danda, since checkup reports from
// Hindi labs end sentences with it.
var sentenceEnders = []string{". ", ".\n", "। ", "।\n", "? ", "?\n", "! ", "!\n"}

func lastSentenceEnd(s string) int {
	best := -1
	for _, end := range sentenceEnders {
		if idx := strings.LastIndex(s, end); idx >= 0 {
			stop := idx + len(end) - 1 // keep the punctuation, drop the separator
			if stop > best {
				best = stop
			}
		}
	}
	return best
}
