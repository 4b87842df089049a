package llm

import (
	_ "embed"
	"strings"

	"health-backend/report/model"
)

//go:embed prompts/analysis_v1.txt
var analysisPromptV1 string

const systemPrompt = "You are a helpful medical AI assistant that provides health report analysis and recommendations."

// languageInstructions are the per-language directives appended to the
// analysis prompt. The Hindi one is itself written in Hindi so the model
// commits to the script.
var languageInstructions = map[model.Language]string{
	model.LanguageEnglish:  "Provide the analysis in clear, professional English.",
	model.LanguageHindi:    "कृपया विश्लेषण स्पष्ट और व्यावसायिक हिंदी में प्रदान करें।",
	model.LanguageHinglish: "Please provide the analysis in Hinglish (Hindi-English mix) that's easy to understand for Indian users.",
}

// BuildAnalysisPrompt assembles the deterministic instruction payload.
// Identical (text, language, patientName) inputs yield byte-identical
// output; the model call is the only non-deterministic step.
func BuildAnalysisPrompt(text string, lang model.Language, patientName string) Request {
	instruction, ok := languageInstructions[lang]
	if !ok {
		instruction = languageInstructions[model.LanguageEnglish]
	}

	patientLine := ""
	if name := strings.TrimSpace(patientName); name != "" {
		patientLine = "Patient Name: " + name + "\n"
	}

	replacer := strings.NewReplacer(
		"{{LANGUAGE_INSTRUCTION}}", instruction,
		"{{PATIENT_LINE}}", patientLine,
		"{{REPORT_TEXT}}", text,
	)
	return Request{
		System: systemPrompt,
		User:   replacer.Replace(analysisPromptV1),
	}
}
