package model

import "strings"

// Language selects the output language for the analysis and report.
type Language string

const (
	LanguageEnglish  Language = "English"
	LanguageHindi    Language = "Hindi"
	LanguageHinglish Language = "Hinglish"
)

// ParseLanguage normalizes a user-supplied language value. Unknown values
// fall back to English, matching the original selector's default.
func ParseLanguage(raw string) Language {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hindi", "hi":
		return LanguageHindi
	case "hinglish":
		return LanguageHinglish
	default:
		return LanguageEnglish
	}
}

// NeedsDevanagari reports whether rendering this language requires the
// Devanagari glyph set.
func (l Language) NeedsDevanagari() bool {
	return l == LanguageHindi || l == LanguageHinglish
}

// SectionKey identifies one of the eight fixed report sections.
type SectionKey string

const (
	SectionSummary    SectionKey = "summary"
	SectionFindings   SectionKey = "findings"
	SectionStatus     SectionKey = "status"
	SectionLifestyle  SectionKey = "lifestyle"
	SectionDiet       SectionKey = "diet"
	SectionExercise   SectionKey = "exercise"
	SectionFollowUp   SectionKey = "followUp"
	SectionPrevention SectionKey = "prevention"
)

// SectionOrder is the fixed presentation order shared by every rendering
// of a report. Display and document output must never diverge from it.
var SectionOrder = []SectionKey{
	SectionSummary,
	SectionFindings,
	SectionStatus,
	SectionLifestyle,
	SectionDiet,
	SectionExercise,
	SectionFollowUp,
	SectionPrevention,
}

// Section holds the localized content for one report section: free-form
// text and, when the model emitted a list, the individual bullet items.
type Section struct {
	Text    string   `json:"text"`
	Bullets []string `json:"bullets,omitempty"`
	// Placeholder marks a section the model omitted; Text then carries the
	// localized "not available" marker.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Report is the structured analysis result. All eight sections are always
// present; omitted ones carry a placeholder so renderers never see a
// partial object.
type Report struct {
	Language    Language               `json:"language"`
	PatientName string                 `json:"patientName,omitempty"`
	GeneratedAt string                 `json:"generatedAt"`
	Sections    map[SectionKey]Section `json:"sections"`
}

// SectionFor returns the named section. Missing entries come back as an
// empty placeholder so callers can range over SectionOrder safely.
func (r Report) SectionFor(key SectionKey) Section {
	if s, ok := r.Sections[key]; ok {
		return s
	}
	return Section{Placeholder: true}
}
