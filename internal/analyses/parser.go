package analyses

import (
	"strings"

	"health-backend/report/model"
)

// minRecognizedSections is the threshold below which a model response is
// treated as unusable (a refusal or an error message rather than a report).
// Tunable; three of eight strikes the balance between salvaging partial
// responses and passing garbage through.
const minRecognizedSections = 3

// headingAliases maps each section to the heading spellings the parser
// accepts. The prompt pins the English headings, but models localize or
// reword them often enough that the aliases earn their keep.
var headingAliases = map[model.SectionKey][]string{
	model.SectionSummary:    {"summary", "सारांश"},
	model.SectionFindings:   {"key findings", "findings", "मुख्य निष्कर्ष", "निष्कर्ष"},
	model.SectionStatus:     {"health status", "overall health", "स्वास्थ्य स्थिति"},
	model.SectionLifestyle:  {"lifestyle recommendations", "lifestyle", "जीवनशैली"},
	model.SectionDiet:       {"dietary suggestions", "dietary", "diet", "आहार"},
	model.SectionExercise:   {"exercise recommendations", "exercise", "व्यायाम"},
	model.SectionFollowUp:   {"follow-up actions", "follow-up", "follow up", "फॉलो-अप", "फॉलो अप"},
	model.SectionPrevention: {"preventive measures", "prevention", "निवारक उपाय"},
}

// placeholderText is the localized "not available" marker for sections the
// model omitted.
var placeholderText = map[model.Language]string{
	model.LanguageEnglish:  "Not available.",
	model.LanguageHindi:    "उपलब्ध नहीं है।",
	model.LanguageHinglish: "Not available.",
}

// sectionAccum collects the lines attributed to one section while scanning.
type sectionAccum struct {
	text    []string
	bullets []string
}

// ParseReport decomposes raw model text into the fixed eight-section report.
// Headings are matched case-insensitively, tolerating numbering, markdown
// emphasis and trailing colons. Sections never found are filled with a
// localized placeholder; if fewer than minRecognizedSections headings are
// recognized at all, the response is rejected as unparseable.
func ParseReport(raw string, lang model.Language) (model.Report, error) {
	accums := make(map[model.SectionKey]*sectionAccum)
	var current *sectionAccum // nil while in the preamble

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, " \t")

		if key, rest, ok := matchHeading(line); ok {
			// A repeated heading reopens its section; content keeps
			// accumulating rather than being dropped or overwritten.
			acc, exists := accums[key]
			if !exists {
				acc = &sectionAccum{}
				accums[key] = acc
			}
			current = acc
			if rest != "" {
				acc.append(rest)
			}
			continue
		}

		if current == nil {
			continue // preamble before the first recognized heading
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			current.text = append(current.text, "")
			continue
		}
		current.append(trimmed)
	}

	if len(accums) < minRecognizedSections {
		return model.Report{}, ErrUnparseableAnalysis
	}

	placeholder := placeholderText[lang]
	if placeholder == "" {
		placeholder = placeholderText[model.LanguageEnglish]
	}

	sections := make(map[model.SectionKey]model.Section, len(model.SectionOrder))
	for _, key := range model.SectionOrder {
		acc, ok := accums[key]
		if !ok || acc.empty() {
			sections[key] = model.Section{Text: placeholder, Placeholder: true}
			continue
		}
		sections[key] = model.Section{
			Text:    joinText(acc.text),
			Bullets: acc.bullets,
		}
	}

	return model.Report{Language: lang, Sections: sections}, nil
}

func (a *sectionAccum) append(line string) {
	if bullet, ok := stripBullet(line); ok {
		a.bullets = append(a.bullets, bullet)
		return
	}
	a.text = append(a.text, line)
}

func (a *sectionAccum) empty() bool {
	return len(a.bullets) == 0 && strings.TrimSpace(strings.Join(a.text, "")) == ""
}

func joinText(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// matchHeading reports whether a line is one of the recognized section
// headings. It returns the section key and any content trailing the
// heading on the same line ("**SUMMARY**: All values normal").
func matchHeading(line string) (model.SectionKey, string, bool) {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return "", "", false
	}
	undecorated := trimHeadingDecoration(stripped)
	decorated := undecorated != stripped
	lower := strings.ToLower(undecorated)

	for _, key := range model.SectionOrder {
		for _, alias := range headingAliases[key] {
			if !strings.HasPrefix(lower, alias) {
				continue
			}
			rest := undecorated[len(alias):]
			rest = strings.TrimLeft(rest, "*_")
			// The alias must end at a heading boundary, not inside a word.
			if rest != "" && rest[0] != ':' && rest[0] != ' ' && rest[0] != '-' {
				continue
			}
			// An undecorated alias followed by plain prose is a sentence
			// ("Summary of results shows..."), not a heading.
			if !decorated && rest != "" && rest[0] == ' ' {
				continue
			}
			rest = strings.TrimLeft(rest, ": -")
			return key, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}

// trimHeadingDecoration drops the numbering and markdown dressing models
// put around headings: "3. **HEALTH STATUS**:" -> "HEALTH STATUS**:".
func trimHeadingDecoration(s string) string {
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	// leading list numbering: "1.", "2)", "8 -"
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "*_")
	return strings.TrimSpace(s)
}

// stripBullet detects list items ("- x", "* x", "• x", "1. x") and returns
// the item text.
func stripBullet(line string) (string, bool) {
	s := strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* ", "• ", "– "} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(s[len(prefix):]), true
		}
	}
	// numbered list items inside a section
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(s) && (s[i] == '.' || s[i] == ')') && s[i+1] == ' ' {
		return strings.TrimSpace(s[i+2:]), true
	}
	return "", false
}
