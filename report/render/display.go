package render

import (
	"strings"

	"health-backend/report/model"
)

// Display renders the report as a plain-text representation for on-screen
// presentation. Sections always appear in model.SectionOrder; the PDF
// rendering follows the same order, so the two never diverge in content.
func Display(rep model.Report) string {
	var b strings.Builder

	b.WriteString(Title(rep.Language))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n")
	if rep.PatientName != "" {
		b.WriteString("Patient: " + rep.PatientName + "\n")
	}
	if rep.GeneratedAt != "" {
		b.WriteString("Generated: " + rep.GeneratedAt + "\n")
	}
	b.WriteString("Language: " + string(rep.Language) + "\n")

	for _, key := range model.SectionOrder {
		section := rep.SectionFor(key)
		b.WriteString("\n## " + Heading(rep.Language, key) + "\n")
		if section.Text != "" {
			b.WriteString(section.Text + "\n")
		}
		for _, bullet := range section.Bullets {
			b.WriteString("  - " + bullet + "\n")
		}
	}

	b.WriteString("\n" + Disclaimer(rep.Language) + "\n")
	return b.String()
}
