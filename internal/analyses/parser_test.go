package analyses

import (
	"errors"
	"testing"

	"health-backend/report/model"
)

const fullResponse = `Here is the analysis of the report.

1. **SUMMARY**: All major values are within normal limits.

2. **KEY FINDINGS**:
- Hemoglobin slightly low at 11.8 g/dL
- Vitamin D deficient at 14 ng/mL

3. **HEALTH STATUS**: Overall health is good.

4. **LIFESTYLE RECOMMENDATIONS**:
- Sleep at least 7 hours
- Reduce screen time before bed

5. **DIETARY SUGGESTIONS**:
- Add leafy greens and lentils
- Include fortified dairy

6. **EXERCISE RECOMMENDATIONS**:
- Brisk walking 30 minutes daily

7. **FOLLOW-UP ACTIONS**: Repeat vitamin D test after 3 months.

8. **PREVENTIVE MEASURES**:
- Annual full-body checkup`

func TestParseReportAllSections(t *testing.T) {
	rep, err := ParseReport(fullResponse, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rep.Sections) != len(model.SectionOrder) {
		t.Fatalf("section count = %d, want %d", len(rep.Sections), len(model.SectionOrder))
	}
	for _, key := range model.SectionOrder {
		if rep.SectionFor(key).Placeholder {
			t.Errorf("section %s unexpectedly placeholder", key)
		}
	}

	summary := rep.SectionFor(model.SectionSummary)
	if summary.Text != "All major values are within normal limits." {
		t.Errorf("summary text = %q", summary.Text)
	}
	findings := rep.SectionFor(model.SectionFindings)
	if len(findings.Bullets) != 2 {
		t.Fatalf("findings bullets = %v", findings.Bullets)
	}
	if findings.Bullets[0] != "Hemoglobin slightly low at 11.8 g/dL" {
		t.Errorf("first finding = %q", findings.Bullets[0])
	}
}

func TestParseReportMissingSectionsGetPlaceholders(t *testing.T) {
	raw := `**SUMMARY**: Fine overall.
**KEY FINDINGS**: Nothing abnormal.
**HEALTH STATUS**: Good.`

	rep, err := ParseReport(raw, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rep.Sections) != 8 {
		t.Fatalf("section count = %d, want 8", len(rep.Sections))
	}
	diet := rep.SectionFor(model.SectionDiet)
	if !diet.Placeholder || diet.Text != "Not available." {
		t.Errorf("missing diet section = %+v, want placeholder", diet)
	}
}

func TestParseReportHindiPlaceholders(t *testing.T) {
	raw := `**सारांश**: सभी मान सामान्य हैं।
**मुख्य निष्कर्ष**: कोई असामान्यता नहीं।
**स्वास्थ्य स्थिति**: अच्छी।`

	rep, err := ParseReport(raw, model.LanguageHindi)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := rep.SectionFor(model.SectionSummary).Text; got != "सभी मान सामान्य हैं।" {
		t.Errorf("summary = %q", got)
	}
	if got := rep.SectionFor(model.SectionExercise); !got.Placeholder || got.Text != "उपलब्ध नहीं है।" {
		t.Errorf("missing exercise section = %+v, want Hindi placeholder", got)
	}
}

func TestParseReportTooFewSections(t *testing.T) {
	for _, raw := range []string{
		"",
		"I'm sorry, I cannot analyze this document.",
		"SUMMARY: only one section here",
		"**SUMMARY**: one\n**HEALTH STATUS**: two",
	} {
		if _, err := ParseReport(raw, model.LanguageEnglish); !errors.Is(err, ErrUnparseableAnalysis) {
			t.Errorf("ParseReport(%q) err = %v, want ErrUnparseableAnalysis", raw, err)
		}
	}
}

func TestParseReportHeadingVariants(t *testing.T) {
	variants := []string{
		"## Summary\ntext a\n## Key Findings\ntext b\n## Health Status\ntext c",
		"1) SUMMARY: text a\n2) KEY FINDINGS: text b\n3) HEALTH STATUS: text c",
		"summary:\ntext a\nkey findings:\ntext b\nhealth status:\ntext c",
		"**Summary** text a\n**Findings** text b\n**Overall Health** text c",
	}
	for _, raw := range variants {
		rep, err := ParseReport(raw, model.LanguageEnglish)
		if err != nil {
			t.Errorf("ParseReport(%q): %v", raw, err)
			continue
		}
		for _, key := range []model.SectionKey{model.SectionSummary, model.SectionFindings, model.SectionStatus} {
			if rep.SectionFor(key).Placeholder {
				t.Errorf("variant %q: section %s not recognized", raw, key)
			}
		}
	}
}

func TestParseReportProseIsNotAHeading(t *testing.T) {
	raw := `**SUMMARY**:
Summary of results shows normal values overall.
**KEY FINDINGS**: none
**HEALTH STATUS**: good`

	rep, err := ParseReport(raw, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := rep.SectionFor(model.SectionSummary).Text; got != "Summary of results shows normal values overall." {
		t.Errorf("summary = %q (prose line swallowed as heading?)", got)
	}
}

func TestParseReportDuplicateHeadingAppends(t *testing.T) {
	raw := `**SUMMARY**: first part
**KEY FINDINGS**: findings
**HEALTH STATUS**: good
**SUMMARY**: second part`

	rep, err := ParseReport(raw, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := rep.SectionFor(model.SectionSummary).Text
	if got != "first part\nsecond part" {
		t.Errorf("duplicate-heading summary = %q", got)
	}
}

func TestParseReportNumberedBulletsInsideSection(t *testing.T) {
	raw := `**SUMMARY**: ok
**KEY FINDINGS**:
1. High LDL
2. Low HDL
**HEALTH STATUS**: watch lipids`

	rep, err := ParseReport(raw, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	findings := rep.SectionFor(model.SectionFindings)
	if len(findings.Bullets) != 2 || findings.Bullets[0] != "High LDL" {
		t.Errorf("findings bullets = %v", findings.Bullets)
	}
}
