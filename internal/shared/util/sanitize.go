package util

import (
	"errors"
	"strings"
	"time"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// ReportFileName builds the suggested download name for a generated report,
// e.g. "health_analysis_Asha_20260831_142301.pdf".
func ReportFileName(patientName string, now time.Time) string {
	base := strings.TrimSpace(patientName)
	if base == "" {
		base = "Patient"
	}
	base = strings.ReplaceAll(base, " ", "_")
	if safe, err := SanitizeFileName(base); err == nil {
		base = safe
	} else {
		base = "Patient"
	}
	return "health_analysis_" + base + "_" + now.UTC().Format("20060102_150405") + ".pdf"
}
