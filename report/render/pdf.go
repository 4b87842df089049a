package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/go-pdf/fpdf"

	"health-backend/report/model"
)

// ErrUnsupportedGlyphSet reports that the document renderer cannot
// represent the requested script. Terminal for the download step only;
// the display rendering is unaffected.
var ErrUnsupportedGlyphSet = errors.New("unsupported glyph set")

const (
	latinFont      = "Helvetica"
	devanagariFont = "NotoDevanagari"

	lineHeight    = 5.5 // mm
	headingHeight = 8.0
	bottomMargin  = 18.0
)

// Renderer produces the downloadable PDF for a structured report.
type Renderer struct {
	// HindiFontPath points at a UTF-8 TTF covering Devanagari. Required for
	// Hindi and Hinglish documents; Latin-only documents use a core font.
	HindiFontPath string
}

// New builds a PDF renderer.
func New(hindiFontPath string) *Renderer {
	return &Renderer{HindiFontPath: hindiFontPath}
}

// Document renders the report as a paginated A4 PDF. Section order matches
// the display rendering exactly. Bullets never split across pages and a
// heading never sits alone at the bottom of a page.
func (r *Renderer) Document(rep model.Report) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, bottomMargin)

	family := latinFont
	write := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 for core fonts

	if needsDevanagari(rep) {
		fontBytes, err := r.loadDevanagariFont()
		if err != nil {
			return nil, err
		}
		pdf.AddUTF8FontFromBytes(devanagariFont, "", fontBytes)
		pdf.AddUTF8FontFromBytes(devanagariFont, "B", fontBytes)
		family = devanagariFont
		write = func(s string) string { return s }
	}

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	// Title
	pdf.SetFont(family, "B", 18)
	pdf.SetTextColor(23, 54, 93)
	pdf.MultiCell(contentW, 9, write(Title(rep.Language)), "", "C", false)
	pdf.Ln(4)

	// Patient block
	pdf.SetFont(family, "", 10)
	pdf.SetTextColor(0, 0, 0)
	if rep.PatientName != "" {
		pdf.MultiCell(contentW, lineHeight, write("Patient: "+rep.PatientName), "", "L", false)
	}
	if rep.GeneratedAt != "" {
		pdf.MultiCell(contentW, lineHeight, write("Generated: "+rep.GeneratedAt), "", "L", false)
	}
	pdf.MultiCell(contentW, lineHeight, write("Language: "+string(rep.Language)), "", "L", false)
	pdf.Ln(3)

	for _, key := range model.SectionOrder {
		section := rep.SectionFor(key)
		r.writeHeading(pdf, family, write, contentW, Heading(rep.Language, key))

		pdf.SetFont(family, "", 11)
		pdf.SetTextColor(0, 0, 0)
		if section.Text != "" {
			pdf.MultiCell(contentW, lineHeight, write(section.Text), "", "L", false)
		}
		for _, bullet := range section.Bullets {
			r.writeBullet(pdf, family, write, contentW, bullet)
		}
		pdf.Ln(2)
	}

	// Disclaimer
	pdf.Ln(4)
	pdf.SetFont(family, "", 9)
	pdf.SetTextColor(170, 30, 30)
	pdf.MultiCell(contentW, 4.5, write(Disclaimer(rep.Language)), "", "L", false)

	if pdf.Err() {
		return nil, fmt.Errorf("pdf build: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// writeHeading adds a section heading, pushing it to the next page when too
// little room remains for the heading plus two body lines.
func (r *Renderer) writeHeading(pdf *fpdf.Fpdf, family string, write func(string) string, contentW float64, heading string) {
	ensureRoom(pdf, headingHeight+2*lineHeight)
	pdf.SetFont(family, "B", 13)
	pdf.SetTextColor(27, 94, 60)
	pdf.MultiCell(contentW, headingHeight, write(heading), "", "L", false)
}

// writeBullet adds one list item, keeping it on a single page whenever the
// item fits on a page at all.
func (r *Renderer) writeBullet(pdf *fpdf.Fpdf, family string, write func(string) string, contentW float64, bullet string) {
	text := write("• " + bullet)
	// After cp1252 translation the string is one byte per glyph and no
	// longer valid UTF-8. SplitText decodes runes and indexes the 256-entry
	// core-font width table with them, so measure on a rune-per-byte copy
	// that carries the same code points the byte string will print.
	measured := text
	if family == latinFont {
		measured = latin1Runes(text)
	}
	lines := pdf.SplitText(measured, contentW-4)
	need := float64(len(lines)) * lineHeight

	_, pageH := pdf.GetPageSize()
	_, top, _, _ := pdf.GetMargins()
	usable := pageH - top - bottomMargin
	if need < usable {
		ensureRoom(pdf, need)
	}
	pdf.SetX(pdf.GetX() + 4)
	pdf.MultiCell(contentW-4, lineHeight, text, "", "L", false)
}

// latin1Runes widens each byte to the rune of the same value, keeping every
// code point below the core-font width table size.
func latin1Runes(s string) string {
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}

func ensureRoom(pdf *fpdf.Fpdf, need float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+need > pageH-bottomMargin {
		pdf.AddPage()
	}
}

// loadDevanagariFont reads and sanity-checks the configured TTF. A missing
// or unusable font must fail loudly, never emit corrupted output.
func (r *Renderer) loadDevanagariFont() ([]byte, error) {
	path := strings.TrimSpace(r.HindiFontPath)
	if path == "" {
		return nil, fmt.Errorf("%w: no Devanagari font configured (HINDI_FONT_PATH)", ErrUnsupportedGlyphSet)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read font %s: %v", ErrUnsupportedGlyphSet, path, err)
	}
	if !isTrueType(data) {
		return nil, fmt.Errorf("%w: %s is not a TrueType font", ErrUnsupportedGlyphSet, path)
	}
	return data, nil
}

func isTrueType(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	magic := string(data[:4])
	return magic == "\x00\x01\x00\x00" || magic == "true" || magic == "ttcf"
}

// needsDevanagari reports whether the document requires Devanagari glyphs:
// either the selected language implies the script, or the model emitted
// Devanagari runes regardless of the selection.
func needsDevanagari(rep model.Report) bool {
	if rep.Language.NeedsDevanagari() {
		return true
	}
	for _, key := range model.SectionOrder {
		section := rep.SectionFor(key)
		if containsDevanagari(section.Text) {
			return true
		}
		for _, b := range section.Bullets {
			if containsDevanagari(b) {
				return true
			}
		}
	}
	return false
}

func containsDevanagari(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Devanagari, r) {
			return true
		}
	}
	return false
}
