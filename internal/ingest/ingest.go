package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
)

// ErrUnreadableDocument reports a payload that cannot be parsed as its
// declared kind (corrupted or password-protected file). Terminal, never
// retried.
var ErrUnreadableDocument = errors.New("unreadable document")

// UploadedDocument is the raw upload: bytes plus the declared media kind.
// It is discarded as soon as normalization produces page units.
type UploadedDocument struct {
	Data     []byte
	MimeType string
}

// PageUnit is one source page prepared for text extraction. Exactly one of
// Text (embedded text was found) or Image (page must be OCRed) is set.
type PageUnit struct {
	Index    int
	Text     string
	Image    []byte // PNG-encoded raster, only when NeedsOCR
	NeedsOCR bool
}

// Normalize converts an upload into ordered page units. PDF pages with
// embedded text skip OCR; text-free pages are rasterized for it. Images
// always become a single OCR page.
func Normalize(ctx context.Context, doc UploadedDocument) ([]PageUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnreadableDocument)
	}

	switch normalizeMime(doc.MimeType) {
	case MimePDF:
		return normalizePDF(ctx, doc.Data)
	case MimePNG:
		if _, err := png.DecodeConfig(bytes.NewReader(doc.Data)); err != nil {
			return nil, fmt.Errorf("%w: not a PNG image: %v", ErrUnreadableDocument, err)
		}
		return []PageUnit{{Index: 0, Image: doc.Data, NeedsOCR: true}}, nil
	case MimeJPEG:
		if _, err := jpeg.DecodeConfig(bytes.NewReader(doc.Data)); err != nil {
			return nil, fmt.Errorf("%w: not a JPEG image: %v", ErrUnreadableDocument, err)
		}
		return []PageUnit{{Index: 0, Image: doc.Data, NeedsOCR: true}}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported media kind %q", ErrUnreadableDocument, doc.MimeType)
	}
}

// normalizePDF reads embedded text per page first (ledongthuc/pdf), then
// rasterizes the text-free pages with go-fitz so OCR can take over.
func normalizePDF(ctx context.Context, data []byte) ([]PageUnit, error) {
	texts, err := embeddedPageTexts(data)
	if err != nil {
		// Some scanner-produced PDFs trip the pure-Go reader; go-fitz is
		// the second chance before declaring the document unreadable.
		texts = nil
	}

	fdoc, ferr := fitz.NewFromMemory(data)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
		}
		// Embedded text parsed but rasterizer did not; usable only if every
		// page already has text.
		return unitsFromTextsOnly(texts, ferr)
	}
	defer fdoc.Close()

	pageCount := fdoc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", ErrUnreadableDocument)
	}

	units := make([]PageUnit, pageCount)
	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := ""
		if i < len(texts) {
			text = strings.TrimSpace(texts[i])
		}
		if text == "" {
			// go-fitz sees text layers ledongthuc sometimes misses.
			if t, terr := fdoc.Text(i); terr == nil {
				text = strings.TrimSpace(t)
			}
		}
		if text != "" {
			units[i] = PageUnit{Index: i, Text: text}
			continue
		}

		img, ierr := fdoc.Image(i)
		if ierr != nil {
			// Neither text nor raster: keep the slot so page indices stay
			// stable; extraction records it as an empty page.
			units[i] = PageUnit{Index: i, NeedsOCR: true}
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			units[i] = PageUnit{Index: i, NeedsOCR: true}
			continue
		}
		units[i] = PageUnit{Index: i, Image: buf.Bytes(), NeedsOCR: true}
	}
	return units, nil
}

// embeddedPageTexts extracts the text layer per page with the pure-Go
// reader. Pages without a text layer come back as empty strings.
func embeddedPageTexts(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pageCount := reader.NumPage()
	texts := make([]string, pageCount)
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

func unitsFromTextsOnly(texts []string, rasterErr error) ([]PageUnit, error) {
	units := make([]PageUnit, 0, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("%w: page %d needs OCR but PDF cannot be rasterized: %v", ErrUnreadableDocument, i+1, rasterErr)
		}
		units = append(units, PageUnit{Index: i, Text: t})
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, rasterErr)
	}
	return units, nil
}

func normalizeMime(raw string) string {
	mime := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "image/jpg" {
		return MimeJPEG
	}
	return mime
}
