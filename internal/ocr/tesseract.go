package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Tesseract runs the tesseract CLI on page images. It cannot read PDFs, so
// callers hand it one rasterized page at a time.
type Tesseract struct {
	Bin   string // binary name or path, default "tesseract"
	Langs string // tesseract language pack spec, e.g. "eng+hin"
}

// NewTesseract builds a CLI-backed engine.
func NewTesseract(bin, langs string) *Tesseract {
	if strings.TrimSpace(bin) == "" {
		bin = "tesseract"
	}
	if strings.TrimSpace(langs) == "" {
		langs = "eng+hin"
	}
	return &Tesseract{Bin: bin, Langs: langs}
}

// Detect checks whether the configured binary is available.
func (t *Tesseract) Detect() bool {
	return exec.Command(t.Bin, "--version").Run() == nil
}

// Recognize writes the page image to a temp file and runs tesseract on it.
// A page tesseract cannot read comes back as empty text with low confidence;
// only setup failures (temp dir, missing binary) surface as errors.
func (t *Tesseract) Recognize(ctx context.Context, pageImage []byte) (string, Confidence, error) {
	tmpDir, err := os.MkdirTemp("", "health-ocr-*")
	if err != nil {
		return "", ConfidenceLow, fmt.Errorf("ocr temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(imgPath, pageImage, 0o600); err != nil {
		return "", ConfidenceLow, fmt.Errorf("ocr temp image: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.Bin, imgPath, "stdout", "-l", t.Langs, "--psm", "3")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ConfidenceLow, ctx.Err()
		}
		// Unreadable page, not a pipeline failure.
		return "", ConfidenceLow, nil
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", ConfidenceLow, nil
	}
	return text, ConfidenceMedium, nil
}

var _ Engine = (*Tesseract)(nil)
