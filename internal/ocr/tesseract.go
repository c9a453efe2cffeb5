package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// Tesseract extracts text with the local tesseract CLI, feeding the image on
// stdin.
type Tesseract struct {
	binPath string
}

// NewTesseract creates a Tesseract extractor. If binPath is empty, "tesseract" is used.
func NewTesseract(binPath string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	return &Tesseract{binPath: binPath}
}

// ExtractText runs `tesseract stdin stdout` and returns stdout.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte, _ string) (string, error) {
	if len(image) == 0 {
		return "", eris.New("ocr: empty image")
	}
	cmd := exec.CommandContext(ctx, t.binPath, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed: %s", strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
