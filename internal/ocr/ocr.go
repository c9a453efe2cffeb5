// Package ocr turns flyer and poster images into plain text.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/eventdraft/internal/config"
)

// Extractor extracts text content from an encoded image.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte, mediaType string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return NewTesseract(cfg.TesseractPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires ocr.mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
