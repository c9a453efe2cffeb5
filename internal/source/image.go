package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/ocr"
	"github.com/sells-group/eventdraft/internal/scrape"
	"github.com/sells-group/eventdraft/pkg/anthropic"
)

// OCRConfidenceScale discounts text-parser confidences on OCR output, which
// carries recognition noise the parser cannot see.
const OCRConfidenceScale = 0.9

// ErrNotAnImage is returned when the payload does not sniff as an image.
var ErrNotAnImage = eris.New("source: payload is not an image")

// ErrUnsupportedImage is returned for image formats the vision model and
// OCR providers reject, such as BMP or ICO.
var ErrUnsupportedImage = eris.New("source: unsupported image format")

var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// VisionConfig configures the vision model call.
type VisionConfig struct {
	Model     string
	MaxTokens int64
}

// Image reads flyers and posters, either by asking a vision model for the
// fields directly or by OCR followed by the text parser.
type Image struct {
	opts   options
	vision anthropic.Client
	vcfg   VisionConfig
	ocr    ocr.Extractor
}

// NewVisionImage creates an Image extractor backed by a vision model.
func NewVisionImage(client anthropic.Client, cfg VisionConfig, opts ...Option) *Image {
	if cfg.Model == "" {
		cfg.Model = anthropic.DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Image{opts: buildOptions(opts), vision: client, vcfg: cfg}
}

// NewOCRImage creates an Image extractor backed by OCR.
func NewOCRImage(ext ocr.Extractor, opts ...Option) *Image {
	return &Image{opts: buildOptions(opts), ocr: ext}
}

// Mode reports "vision" or "ocr".
func (i *Image) Mode() string {
	if i.vision != nil {
		return "vision"
	}
	return "ocr"
}

// Extract implements Extractor.
func (i *Image) Extract(ctx context.Context, in model.DataSourceInput) (*model.ProcessingResult, error) {
	if err := checkType(in, model.SourceImage); err != nil {
		return nil, err
	}
	mediaType := http.DetectContentType(in.Data)
	if len(in.Data) == 0 || !strings.HasPrefix(mediaType, "image/") {
		return nil, eris.Wrapf(ErrNotAnImage, "source: sniffed %s", mediaType)
	}
	if !supportedImageTypes[mediaType] {
		return nil, eris.Wrapf(ErrUnsupportedImage, "source: sniffed %s", mediaType)
	}

	start := time.Now()
	var (
		res *model.ProcessingResult
		err error
	)
	if i.vision != nil {
		res, err = i.extractVision(ctx, in.Data, mediaType)
	} else {
		res, err = i.extractOCR(ctx, in.Data, mediaType)
	}
	if err != nil {
		return nil, err
	}
	res.SourceType = model.SourceImage
	res.Priority = in.Priority
	res.Succeeded = true
	res.DurationMS = time.Since(start).Milliseconds()
	return res, nil
}

func (i *Image) extractOCR(ctx context.Context, data []byte, mediaType string) (*model.ProcessingResult, error) {
	text, err := call(ctx, i.opts, "ocr", func(ctx context.Context) (string, error) {
		return i.ocr.ExtractText(ctx, data, mediaType)
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: ocr")
	}
	text = scrape.Plaintext(text)
	if text == "" {
		return nil, eris.New("source: ocr found no text")
	}

	res := i.opts.parser.Parse(text)
	res.Fields.Each(func(_ model.FieldName, f *model.ParsedField) {
		f.Confidence = model.ClampConfidence(f.Confidence * OCRConfidenceScale)
	})
	res.Finalize()
	return res, nil
}

const visionSystemPrompt = `You read event flyers and posters. Reply with one JSON object and nothing else.`

func visionPrompt(today time.Time) string {
	return fmt.Sprintf(`Extract the event details from this image. Today is %s.

Return a JSON object whose keys are any of: title, description, date, location,
organizer, ticketInfo, contactInfo, website, categories, tags.
Each value is {"value": string, "confidence": 0-100}; for categories and tags
use {"values": [string], "confidence": 0-100}.
Write date as YYYY-MM-DD, or YYYY-MM-DDTHH:MM when a start time is shown.
Omit fields that are not visible. Do not guess.`, today.Format("Monday 2006-01-02"))
}

type visionField struct {
	Value      string   `json:"value"`
	Values     []string `json:"values"`
	Confidence float64  `json:"confidence"`
}

func (i *Image) extractVision(ctx context.Context, data []byte, mediaType string) (*model.ProcessingResult, error) {
	req := anthropic.MessageRequest{
		Model:     i.vcfg.Model,
		MaxTokens: i.vcfg.MaxTokens,
		System:    visionSystemPrompt,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: visionPrompt(i.opts.parser.Now()),
			Images:  []anthropic.Image{{MediaType: mediaType, Data: data}},
		}},
	}
	resp, err := call(ctx, i.opts, "anthropic", func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return i.vision.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: vision")
	}
	resp.Usage.LogCost(i.vcfg.Model, "image_vision")

	res, err := parseVisionJSON(resp.Text())
	if err != nil {
		zap.L().Warn("source: vision reply not parseable",
			zap.String("stop_reason", resp.StopReason),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

// parseVisionJSON decodes the model's reply into fields. Code fences and
// prose around the object are tolerated; unknown keys are ignored.
func parseVisionJSON(reply string) (*model.ProcessingResult, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, eris.New("source: vision reply has no JSON object")
	}

	var raw map[string]visionField
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "source: decode vision reply")
	}

	res := &model.ProcessingResult{Succeeded: true}
	for _, name := range model.AllFields() {
		vf, ok := raw[string(name)]
		if !ok {
			continue
		}
		if name.IsList() {
			vals := cleanList(vf.Values)
			if len(vals) == 0 && vf.Value != "" {
				vals = cleanList(strings.Split(vf.Value, ","))
			}
			if len(vals) > 0 {
				res.Fields.Set(name, model.NewListField(vals, vf.Confidence))
			}
			continue
		}
		v := strings.TrimSpace(vf.Value)
		if v == "" {
			continue
		}
		res.Fields.Set(name, &model.ParsedField{Value: v, Confidence: model.ClampConfidence(vf.Confidence)})
	}
	if f := res.Fields.Categories; f != nil {
		res.Categories = append([]string(nil), f.Values...)
	}
	if f := res.Fields.Tags; f != nil {
		res.Tags = append([]string(nil), f.Values...)
	}
	res.Finalize()
	return res, nil
}

func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
