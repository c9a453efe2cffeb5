package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/eventdraft/internal/model"
	ocrmocks "github.com/sells-group/eventdraft/internal/ocr/mocks"
	"github.com/sells-group/eventdraft/internal/resilience"
	"github.com/sells-group/eventdraft/internal/scrape"
	"github.com/sells-group/eventdraft/internal/textparse"
	"github.com/sells-group/eventdraft/pkg/anthropic"
	anthropicmocks "github.com/sells-group/eventdraft/pkg/anthropic/mocks"
)

var thursday = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func testParser() *textparse.Parser {
	return textparse.New(textparse.WithNow(func() time.Time { return thursday }))
}

func fastRetry() resilience.Policy {
	return resilience.Policy{Attempts: 3, Base: time.Millisecond, Cap: time.Millisecond}
}

type scrapeFunc func(ctx context.Context, u string) (*scrape.Result, error)

func (f scrapeFunc) Scrape(ctx context.Context, u string) (*scrape.Result, error) { return f(ctx, u) }

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry().Register(model.SourceText, NewText(testParser()))
	assert.True(t, r.Supports(model.SourceText))
	assert.False(t, r.Supports(model.SourceURL))

	res, err := r.Extract(context.Background(), model.NewTextInput("Jazz Night next Friday at 8pm", 2))
	require.NoError(t, err)
	assert.Equal(t, model.SourceText, res.SourceType)
	assert.Equal(t, 2, res.Priority)
	assert.Equal(t, "2026-10-16T20:00", res.Fields.Date.Value)

	_, err = r.Extract(context.Background(), model.NewURLInput("https://example.com", 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSource))
}

func TestText_WrongTypeAndEmpty(t *testing.T) {
	t.Parallel()

	_, err := NewText(nil).Extract(context.Background(), model.NewURLInput("https://example.com", 0))
	require.Error(t, err)

	res, err := NewText(nil).Extract(context.Background(), model.NewTextInput("   ", 0))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Zero(t, res.Fields.Len())
}

func TestImage_Vision(t *testing.T) {
	t.Parallel()

	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		if len(req.Messages) != 1 || len(req.Messages[0].Images) != 1 {
			return false
		}
		img := req.Messages[0].Images[0]
		return img.MediaType == "image/png" &&
			req.Model == "claude-test" &&
			strings.Contains(req.Messages[0].Content, "Thursday 2026-10-15")
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "```json\n" + `{
  "title": {"value": "Jazz Night", "confidence": 92},
  "date": {"value": "2026-10-16T20:00", "confidence": 150},
  "location": {"value": "The Horns", "confidence": 88},
  "organizer": {"value": "  ", "confidence": 50},
  "categories": {"values": ["Music", "music", "Nightlife"], "confidence": 80},
  "tags": {"value": "jazz, live", "confidence": 70},
  "price": {"value": "free", "confidence": 90}
}` + "\n```"}},
		Usage: anthropic.TokenUsage{InputTokens: 1500, OutputTokens: 120},
	}, nil).Once()

	img := NewVisionImage(client, VisionConfig{Model: "claude-test"}, WithParser(testParser()))
	assert.Equal(t, "vision", img.Mode())

	res, err := img.Extract(context.Background(), model.NewImageInput(pngBytes, 1))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, model.SourceImage, res.SourceType)
	assert.Equal(t, 1, res.Priority)
	assert.Equal(t, "Jazz Night", res.Fields.Title.Value)
	assert.Equal(t, 100.0, res.Fields.Date.Confidence)
	assert.Nil(t, res.Fields.Organizer)
	assert.Equal(t, []string{"music", "nightlife"}, res.Categories)
	assert.Equal(t, []string{"jazz", "live"}, res.Tags)
	assert.Greater(t, res.OverallConfidence, 0.0)
}

func TestImage_VisionRetriesTransient(t *testing.T) {
	t.Parallel()

	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, &anthropic.APIError{StatusCode: 529, Err: errors.New("overloaded")}).Once()
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: `{"title":{"value":"Quiz","confidence":80}}`}}}, nil).Once()

	img := NewVisionImage(client, VisionConfig{}, WithRetryPolicy(fastRetry()))
	res, err := img.Extract(context.Background(), model.NewImageInput(pngBytes, 0))
	require.NoError(t, err)
	assert.Equal(t, "Quiz", res.Fields.Title.Value)
}

func TestImage_VisionBadReply(t *testing.T) {
	t.Parallel()

	client := anthropicmocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: "I cannot read this image."}}}, nil).Once()

	_, err := NewVisionImage(client, VisionConfig{}).Extract(context.Background(), model.NewImageInput(pngBytes, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")
}

func TestImage_NotAnImage(t *testing.T) {
	t.Parallel()

	img := NewOCRImage(ocrmocks.NewMockExtractor(t))
	_, err := img.Extract(context.Background(), model.NewImageInput([]byte("just some text"), 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAnImage))

	_, err = img.Extract(context.Background(), model.NewImageInput(nil, 0))
	require.Error(t, err)
}

func TestImage_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	client := anthropicmocks.NewMockClient(t)
	img := NewVisionImage(client, VisionConfig{Model: "test-model", MaxTokens: 256})

	for name, data := range map[string][]byte{
		"bmp": append([]byte("BM"), make([]byte, 64)...),
		"ico": append([]byte{0x00, 0x00, 0x01, 0x00}, make([]byte, 64)...),
	} {
		_, err := img.Extract(context.Background(), model.NewImageInput(data, 0))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrUnsupportedImage), name)
		assert.False(t, errors.Is(err, ErrNotAnImage), name)
	}
	client.AssertNotCalled(t, "CreateMessage")
}

func TestImage_OCR(t *testing.T) {
	t.Parallel()

	flyer := "QUIZ NIGHT\r\n" +
		"This Friday at 7:30pm\r\n" +
		"The Red Lion, High Street\r\n" +
		"Teams of up to 6, £2 per person\r\n" +
		"Hosted by Anytown Lions\r\n"

	ext := ocrmocks.NewMockExtractor(t)
	ext.On("ExtractText", mock.Anything, pngBytes, "image/png").Return(flyer, nil).Once()

	img := NewOCRImage(ext, WithParser(testParser()))
	assert.Equal(t, "ocr", img.Mode())

	res, err := img.Extract(context.Background(), model.NewImageInput(pngBytes, 0))
	require.NoError(t, err)
	assert.Equal(t, model.SourceImage, res.SourceType)
	assert.Equal(t, "Quiz Night", res.Fields.Title.Value)
	assert.Equal(t, "2026-10-16T19:30", res.Fields.Date.Value)
	assert.Equal(t, "Anytown Lions", res.Fields.Organizer.Value)

	direct := testParser().Parse(flyer)
	direct.Fields.Each(func(name model.FieldName, f *model.ParsedField) {
		got := res.Fields.Get(name)
		require.NotNil(t, got, name)
		assert.InDelta(t, f.Confidence*OCRConfidenceScale, got.Confidence, 0.001, name)
	})
}

func TestImage_OCRNoText(t *testing.T) {
	t.Parallel()

	ext := ocrmocks.NewMockExtractor(t)
	ext.On("ExtractText", mock.Anything, mock.Anything, mock.Anything).Return("  \n ", nil).Once()

	_, err := NewOCRImage(ext).Extract(context.Background(), model.NewImageInput(pngBytes, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}

func TestURL_Extract(t *testing.T) {
	t.Parallel()

	var got string
	s := scrapeFunc(func(_ context.Context, u string) (*scrape.Result, error) {
		got = u
		return &scrape.Result{Source: "jina", Page: scrape.Page{
			Title:   "Jazz Night | The Horns",
			Content: "# Jazz Night\n\nNext Friday at 8pm at The Horns, free entry.",
		}}, nil
	})

	res, err := NewURL(s, WithParser(testParser())).Extract(context.Background(), model.NewURLInput(" example.com/jazz ", 3))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/jazz", got)
	assert.Equal(t, model.SourceURL, res.SourceType)
	assert.Equal(t, 3, res.Priority)

	// The body title is stronger than the page title.
	assert.Equal(t, "Jazz Night", res.Fields.Title.Value)
	assert.Equal(t, "2026-10-16T20:00", res.Fields.Date.Value)
	assert.Equal(t, textparse.NormalizeURL("https://example.com/jazz"), res.Fields.Website.Value)
	assert.Equal(t, 95.0, res.Fields.Website.Confidence)
}

func TestURL_PageMetadataFillsWeakFields(t *testing.T) {
	t.Parallel()

	s := scrapeFunc(func(_ context.Context, u string) (*scrape.Result, error) {
		return &scrape.Result{Page: scrape.Page{
			Title:       "Jazz Night",
			Description: "An evening of live jazz with local musicians.",
			Content:     "Menu\nNext Friday at 8pm at The Horns",
		}}, nil
	})

	res, err := NewURL(s, WithParser(testParser())).Extract(context.Background(), model.NewURLInput("https://example.com/e", 0))
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", res.Fields.Title.Value)
	assert.Equal(t, 85.0, res.Fields.Title.Confidence)
	require.NotNil(t, res.Fields.Description)
}

func TestURL_RetriesTransientScrape(t *testing.T) {
	t.Parallel()

	calls := 0
	s := scrapeFunc(func(_ context.Context, u string) (*scrape.Result, error) {
		calls++
		if calls == 1 {
			return nil, resilience.NewTransientError(errors.New("jina: status 503"), 503)
		}
		return &scrape.Result{Page: scrape.Page{Content: "Jazz Night\nNext Friday at 8pm"}}, nil
	})

	res, err := NewURL(s, WithRetryPolicy(fastRetry())).Extract(context.Background(), model.NewURLInput("https://example.com", 0))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, res.Succeeded)
}

func TestURL_Failures(t *testing.T) {
	t.Parallel()

	calls := 0
	s := scrapeFunc(func(_ context.Context, u string) (*scrape.Result, error) {
		calls++
		return nil, errors.New("scrape: all scrapers failed")
	})
	u := NewURL(s, WithRetryPolicy(fastRetry()))

	_, err := u.Extract(context.Background(), model.NewURLInput("https://example.com", 0))
	require.Error(t, err)
	assert.Equal(t, 1, calls, "permanent errors are not retried")

	_, err = u.Extract(context.Background(), model.NewURLInput("ftp://example.com", 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidURL))

	blocked := NewURL(s, WithLimiter(rate.NewLimiter(0, 0)))
	_, err = blocked.Extract(context.Background(), model.NewURLInput("https://example.com", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.Equal(t, 1, calls)
}

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://example.com/e?id=1", "https://example.com/e?id=1", false},
		{"example.com/e", "https://example.com/e", false},
		{"http://127.0.0.1:8080/x", "http://127.0.0.1:8080/x", false},
		{"", "", true},
		{"ftp://example.com", "", true},
		{"https://", "", true},
		{"not a url with spaces", "", true},
	}
	for _, tt := range tests {
		got, err := ValidateURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseVisionJSON(t *testing.T) {
	t.Parallel()

	res, err := parseVisionJSON(`Here you go: {"ticketInfo":{"value":"£5","confidence":-10}} thanks`)
	require.NoError(t, err)
	assert.Equal(t, "£5", res.Fields.TicketInfo.Value)
	assert.Equal(t, 0.0, res.Fields.TicketInfo.Confidence)

	_, err = parseVisionJSON(`{"title": nope}`)
	require.Error(t, err)
}
