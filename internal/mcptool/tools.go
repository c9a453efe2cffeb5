// Package mcptool exposes event drafting as Model Context Protocol tools.
package mcptool

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/eventdraft/internal/classify"
	"github.com/sells-group/eventdraft/internal/fusion"
	"github.com/sells-group/eventdraft/internal/gaps"
	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/orchestrator"
)

// MetadataParseEvent describes the parse_event tool.
var MetadataParseEvent = &mcp.Tool{
	Name: "parse_event",
	Description: "Draft an event from any mix of pasted text, an event page URL and a base64 " +
		"flyer image. Every source is parsed, the fields are fused into one draft with " +
		"per-field confidence (0-100), and a gap analysis says what is still missing and " +
		"which kind of source would most likely fill it.",
}

// MetadataAnalyzeGaps describes the analyze_gaps tool.
var MetadataAnalyzeGaps = &mcp.Tool{
	Name: "analyze_gaps",
	Description: "Score an event draft for completeness and readiness, list weak or missing " +
		"fields, and recommend the next best action.",
}

// MetadataInferEvent describes the infer_event tool.
var MetadataInferEvent = &mcp.Tool{
	Name:        "infer_event",
	Description: "Guess categories and a typical duration in hours from an event title and optional description.",
}

// InputParseEvent is the input for the parse_event tool.
type InputParseEvent struct {
	Text        string   `json:"text,omitempty" jsonschema:"pasted announcement or description text"`
	URL         string   `json:"url,omitempty" jsonschema:"event page URL"`
	ImageBase64 string   `json:"image_base64,omitempty" jsonschema:"flyer or poster image, base64 encoded"`
	Parallel    *bool    `json:"parallel,omitempty" jsonschema:"process sources concurrently (default true)"`
	Strategy    string   `json:"strategy,omitempty" jsonschema:"fusion strategy: highest_confidence, source_priority or consensus"`
	Threshold   *float64 `json:"threshold,omitempty" jsonschema:"minimum candidate confidence 0-100"`
}

// SourceStatus summarises one source's outcome.
type SourceStatus struct {
	SourceType model.SourceType `json:"source_type"`
	Succeeded  bool             `json:"succeeded"`
	Fields     int              `json:"fields"`
	Error      string           `json:"error,omitempty"`
}

// OutputParseEvent is the output for the parse_event tool.
type OutputParseEvent struct {
	RunID           string                   `json:"run_id"`
	Success         bool                     `json:"success"`
	Draft           *model.EventDraft        `json:"draft,omitempty"`
	GapAnalysis     *model.GapAnalysisResult `json:"gap_analysis,omitempty"`
	Recommendations []string                 `json:"recommendations,omitempty"`
	Sources         []SourceStatus           `json:"sources"`
	Error           string                   `json:"error,omitempty"`
}

// InputAnalyzeGaps is the input for the analyze_gaps tool.
type InputAnalyzeGaps struct {
	Draft *model.EventDraft `json:"draft" jsonschema:"event draft as returned by parse_event"`
}

// OutputAnalyzeGaps is the output for the analyze_gaps tool.
type OutputAnalyzeGaps struct {
	Analysis *model.GapAnalysisResult `json:"analysis"`
}

// InputInferEvent is the input for the infer_event tool.
type InputInferEvent struct {
	Title       string `json:"title" jsonschema:"event title"`
	Description string `json:"description,omitempty" jsonschema:"optional event description"`
}

// Tools binds the tool handlers to the engine.
type Tools struct {
	orch   *orchestrator.Orchestrator
	gaps   *gaps.Analyzer
	fusion *fusion.Config
}

// New creates Tools. Nil analyzer or fusion config use the defaults.
func New(orch *orchestrator.Orchestrator, analyzer *gaps.Analyzer, fusionCfg *fusion.Config) *Tools {
	if analyzer == nil {
		analyzer = gaps.New(nil)
	}
	if fusionCfg == nil {
		fusionCfg = fusion.NewDefaultConfig()
	}
	return &Tools{orch: orch, gaps: analyzer, fusion: fusionCfg}
}

// NewServer returns an MCP server with every tool registered.
func NewServer(version string, t *Tools) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "eventdraft", Version: version}, nil)
	mcp.AddTool(s, MetadataParseEvent, t.ParseEvent)
	mcp.AddTool(s, MetadataAnalyzeGaps, t.AnalyzeGaps)
	mcp.AddTool(s, MetadataInferEvent, t.InferEvent)
	return s
}

// ParseEvent runs every supplied source through the orchestrator.
func (t *Tools) ParseEvent(ctx context.Context, _ *mcp.CallToolRequest, in InputParseEvent) (*mcp.CallToolResult, OutputParseEvent, error) {
	sources, err := in.sources()
	if err != nil {
		return nil, OutputParseEvent{}, err
	}

	opts := orchestrator.RunOptions{Parallel: true}
	if in.Parallel != nil {
		opts.Parallel = *in.Parallel
	}
	if in.Strategy != "" || in.Threshold != nil {
		cfg, err := t.fusion.Override(in.Strategy, in.Threshold)
		if err != nil {
			return nil, OutputParseEvent{}, err
		}
		opts.Fusion = fusion.New(cfg)
	}

	resp, err := t.orch.Run(ctx, sources, opts)
	if resp == nil {
		return nil, OutputParseEvent{}, err
	}
	out := OutputParseEvent{
		RunID:       resp.RunID,
		Success:     resp.Success,
		Draft:       resp.FinalData,
		GapAnalysis: resp.GapAnalysis,
		Error:       resp.Error,
	}
	if resp.FusionResult != nil {
		out.Recommendations = resp.FusionResult.Recommendations
	}
	for _, r := range resp.IndividualResults {
		out.Sources = append(out.Sources, SourceStatus{
			SourceType: r.SourceType,
			Succeeded:  r.Succeeded,
			Fields:     r.Fields.Len(),
			Error:      r.Error,
		})
	}
	// Source failures are reported in the output, not as a tool error.
	if err != nil && !errors.Is(err, orchestrator.ErrAllSourcesFailed) {
		return nil, out, err
	}
	return nil, out, nil
}

func (in InputParseEvent) sources() ([]model.DataSourceInput, error) {
	var out []model.DataSourceInput
	if s := strings.TrimSpace(in.Text); s != "" {
		out = append(out, model.NewTextInput(s, 0))
	}
	if s := strings.TrimSpace(in.URL); s != "" {
		out = append(out, model.NewURLInput(s, 0))
	}
	if s := strings.TrimSpace(in.ImageBase64); s != "" {
		if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
			s = s[i+len(";base64,"):]
		}
		img, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, eris.Wrap(err, "mcptool: decode image_base64")
		}
		out = append(out, model.NewImageInput(img, 0))
	}
	if len(out) == 0 {
		return nil, eris.New("mcptool: at least one of text, url or image_base64 is required")
	}
	return out, nil
}

// AnalyzeGaps scores a draft.
func (t *Tools) AnalyzeGaps(_ context.Context, _ *mcp.CallToolRequest, in InputAnalyzeGaps) (*mcp.CallToolResult, OutputAnalyzeGaps, error) {
	return nil, OutputAnalyzeGaps{Analysis: t.gaps.Analyze(in.Draft)}, nil
}

// InferEvent classifies a title.
func (t *Tools) InferEvent(_ context.Context, _ *mcp.CallToolRequest, in InputInferEvent) (*mcp.CallToolResult, classify.Inference, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, classify.Inference{}, eris.New("mcptool: title is required")
	}
	return nil, classify.Infer(in.Title, in.Description), nil
}
