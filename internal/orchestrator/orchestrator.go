// Package orchestrator runs every input source through its extractor, then
// fuses the results into a draft and analyses its gaps.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/eventdraft/internal/classify"
	"github.com/sells-group/eventdraft/internal/fusion"
	"github.com/sells-group/eventdraft/internal/gaps"
	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/source"
)

var (
	// ErrNoSources is returned when a run is started without inputs.
	ErrNoSources = eris.New("orchestrator: no sources")
	// ErrAllSourcesFailed is returned when no source produced a result.
	ErrAllSourcesFailed = eris.New("orchestrator: all sources failed")
	// ErrStaleRun is returned by a run that was superseded while in flight.
	ErrStaleRun = eris.New("orchestrator: run superseded by a newer run")
)

// Run outcomes passed to Recorder.RunFinished.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

// Recorder receives run metrics. *metrics.Recorder satisfies it.
type Recorder interface {
	ObserveSource(t model.SourceType, ok bool, d time.Duration)
	RunStarted()
	RunFinished(outcome string)
	ObserveFusion(conflicts int, completeness float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSource(model.SourceType, bool, time.Duration) {}
func (nopRecorder) RunStarted()                                         {}
func (nopRecorder) RunFinished(string)                                  {}
func (nopRecorder) ObserveFusion(int, float64)                          {}

// Response is the outcome of one run.
type Response struct {
	RunID             string                     `json:"run_id"`
	Success           bool                       `json:"success"`
	Stale             bool                       `json:"stale,omitempty"`
	FinalData         *model.EventDraft          `json:"final_data,omitempty"`
	FusionResult      *model.FusionResult        `json:"fusion_result,omitempty"`
	GapAnalysis       *model.GapAnalysisResult   `json:"gap_analysis,omitempty"`
	IndividualResults []*model.ProcessingResult `json:"individual_results"`
	Error             string                     `json:"error,omitempty"`
}

// RunOptions tune a single run.
type RunOptions struct {
	// Parallel dispatches sources concurrently, bounded by the
	// orchestrator's max concurrency.
	Parallel bool
	// Previous carries manual edits forward; they are not re-fused.
	Previous *model.EventDraft
	// Fusion overrides the orchestrator's engine for this run.
	Fusion *fusion.Engine
}

// Orchestrator coordinates runs. Only the most recently started run may
// publish progress or a latest result.
type Orchestrator struct {
	extractor      source.Extractor
	fusion         *fusion.Engine
	gaps           *gaps.Analyzer
	maxConcurrency int
	sourceTimeout  time.Duration
	recorder       Recorder
	onProgress     func(model.Progress)

	mu       sync.Mutex
	active   string
	progress model.Progress
	latest   *Response
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFusion sets the default fusion engine.
func WithFusion(e *fusion.Engine) Option {
	return func(o *Orchestrator) { o.fusion = e }
}

// WithGaps sets the gap analyzer.
func WithGaps(a *gaps.Analyzer) Option {
	return func(o *Orchestrator) { o.gaps = a }
}

// WithMaxConcurrency bounds parallel dispatch. Values below 1 mean 1.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) { o.maxConcurrency = max(n, 1) }
}

// WithSourceTimeout bounds each extractor call. Zero disables the bound.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.sourceTimeout = d }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithProgressFunc registers a callback for progress changes of the active
// run. It is called with the orchestrator's lock held and must not block or
// call back into the orchestrator.
func WithProgressFunc(fn func(model.Progress)) Option {
	return func(o *Orchestrator) { o.onProgress = fn }
}

// New creates an Orchestrator around ext.
func New(ext source.Extractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor:      ext,
		maxConcurrency: 4,
		recorder:       nopRecorder{},
		progress:       model.Progress{Stage: model.StageIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fusion == nil {
		o.fusion = fusion.New(nil)
	}
	if o.gaps == nil {
		o.gaps = gaps.New(nil)
	}
	return o
}

// ParseFromMultipleSources runs sources with default options.
func (o *Orchestrator) ParseFromMultipleSources(ctx context.Context, sources []model.DataSourceInput, parallel bool) (*Response, error) {
	return o.Run(ctx, sources, RunOptions{Parallel: parallel})
}

// Run extracts every source, fuses the successful results and analyses the
// draft. Source failures are kept in IndividualResults; the run fails only
// when none succeed. Starting a new run makes any in-flight run stale.
func (o *Orchestrator) Run(ctx context.Context, sources []model.DataSourceInput, opts RunOptions) (*Response, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("orchestrator: starting run",
		zap.Int("sources", len(sources)),
		zap.Bool("parallel", opts.Parallel),
	)

	o.mu.Lock()
	o.active = runID
	o.setProgressLocked(model.Progress{
		RunID:        runID,
		Stage:        model.StageProcessing,
		TotalSources: len(sources),
	})
	o.mu.Unlock()

	o.recorder.RunStarted()
	start := time.Now()

	results := o.dispatch(ctx, runID, sources, opts.Parallel)
	resp := &Response{RunID: runID, IndividualResults: results}

	if !o.isActive(runID) {
		return o.stale(log, resp)
	}

	succeeded := 0
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		}
	}
	if succeeded == 0 {
		resp.Error = ErrAllSourcesFailed.Error()
		if !o.finish(runID, resp, model.StageFailed) {
			return o.stale(log, resp)
		}
		o.recorder.RunFinished(OutcomeFailure)
		log.Warn("orchestrator: run failed, no source succeeded",
			zap.Int("sources", len(sources)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, ErrAllSourcesFailed
	}

	o.setStage(runID, model.StageFusing)
	engine := opts.Fusion
	if engine == nil {
		engine = o.fusion
	}
	draft, fr := engine.Fuse(results, opts.Previous)
	attachDurationHint(draft)

	o.setStage(runID, model.StageAnalyzing)
	analysis := o.gaps.Analyze(draft)

	resp.Success = true
	resp.FinalData = draft
	resp.FusionResult = fr
	resp.GapAnalysis = analysis

	if !o.finish(runID, resp, model.StageComplete) {
		return o.stale(log, resp)
	}
	o.recorder.ObserveFusion(fr.ConflictCount(), analysis.Completeness)
	o.recorder.RunFinished(OutcomeSuccess)

	log.Info("orchestrator: run complete",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(sources)-succeeded),
		zap.Int("conflicts", fr.ConflictCount()),
		zap.Float64("completeness", analysis.Completeness),
		zap.String("readiness", string(analysis.Readiness)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

// dispatch extracts each source and returns results in input order.
func (o *Orchestrator) dispatch(ctx context.Context, runID string, sources []model.DataSourceInput, parallel bool) []*model.ProcessingResult {
	results := make([]*model.ProcessingResult, len(sources))
	if !parallel {
		for i, src := range sources {
			results[i] = o.extractOne(ctx, runID, src)
		}
		return results
	}

	// Failures never abort siblings, so a plain Group is enough.
	var g errgroup.Group
	g.SetLimit(o.maxConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = o.extractOne(ctx, runID, src)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// extractOne never returns nil; errors and panics become failed results.
func (o *Orchestrator) extractOne(ctx context.Context, runID string, src model.DataSourceInput) (res *model.ProcessingResult) {
	o.setCurrent(runID, src.Type)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = model.FailedResult(src.Type, src.Priority, eris.Errorf("orchestrator: extractor panic: %v", r))
		}
		res.DurationMS = time.Since(start).Milliseconds()
		if !res.Succeeded {
			zap.L().Warn("orchestrator: source failed",
				zap.String("run_id", runID),
				zap.String("source_type", string(src.Type)),
				zap.String("error", res.Error),
			)
		}
		o.recorder.ObserveSource(src.Type, res.Succeeded, time.Since(start))
		o.advance(runID)
	}()

	sctx := ctx
	if o.sourceTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, o.sourceTimeout)
		defer cancel()
	}

	out, err := o.extractor.Extract(sctx, src)
	if err != nil {
		return model.FailedResult(src.Type, src.Priority, err)
	}
	if out == nil {
		return model.FailedResult(src.Type, src.Priority, eris.Errorf("orchestrator: %s extractor returned no result", src.Type))
	}
	out.SourceType = src.Type
	out.Priority = src.Priority
	out.Succeeded = true
	out.Error = ""
	return out
}

// attachDurationHint adds the inferred duration to the draft.
func attachDurationHint(d *model.EventDraft) {
	var title, desc string
	if d.Title != nil {
		title = d.Title.Value
	}
	if d.Description != nil {
		desc = d.Description.Value
	}
	if title == "" && desc == "" {
		return
	}
	d.DurationHours = classify.Infer(title, desc).DurationHours
}

func (o *Orchestrator) stale(log *zap.Logger, resp *Response) (*Response, error) {
	o.recorder.RunFinished(OutcomeStale)
	log.Info("orchestrator: discarding stale run")
	return &Response{
		RunID:             resp.RunID,
		Stale:             true,
		IndividualResults: resp.IndividualResults,
		Error:             ErrStaleRun.Error(),
	}, ErrStaleRun
}

// Progress returns a snapshot of the active run's progress.
func (o *Orchestrator) Progress() model.Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Latest returns the response of the most recent run that finished while
// still active, or nil.
func (o *Orchestrator) Latest() *Response {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

func (o *Orchestrator) isActive(runID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active == runID
}

func (o *Orchestrator) setCurrent(runID string, t model.SourceType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != runID {
		return
	}
	p := o.progress
	p.CurrentSource = t
	o.setProgressLocked(p)
}

func (o *Orchestrator) advance(runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != runID {
		return
	}
	p := o.progress
	p.CompletedSources++
	o.setProgressLocked(p)
}

func (o *Orchestrator) setStage(runID string, s model.Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != runID {
		return
	}
	p := o.progress
	p.Stage = s
	p.CurrentSource = ""
	o.setProgressLocked(p)
}

// finish publishes resp and the terminal stage. It reports false when the
// run is no longer active.
func (o *Orchestrator) finish(runID string, resp *Response, s model.Stage) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != runID {
		return false
	}
	p := o.progress
	p.Stage = s
	p.CurrentSource = ""
	o.setProgressLocked(p)
	o.latest = resp
	return true
}

func (o *Orchestrator) setProgressLocked(p model.Progress) {
	o.progress = p
	if o.onProgress != nil {
		o.onProgress(p)
	}
}
