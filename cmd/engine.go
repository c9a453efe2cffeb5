package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/eventdraft/internal/config"
	"github.com/sells-group/eventdraft/internal/fusion"
	"github.com/sells-group/eventdraft/internal/gaps"
	"github.com/sells-group/eventdraft/internal/metrics"
	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/ocr"
	"github.com/sells-group/eventdraft/internal/orchestrator"
	"github.com/sells-group/eventdraft/internal/scrape"
	"github.com/sells-group/eventdraft/internal/source"
	"github.com/sells-group/eventdraft/internal/textparse"
	anthropicpkg "github.com/sells-group/eventdraft/pkg/anthropic"
	"github.com/sells-group/eventdraft/pkg/firecrawl"
	"github.com/sells-group/eventdraft/pkg/jina"
)

// engineEnv holds the wired components shared by parse, serve and mcp.
type engineEnv struct {
	Registry     *source.Registry
	Orchestrator *orchestrator.Orchestrator
	Fusion       *fusion.Config
	Gaps         *gaps.Analyzer
	Metrics      *metrics.Recorder
}

// initEngine validates cfg for mode and builds the extractors, fusion
// engine, gap analyzer and orchestrator.
func initEngine(c *config.Config, mode string) (*engineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	fusionCfg, err := c.FusionEngineConfig()
	if err != nil {
		return nil, eris.Wrap(err, "fusion config")
	}

	reg, err := buildRegistry(c)
	if err != nil {
		return nil, err
	}

	analyzer := gaps.New(c.GapWeights())
	rec := metrics.New()
	orch := orchestrator.New(reg,
		orchestrator.WithFusion(fusion.New(fusionCfg)),
		orchestrator.WithGaps(analyzer),
		orchestrator.WithMaxConcurrency(c.Orchestrator.MaxConcurrency),
		orchestrator.WithSourceTimeout(time.Duration(c.Orchestrator.SourceTimeoutSecs)*time.Second),
		orchestrator.WithRecorder(rec),
		orchestrator.WithProgressFunc(func(p model.Progress) {
			zap.L().Debug("orchestrator: progress",
				zap.String("run_id", p.RunID),
				zap.String("stage", string(p.Stage)),
				zap.Int("completed", p.CompletedSources),
				zap.Int("total", p.TotalSources),
			)
		}),
	)

	return &engineEnv{
		Registry:     reg,
		Orchestrator: orch,
		Fusion:       fusionCfg,
		Gaps:         analyzer,
		Metrics:      rec,
	}, nil
}

// buildRegistry registers an extractor for every source type.
func buildRegistry(c *config.Config) (*source.Registry, error) {
	parser := textparse.New()
	policy := c.RetryPolicy()
	limiter := rate.NewLimiter(rate.Limit(c.Scrape.RequestsPerSecond), c.Scrape.Burst)
	httpClient := &http.Client{Timeout: time.Duration(c.Scrape.TimeoutSecs) * time.Second}
	common := []source.Option{
		source.WithParser(parser),
		source.WithRetryPolicy(policy),
		source.WithLimiter(limiter),
	}

	scrapers := []scrape.Scraper{
		scrape.NewLocalScraper(),
		scrape.NewJinaAdapter(jina.NewClient(c.Jina.Key,
			jina.WithBaseURL(c.Jina.BaseURL),
			jina.WithHTTPClient(httpClient),
		)),
	}
	if c.Firecrawl.Key != "" {
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(firecrawl.NewClient(c.Firecrawl.Key,
			firecrawl.WithBaseURL(c.Firecrawl.BaseURL),
			firecrawl.WithHTTPClient(httpClient),
		)))
	} else {
		zap.L().Debug("EVENTDRAFT_FIRECRAWL_KEY not set, firecrawl fallback disabled")
	}
	chain := scrape.NewChain(scrapers...)

	var image *source.Image
	if c.Image.Mode == "vision" && c.Anthropic.Key != "" {
		image = source.NewVisionImage(anthropicpkg.NewClient(c.Anthropic.Key), source.VisionConfig{
			Model:     c.Anthropic.Model,
			MaxTokens: int64(c.Anthropic.MaxTokens),
		}, common...)
	} else {
		if c.Image.Mode == "vision" {
			zap.L().Warn("EVENTDRAFT_ANTHROPIC_KEY not set, reading images with ocr")
		}
		ext, err := ocr.NewExtractor(c.OCR)
		if err != nil {
			return nil, eris.Wrap(err, "ocr")
		}
		image = source.NewOCRImage(ext, common...)
	}

	zap.L().Info("sources configured",
		zap.Strings("scrapers", chain.Names()),
		zap.String("image_mode", image.Mode()),
	)

	return source.NewRegistry().
		Register(model.SourceText, source.NewText(parser)).
		Register(model.SourceURL, source.NewURL(chain, common...)).
		Register(model.SourceImage, image), nil
}
