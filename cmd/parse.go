package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/eventdraft/internal/fusion"
	"github.com/sells-group/eventdraft/internal/model"
	"github.com/sells-group/eventdraft/internal/orchestrator"
)

var (
	parseTexts     []string
	parseTextFiles []string
	parseImages    []string
	parseURLs      []string
	parseParallel  bool
	parseStrategy  string
	parseThreshold float64
	parsePrevious  string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Draft an event from text, image and URL sources",
	Example: `  eventdraft parse --text "Quiz night this Friday 7:30pm at The Red Lion"
  eventdraft parse --image flyer.jpg --url https://example.com/events/quiz`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := collectSources()
		if err != nil {
			return err
		}

		env, err := initEngine(cfg, "parse")
		if err != nil {
			return err
		}

		opts := orchestrator.RunOptions{Parallel: cfg.Orchestrator.Parallel}
		if cmd.Flags().Changed("parallel") {
			opts.Parallel = parseParallel
		}
		if parseStrategy != "" || cmd.Flags().Changed("threshold") {
			var th *float64
			if cmd.Flags().Changed("threshold") {
				th = &parseThreshold
			}
			fc, err := env.Fusion.Override(parseStrategy, th)
			if err != nil {
				return err
			}
			opts.Fusion = fusion.New(fc)
		}
		if parsePrevious != "" {
			prev, err := readDraft(parsePrevious)
			if err != nil {
				return err
			}
			opts.Previous = prev
		}

		resp, runErr := env.Orchestrator.Run(cmd.Context(), sources, opts)
		if resp != nil {
			if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
		}
		if runErr != nil && errors.Is(runErr, orchestrator.ErrAllSourcesFailed) {
			zap.L().Error("parse: no source could be read", zap.Int("sources", len(sources)))
		}
		return runErr
	},
}

// collectSources turns the flags into inputs, in flag order per type.
func collectSources() ([]model.DataSourceInput, error) {
	var sources []model.DataSourceInput
	for _, t := range parseTexts {
		sources = append(sources, model.NewTextInput(t, 0))
	}
	for _, path := range parseTextFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read text file %s", path)
		}
		sources = append(sources, model.NewTextInput(string(data), 0))
	}
	for _, path := range parseImages {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read image %s", path)
		}
		sources = append(sources, model.NewImageInput(data, 0))
	}
	for _, u := range parseURLs {
		sources = append(sources, model.NewURLInput(u, 0))
	}
	if len(sources) == 0 {
		return nil, eris.New("parse: at least one of --text, --text-file, --image or --url is required")
	}
	return sources, nil
}

// readDraft loads an EventDraft from a JSON file, or stdin for "-".
func readDraft(path string) (*model.EventDraft, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		if f, err = os.Open(path); err != nil {
			return nil, eris.Wrapf(err, "open draft %s", path)
		}
		defer f.Close() //nolint:errcheck
	}

	var d model.EventDraft
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return nil, eris.Wrapf(err, "decode draft %s", path)
	}
	return &d, nil
}

func init() {
	parseCmd.Flags().StringArrayVar(&parseTexts, "text", nil, "event text (repeatable)")
	parseCmd.Flags().StringArrayVar(&parseTextFiles, "text-file", nil, "file containing event text (repeatable)")
	parseCmd.Flags().StringArrayVar(&parseImages, "image", nil, "flyer or poster image file (repeatable)")
	parseCmd.Flags().StringArrayVar(&parseURLs, "url", nil, "event page URL (repeatable)")
	parseCmd.Flags().BoolVar(&parseParallel, "parallel", true, "process sources concurrently (default from config)")
	parseCmd.Flags().StringVar(&parseStrategy, "strategy", "", "fusion strategy: highest_confidence, source_priority or consensus")
	parseCmd.Flags().Float64Var(&parseThreshold, "threshold", fusion.DefaultThreshold, "minimum candidate confidence (default from config)")
	parseCmd.Flags().StringVar(&parsePrevious, "previous", "", "previous draft JSON whose manual edits are kept")
	rootCmd.AddCommand(parseCmd)
}
