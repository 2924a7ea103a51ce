package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndvoru/healthscope/internal/model"
	"github.com/ndvoru/healthscope/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON      string
	outMD        string
	fromDate     string
	toDate       string
	minRecords   int
	textProvider string
	textModel    string
	textTimeout  int
	noCache      bool
	noFooter     bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <snapshot.json>",
	Short: "Analyze a diary snapshot and generate the report",
	Long: `Report runs the full analytics engine over a diary export:
- Normalizes morning/evening/emergency questionnaire entries
- Computes pairwise correlations and linear trends
- Mines temporal, trigger, mood-sequence and co-occurrence patterns
- Scores overall risk and assembles the prioritized smart summary

Example:
  healthscope report diary.json
  healthscope report diary.json --from 2026-01-01 --to 2026-03-31 --json report.json --md report.md
  healthscope report diary.json --text-provider openai --text-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&outJSON, "json", "", "write report JSON to file")
	reportCmd.Flags().StringVar(&outMD, "md", "", "write report Markdown to file")
	reportCmd.Flags().StringVar(&fromDate, "from", "", "window start (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&toDate, "to", "", "window end (YYYY-MM-DD)")
	reportCmd.Flags().IntVar(&minRecords, "min-records", 0, "override minimum records for full analysis")
	reportCmd.Flags().StringVar(&textProvider, "text-provider", "", "free-text collaborator: openai (default: disabled)")
	reportCmd.Flags().StringVar(&textModel, "text-model", "", "collaborator model name")
	reportCmd.Flags().IntVar(&textTimeout, "text-timeout", 0, "collaborator timeout in seconds")
	reportCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable collaborator response caching")
	reportCmd.Flags().BoolVar(&noFooter, "no-footer", false, "omit the report footer")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyReportFlags(cfg)

	var from, to time.Time
	if fromDate != "" {
		if from, err = time.Parse("2006-01-02", fromDate); err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
	}
	if toDate != "" {
		if to, err = time.Parse("2006-01-02", toDate); err != nil {
			return fmt.Errorf("parse --to: %w", err)
		}
	}

	snap, err := pipeline.LoadSnapshot(args[0], from, to)
	if err != nil {
		return err
	}

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// A newer run for the same diary supersedes this one; Ctrl-C
	// cancels cleanly since nothing persists mid-pipeline
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := pipeline.NewBuilder(cfg, log)
	report, err := builder.Build(ctx, *snap, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return err
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", outMD)
		}
	}
	renderer.RenderSummary(report)

	return nil
}

// loadConfig merges defaults, config file and environment
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// API keys come from the environment, never the config file
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Text.APIKey == "" {
		cfg.Text.APIKey = key
	}
	return cfg, nil
}

// applyReportFlags lets CLI flags win over file and env
func applyReportFlags(cfg *model.Config) {
	if minRecords > 0 {
		cfg.Analysis.MinRecords = minRecords
	}
	if textProvider != "" {
		cfg.Text.Provider = textProvider
	}
	if textModel != "" {
		cfg.Text.Model = textModel
	}
	if textTimeout > 0 {
		cfg.Text.Timeout = textTimeout
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
}
