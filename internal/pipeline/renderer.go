package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ndvoru/healthscope/internal/model"
)

// Renderer writes the fully resolved report structure. It performs no
// computation: everything it prints was resolved by the builder.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the stable report structure for the document
// renderer collaborator
func (r *Renderer) RenderJSON(report *model.ReportData, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a readable report document
func (r *Renderer) RenderMarkdown(report *model.ReportData, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Health Diary Report\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n\n", report.From.Format("2006-01-02"), report.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "Records: %d, crisis episodes: %d\n\n", report.RecordCount, report.CrisisCount)

	fmt.Fprintf(&b, "## Summary\n\n%s\n\n", report.Summary.ExecutiveSummary)

	if report.Summary.Status == model.StatusInsufficientData {
		fmt.Fprintf(&b, "_Not enough data for full analysis._\n")
	} else {
		fmt.Fprintf(&b, "Overall risk: **%s** (score %.1f)\n\n", report.Summary.Risk.Tier, report.Summary.Risk.Score)

		writeList(&b, "Key findings", report.Summary.KeyFindings)
		writeInsights(&b, "Critical", report.Summary.Insights.Critical)
		writeInsights(&b, "Warnings", report.Summary.Insights.Warning)
		writeInsights(&b, "Positive", report.Summary.Insights.Positive)
		writeList(&b, "Recommendations", report.Summary.Recommendations)
		writeList(&b, "Predictive alerts", report.Summary.PredictiveAlerts)

		if len(report.Patterns) > 0 {
			fmt.Fprintf(&b, "## Patterns\n\n")
			for _, p := range report.Patterns {
				fmt.Fprintf(&b, "- %s (seen %d times, strength %.0f%%)\n", p.Description, p.Frequency, p.Strength*100)
			}
			fmt.Fprintf(&b, "\n")
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(&b, "## Data warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s %s: %s\n", w.Date, w.Field, w.Reason)
		}
		fmt.Fprintf(&b, "\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\nDescriptive statistics and heuristic risk flags, not clinical advice.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short overview to stdout
func (r *Renderer) RenderSummary(report *model.ReportData) {
	fmt.Printf("\n%s\n", report.Summary.ExecutiveSummary)
	fmt.Printf("Risk: %s | correlations: %d | trends: %d | patterns: %d\n",
		report.Summary.Risk.Tier, len(report.Correlations), len(report.Trends), len(report.Patterns))
	for _, f := range report.Summary.KeyFindings {
		fmt.Printf("  - %s\n", f)
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	fmt.Fprintf(b, "\n")
}

func writeInsights(b *strings.Builder, title string, insights []model.Insight) {
	if len(insights) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, ins := range insights {
		fmt.Fprintf(b, "- %s (confidence %.0f%%)\n", ins.Text, ins.Confidence*100)
	}
	fmt.Fprintf(b, "\n")
}
