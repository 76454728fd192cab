package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillgauge/skillgauge/internal/checks"
	"github.com/skillgauge/skillgauge/internal/skill"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <skill.md> [skill.md...]",
		Short: "Validate the structure of one or more skill files",
		Long: `Validate skill files against the required structural checks.

Each file is checked for frontmatter completeness, required sections,
fenced code blocks with matching language tags, and empty sections.
Depth metrics (overview length, code block count, decision tables, link
style) are reported but never fail the check.`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runCheck,
		SilenceErrors: true,
	}
	cmd.Flags().String("format", "text", "Output format: text | json")
	return cmd
}

// checkReport is the JSON shape for one checked file.
type checkReport struct {
	Path                 string   `json:"path"`
	Pass                 bool     `json:"pass"`
	Failures             []string `json:"failures,omitempty"`
	SectionsCompleteness float64  `json:"sections_completeness"`
	OverviewWords        int      `json:"overview_words"`
	OverviewMinWords     bool     `json:"overview_min_words"`
	CodeBlockCount       int      `json:"code_block_count"`
	HasDecisionTable     bool     `json:"has_decision_table"`
	AllLinksAbsolute     bool     `json:"all_links_absolute"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	var reports []checkReport
	for _, path := range args {
		artifact, err := skill.Load(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		res := checks.EvaluateStructure(artifact)
		reports = append(reports, checkReport{
			Path:                 path,
			Pass:                 res.Pass(),
			Failures:             res.Failures,
			SectionsCompleteness: res.SectionsCompleteness(),
			OverviewWords:        res.OverviewWords,
			OverviewMinWords:     res.OverviewMinWords,
			CodeBlockCount:       res.CodeBlockCount,
			HasDecisionTable:     res.HasDecisionTable,
			AllLinksAbsolute:     res.AllLinksAbsolute,
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
	default:
		printCheckReports(reports)
	}

	failed := 0
	for _, r := range reports {
		if !r.Pass {
			failed++
		}
	}
	if failed > 0 {
		return &CaseFailureError{Message: fmt.Sprintf("%d of %d file(s) failed structural checks", failed, len(reports))}
	}
	return nil
}

func printCheckReports(reports []checkReport) {
	for _, r := range reports {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
		}
		fmt.Printf("%s %s (completeness %.0f%%)\n", status, r.Path, r.SectionsCompleteness*100)
		for _, f := range r.Failures {
			fmt.Printf("  - %s\n", f)
		}
		fmt.Printf("  overview: %d words (min met: %v), code blocks: %d, decision table: %v, links absolute: %v\n",
			r.OverviewWords, r.OverviewMinWords, r.CodeBlockCount, r.HasDecisionTable, r.AllLinksAbsolute)
	}
}
