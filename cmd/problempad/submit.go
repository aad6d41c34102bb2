package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/huangang/problempad/internal/render"
	"github.com/huangang/problempad/internal/report"
)

// NewSubmitCmd creates the submit command.
func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit up to three problems as reports",
		Long: `Submit turns a problem form into reports and saves them in one write.

A form holds startup details and up to three problems. Problems with neither
a title nor a description are skipped. Impact is rated 1 to 10 and defaults
to 5.

Examples:
  # Submit a single problem from flags
  problempad submit --title "Churn" --description "Users leave after a week" --impact 8

  # Submit a form file
  problempad submit -f form.yaml

  # Review a form without saving it
  problempad submit -f form.yaml --dry-run

Form file:
  startup:
    name: Acme
    industry: Fintech
    founded: "2023-04-01"
  problems:
    - title: Churn
      description: Users leave after a week
      impact: "8"
      solution: Onboarding emails`,
		Args: cobra.NoArgs,
		RunE: runSubmitCmd,
	}

	cmd.Flags().StringP("file", "f", "", "YAML form file")
	cmd.Flags().String("title", "", "Problem title")
	cmd.Flags().String("description", "", "Problem description")
	cmd.Flags().String("impact", "", "Impact rating 1-10")
	cmd.Flags().String("solution", "", "Proposed solution")
	cmd.Flags().String("startup", "", "Startup name")
	cmd.Flags().String("startup-desc", "", "Startup description")
	cmd.Flags().String("industry", "", "Startup industry")
	cmd.Flags().String("market", "", "Startup target market")
	cmd.Flags().String("founded", "", "Founding date (YYYY-MM-DD)")
	cmd.Flags().Bool("dry-run", false, "Print the review summary without saving")

	return cmd
}

func runSubmitCmd(cmd *cobra.Command, _ []string) error {
	form, err := formFromFlags(cmd)
	if err != nil {
		return err
	}

	reports, err := report.BuildReports(form, time.Now(), nil)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		startup := form.NormalizedStartup()
		fmt.Fprintf(cmd.OutOrStdout(), "Startup\n%s\n\nProblems\n%s\n",
			render.StartupSummary(startup), render.ProblemsSummary(form.Problems))
		return nil
	}

	s, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	res := s.Append(cmd.Context(), reports...)
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to save reports: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d report(s) to %s\n", len(reports), describe(res))
	for _, r := range reports {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", r.ID, r.Title)
	}
	return nil
}

// formFromFlags reads the form file, if any, then layers the flag values on
// top. Problem flags add one more block after the file's blocks.
func formFromFlags(cmd *cobra.Command) (*report.Form, error) {
	flags := cmd.Flags()
	form := &report.Form{}

	path, err := flags.GetString("file")
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // user-supplied form file
		if err != nil {
			return nil, fmt.Errorf("failed to read form: %w", err)
		}
		if err := yaml.Unmarshal(data, form); err != nil {
			return nil, fmt.Errorf("failed to parse form %s: %w", path, err)
		}
	}

	startupFlags := map[string]*string{
		"startup":      &form.Startup.Name,
		"startup-desc": &form.Startup.Desc,
		"industry":     &form.Startup.Industry,
		"market":       &form.Startup.Market,
		"founded":      &form.Startup.Founded,
	}
	for name, dst := range startupFlags {
		if v, _ := flags.GetString(name); v != "" {
			*dst = v
		}
	}

	var p report.ProblemInput
	p.Title, _ = flags.GetString("title")
	p.Description, _ = flags.GetString("description")
	p.Impact, _ = flags.GetString("impact")
	p.Solution, _ = flags.GetString("solution")
	if !p.IsEmpty() {
		form.Problems = append(form.Problems, p)
	}

	return form, nil
}
