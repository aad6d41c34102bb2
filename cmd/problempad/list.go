package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangang/problempad/internal/render"
	"github.com/huangang/problempad/internal/report"
	"github.com/huangang/problempad/internal/store"
	"github.com/huangang/problempad/pkg/logger"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved reports",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().Bool("html", false, "Render an HTML page instead of text")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	asHTML, err := cmd.Flags().GetBool("html")
	if err != nil {
		return err
	}

	reports, err := readReports(cmd)
	if err != nil {
		return err
	}

	if asHTML {
		return render.HTMLList(cmd.OutOrStdout(), report.DefaultStartupName, reports)
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Text(reports))
	return nil
}

// readReports loads the collection. An unreadable backend shows up as an
// empty list plus a warning, never as a failed command.
func readReports(cmd *cobra.Command) ([]report.Report, error) {
	s, closeStore, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	reports, res := s.ReadAll(cmd.Context())
	warnIfDegraded(res)
	return reports, nil
}

func warnIfDegraded(res store.Result) {
	if !res.Degraded() {
		return
	}
	switch res.Outcome {
	case store.OutcomeFallback:
		logger.Warn().Err(res.RemoteErr).Msg("report API unavailable, using local storage")
	case store.OutcomeFailed:
		logger.Warn().Err(res.Err()).Msg("no readable storage, showing an empty list")
	}
}
