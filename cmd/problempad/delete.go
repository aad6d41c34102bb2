package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huangang/problempad/internal/render"
	"github.com/huangang/problempad/internal/store"
)

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one report",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteCmd,
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	s, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	r, res := s.Find(ctx, args[0])
	warnIfDegraded(res)
	if r == nil {
		return store.ErrReportNotFound
	}

	if !yes {
		fmt.Fprintln(cmd.OutOrStdout(), render.Detail(r))
		if !confirm(cmd, "Delete this report?") {
			fmt.Fprintln(cmd.OutOrStdout(), cancelledText)
			return nil
		}
	}

	res, err = s.DeleteByID(ctx, args[0])
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from %s\n", args[0], describe(res))
	return nil
}

const cancelledText = "Cancelled."

// confirm asks a yes/no question on the command's input. Anything other than
// y or yes is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
