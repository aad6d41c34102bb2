package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClearCmd creates the clear command.
func NewClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, "Clear all saved reports?") {
				fmt.Fprintln(cmd.OutOrStdout(), cancelledText)
				return nil
			}

			s, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			res := s.Clear(cmd.Context())
			if err := res.Err(); err != nil {
				return fmt.Errorf("failed to clear reports: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared all reports in %s\n", describe(res))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}
