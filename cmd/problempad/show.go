package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huangang/problempad/internal/render"
	"github.com/huangang/problempad/internal/store"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one report in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			r, res := s.Find(cmd.Context(), args[0])
			warnIfDegraded(res)
			if r == nil {
				return store.ErrReportNotFound
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Detail(r))
			return nil
		},
	}
}
