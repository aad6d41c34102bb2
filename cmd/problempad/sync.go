package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push locally saved reports to the report API",
		Long: `Sync uploads reports that were saved locally while the report API was
unreachable, then empties local storage. Reports the API already has are
not sent twice, and reports that local storage copied from the API are not
sent back, so reports deleted on the server in the meantime stay deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := s.SyncLocal(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d report(s) to the report API\n", n)
			return nil
		},
	}
}
