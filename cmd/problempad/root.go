package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/huangang/problempad/internal/config"
	"github.com/huangang/problempad/internal/store"
	"github.com/huangang/problempad/pkg/logger"
)

// NewRootCmd creates the root command for problempad.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problempad",
		Short: "Record the problems your startup faces",
		Long: `problempad records startup problems as reports.

Reports are stored through the report API. When the API cannot be reached
they are kept in local storage instead, and "problempad sync" pushes them
once the API is back.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger.InitWriter(level, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to config.yaml (default: ./config.yaml)")
	cmd.PersistentFlags().String("api", "", "Report API base URL (overrides config)")
	cmd.PersistentFlags().Bool("offline", false, "Use local storage only")
	cmd.PersistentFlags().String("local", "", "Local storage directory, or database file for the sqlite driver")
	cmd.PersistentFlags().String("local-driver", "", "Local storage driver: file or sqlite")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewSubmitCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewClearCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// clientConfig loads the config file and applies the global flags on top.
func clientConfig(cmd *cobra.Command) (config.ClientConfig, bool, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return config.ClientConfig{}, false, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.ClientConfig{}, false, fmt.Errorf("failed to load config: %w", err)
	}
	client := cfg.Client

	if api, _ := flags.GetString("api"); api != "" {
		client.APIBaseURL = api
	}
	if local, _ := flags.GetString("local"); local != "" {
		client.LocalPath = local
	}
	if driver, _ := flags.GetString("local-driver"); driver != "" {
		client.LocalDriver = driver
	}
	offline, _ := flags.GetBool("offline")
	if client.APIBaseURL == "" {
		offline = true
	}
	return client, offline, nil
}

// openStore builds the report store from config and flags. The returned
// close function releases the local backend.
func openStore(cmd *cobra.Command) (*store.Store, func(), error) {
	client, offline, err := clientConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	var (
		local   store.LocalStorage
		closeFn = func() {}
	)
	switch client.LocalDriver {
	case "", "file":
		local = store.NewFileStorage(client.LocalPath)
	case "sqlite":
		db, err := store.OpenSQLiteStorage(client.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		local = db
		closeFn = func() { db.Close() }
	default:
		return nil, nil, fmt.Errorf("unsupported local driver: %s", client.LocalDriver)
	}

	var remote store.Remote
	if !offline {
		remote = store.NewRemoteClient(client.APIBaseURL, client.Timeout)
	}

	return store.New(remote, local, store.WithKey(client.StorageKey)), closeFn, nil
}

// describe is the one-line account of where an operation was served.
func describe(res store.Result) string {
	switch res.Outcome {
	case store.OutcomeRemote:
		return "report API"
	case store.OutcomeFallback:
		return "local storage (report API unavailable)"
	default:
		return "nowhere"
	}
}
