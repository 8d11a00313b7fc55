package app

import (
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/openmobility/feedsync"
	"github.com/openmobility/feedsync/pkg/ident"
	"github.com/openmobility/feedsync/pkg/logging"
)

// NewSyncCommand creates the sync command: one full reconciliation pass.
func (a *App) NewSyncCommand() *cobra.Command {
	var (
		dryRun    bool
		skipFetch bool
		force     bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass",
		Long: `Sync lists the catalog's datasets, merges them with the directory's
prior records, writes the registry document, and fetches feed content to
confirm changes when the fetch executor is installed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := a.Feedsync()
			if err != nil {
				return err
			}

			ctx := logging.WithLogger(cmd.Context(), a.logger)
			result, err := fs.Sync(ctx,
				feedsync.WithDryRun(dryRun),
				feedsync.WithSkipFetch(skipFetch),
				feedsync.WithForce(force),
				feedsync.WithTimeout(timeout),
			)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			for _, obs := range result.Observations {
				a.logger.Warn().
					Str("feed_id", obs.FeedID.String()).
					Str("kind", string(obs.Kind)).
					Msg(obs.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute decisions without writing anything")
	cmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "write the registry but do not fetch feed content")
	cmd.Flags().BoolVar(&force, "force", false, "refresh every feed regardless of probe results")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall pass timeout (0 disables)")

	return cmd
}

// NewExportCommand creates the export command: diagnostic reports without
// touching the registry.
func (a *App) NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write diagnostic CSV reports without modifying the registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs, err := a.Feedsync()
			if err != nil {
				return err
			}

			ctx := logging.WithLogger(cmd.Context(), a.logger)
			result, err := fs.Sync(ctx, feedsync.WithReportsOnly(true))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reports written to %s (%s)\n",
				a.config.ExportDir, result.Summary())
			return nil
		},
	}
	return cmd
}

// NewLookupCommand creates the lookup command: the directory's current record
// for one feed.
func (a *App) NewLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <slug-or-feed-id>",
		Short: "Show the directory's record for one feed",
		Long: `Lookup normalizes the given catalog slug (or accepts an existing feed
identifier) and prints the directory's current record as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := a.Feedsync()
			if err != nil {
				return err
			}

			id := ident.Normalize(args[0])
			ctx := logging.WithLogger(cmd.Context(), a.logger)
			record, err := fs.Lookup(ctx, id)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feedsync %s\n", a.version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", a.commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s by %s\n", a.date, a.builtBy)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
