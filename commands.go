package main

import (
	"context"
	"fmt"
	"time"

	"file-dashboard/internal/database"
	"file-dashboard/internal/indexer"
	"file-dashboard/internal/logging"
	"file-dashboard/internal/startup"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	managedDir   string
	databasePath string
	logLevel     string
}

var opts globalOptions

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "file-dashboard",
		Short:         "Local web dashboard for a managed directory",
		Long:          "Catalogs the files of one directory in SQLite and serves a local web dashboard to browse, search, tag and annotate them.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, "")
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default is ./config.yaml)")
	flags.StringVar(&opts.managedDir, "managed-dir", "", "directory to catalog (overrides managed_directory)")
	flags.StringVar(&opts.databasePath, "database", "", "SQLite catalog file (overrides database_path)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s (%s)", startup.Version, startup.Commit)

	return cmd
}

// loadConfig reads the configuration, applies flag overrides and configures
// logging.
func loadConfig(cmd *cobra.Command, extra map[string]any) (*startup.Config, error) {
	overrides := make(map[string]any)
	if cmd.Flags().Changed("managed-dir") {
		overrides["managed_directory"] = opts.managedDir
	}
	if cmd.Flags().Changed("database") {
		overrides["database_path"] = opts.databasePath
	}
	if cmd.Flags().Changed("log-level") {
		overrides["log.level"] = opts.logLevel
	}
	for k, v := range extra {
		overrides[k] = v
	}

	cfg, err := startup.LoadConfig(opts.configPath, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Configure(cfg.Log.LoggingOptions())
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Sync the catalog and start the web dashboard",
		Long:  "Sync the catalog with the managed directory once, then serve the dashboard until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides listen_address)")

	return cmd
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the catalog with the managed directory and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if err := startup.PrepareDirectories(cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := database.New(ctx, cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					logging.Warn("failed to close database: %v", err)
				}
			}()

			idx := indexer.New(db, cfg.ManagedDirectory)
			idx.Exclude(cfg.DatabaseFiles()...)
			result, err := idx.Sync(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Indexed %d files from %s\n", result.Indexed, cfg.ManagedDirectory)
			fmt.Fprintf(out, "Removed %d missing files in %v\n", result.Pruned, result.Duration.Round(time.Millisecond))
			if result.Skipped > 0 {
				fmt.Fprintf(out, "Skipped %d unreadable files\n", result.Skipped)
			}
			if result.Incomplete {
				fmt.Fprintln(out, "Some directories could not be read; missing files were not removed")
			}
			return nil
		},
	}
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var (
		output    string
		overwrite bool
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := startup.WriteDefaultConfig(output, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", output)
			return nil
		},
	}
	generate.Flags().StringVarP(&output, "output", "o", "config.yaml", "output file")
	generate.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")

	cmd.AddCommand(generate)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := startup.GetBuildInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file-dashboard %s\n", info.Version)
			fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
			fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "  platform:   %s/%s\n", info.OS, info.Arch)
		},
	}
}
