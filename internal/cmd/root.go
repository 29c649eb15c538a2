// Package cmd wires the snapsweep command tree.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/snapsweep/snapsweep/internal/config"
	"github.com/snapsweep/snapsweep/internal/snapshot"
)

var (
	// Set by Execute from ldflags.
	sweepVersion = "dev"
	sweepCommit  = "none"
	sweepDate    = "unknown"
)

// flagValues collects the pruning flags shared by the root run and the
// schedule subcommand.
type flagValues struct {
	pool         string
	date         string
	excludeFile  string
	label        string
	batchSize    int
	showQueued   bool
	showExcluded bool
	dryRun       bool
	noConfirm    bool
	showConfig   bool
	configPath   string
	outputFormat string
}

// Execute builds the command tree and runs it.
func Execute(version, commit, date string) error {
	sweepVersion = version
	sweepCommit = commit
	sweepDate = date

	var flags flagValues

	rootCmd := &cobra.Command{
		Use:   "snapsweep",
		Short: "A batched snapshot cleaner for ZFS pools",
		Long: `snapsweep prunes old snapshots from a ZFS pool.

Snapshots named <dataset>@<YYYY>-<MM>-<DD>-<HHMM>-<SS>-<label> are
filtered by pool, label, and age against a cutoff date, minus any
snapshots listed in an exclude file, and destroyed in capped batches
(one zfs destroy per dataset and batch).`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Flags(), flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.pool, "pool", "p", "", "The pool you want to clean")
	rootCmd.PersistentFlags().StringVarP(&flags.date, "date", "d", "", "Cutoff date for deletions (format: 2017-09-26-1111-00, default: 30 days ago)")
	rootCmd.PersistentFlags().StringVarP(&flags.excludeFile, "exclude-file", "e", "", "Exclude the snapshots listed in this file (one per line)")
	rootCmd.PersistentFlags().StringVarP(&flags.label, "label", "l", "", "Only clean snapshots carrying this label")
	rootCmd.PersistentFlags().IntVarP(&flags.batchSize, "batch-size", "b", snapshot.DefaultBatchSize, "Number of snapshots to destroy per zfs invocation")
	rootCmd.PersistentFlags().BoolVarP(&flags.showQueued, "show-queued", "s", false, "Show snapshots that will be removed")
	rootCmd.PersistentFlags().BoolVarP(&flags.showExcluded, "show-excluded", "x", false, "Show snapshots that will be excluded")
	rootCmd.PersistentFlags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Perform a dry run, no deletions will occur")
	rootCmd.PersistentFlags().BoolVarP(&flags.noConfirm, "no-confirm", "f", false, "Skip the confirmation prompt (for cron)")
	rootCmd.PersistentFlags().BoolVarP(&flags.showConfig, "show-config", "c", false, "Display the full configuration used by the run")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a defaults file (YAML, TOML, or JSON)")
	rootCmd.PersistentFlags().StringVarP(&flags.outputFormat, "output", "o", "text", "Output format: text, json, yaml")

	rootCmd.AddCommand(newScheduleCmd(&flags))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}

// buildOptions merges defaults-file values under the flag values.
// Flags the user set explicitly always win; file values fill the rest.
func buildOptions(flagSet *pflag.FlagSet, flags flagValues, file *config.File) config.Options {
	opts := config.Options{
		Pool:         flags.pool,
		Date:         flags.date,
		ExcludeFile:  flags.excludeFile,
		Label:        flags.label,
		BatchSize:    flags.batchSize,
		NoConfirm:    flags.noConfirm,
		DryRun:       flags.dryRun,
		ShowQueued:   flags.showQueued,
		ShowExcluded: flags.showExcluded,
		ShowConfig:   flags.showConfig,
	}

	if file == nil {
		return opts
	}

	if !flagSet.Changed("pool") && file.Pool != "" {
		opts.Pool = file.Pool
	}
	if !flagSet.Changed("date") && file.Date != "" {
		opts.Date = file.Date
	}
	if !flagSet.Changed("exclude-file") && file.ExcludeFile != "" {
		opts.ExcludeFile = file.ExcludeFile
	}
	if !flagSet.Changed("label") && file.Label != "" {
		opts.Label = file.Label
	}
	if !flagSet.Changed("batch-size") && file.BatchSize != 0 {
		opts.BatchSize = file.BatchSize
	}
	if !flagSet.Changed("no-confirm") && file.NoConfirm {
		opts.NoConfirm = true
	}
	if !flagSet.Changed("show-queued") && file.ShowQueued {
		opts.ShowQueued = true
	}
	if !flagSet.Changed("show-excluded") && file.ShowExcluded {
		opts.ShowExcluded = true
	}

	return opts
}

// collectOptions loads the defaults file (if any) and merges it with
// the flags.
func collectOptions(flagSet *pflag.FlagSet, flags flagValues) (config.Options, error) {
	var file *config.File
	if flags.configPath != "" {
		loaded, err := config.LoadFile(flags.configPath)
		if err != nil {
			return config.Options{}, err
		}
		file = loaded
	}
	return buildOptions(flagSet, flags, file), nil
}
