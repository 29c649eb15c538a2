package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/snapsweep/snapsweep/internal/config"
	"github.com/snapsweep/snapsweep/internal/output"
	"github.com/snapsweep/snapsweep/internal/zfs"
)

func newScheduleCmd(flags *flagValues) *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run pruning unattended on a cron schedule",
		Long: `Schedule runs the pruning workflow repeatedly on a cron schedule
until interrupted. Confirmation is disabled, and when no explicit
cutoff date is given the default window is recomputed for every run.

Example:
  snapsweep schedule -p tank -l CHECKPOINT --cron "0 3 * * *"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := collectOptions(cmd.Flags(), *flags)
			if err != nil {
				return err
			}
			return runSchedule(opts, spec)
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "0 3 * * *", "Cron expression controlling when pruning runs")

	return cmd
}

func runSchedule(opts config.Options, spec string) error {
	opts.NoConfirm = true

	comm := zfs.NewCLICommunicator()

	// Validate once up front so a bad pool or exclude file fails at
	// startup instead of at three in the morning.
	if _, err := config.New(opts, comm); err != nil {
		return err
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		r := &cleanRunner{
			comm:  comm,
			in:    os.Stdin,
			out:   os.Stdout,
			errw:  os.Stderr,
			isTTY: false,
		}
		// A failed run aborts that run only; the schedule stays up.
		if err := r.run(opts, output.FormatText); err != nil {
			fmt.Fprintf(os.Stderr, "Scheduled run failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Scheduled pruning with cron expression %q. Press Ctrl+C to stop.\n", spec)
	c.Start()
	<-ctx.Done()

	<-c.Stop().Done()
	return nil
}
