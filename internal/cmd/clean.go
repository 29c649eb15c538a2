package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/snapsweep/snapsweep/internal/config"
	"github.com/snapsweep/snapsweep/internal/interactive"
	"github.com/snapsweep/snapsweep/internal/output"
	"github.com/snapsweep/snapsweep/internal/prune"
	"github.com/snapsweep/snapsweep/internal/zfs"
)

// runClean executes the pruning workflow for the root command.
func runClean(flagSet *pflag.FlagSet, flags flagValues) error {
	opts, err := collectOptions(flagSet, flags)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(flags.outputFormat)
	if err != nil {
		return err
	}

	r := &cleanRunner{
		comm:  zfs.NewCLICommunicator(),
		in:    os.Stdin,
		out:   os.Stdout,
		errw:  os.Stderr,
		isTTY: interactive.IsTerminal(),
	}
	return r.run(opts, format)
}

// cleanRunner holds the collaborators of one pruning run so tests can
// substitute all of them.
type cleanRunner struct {
	comm  zfs.Communicator
	in    io.Reader
	out   io.Writer
	errw  io.Writer
	isTTY bool
}

func (r *cleanRunner) run(opts config.Options, format output.Format) error {
	cfg, err := config.New(opts, r.comm)
	if err != nil {
		return err
	}

	text := format == output.FormatText
	if text {
		r.banner()
		cfg.Describe(r.out)
	}

	planner := &prune.Planner{Comm: r.comm, Log: r.errw}
	plan, err := planner.Plan(cfg)
	if err != nil {
		return err
	}

	if text {
		r.showPlan(cfg, plan)
	} else {
		if err := output.NewWriter(r.out, format).Write(plan.Report(cfg)); err != nil {
			return err
		}
	}

	if cfg.DryRun {
		return nil
	}

	if len(plan.Queued) == 0 {
		if text {
			fmt.Fprintln(r.out, "Your pool is already clean. Take care!")
		}
		return nil
	}

	if !cfg.NoConfirm {
		if !r.isTTY {
			fmt.Fprintln(r.errw, "Refusing to delete without confirmation on a non-interactive terminal (use --no-confirm).")
			return nil
		}
		prompter := interactive.NewPrompterWithIO(r.in, r.out)
		if !prompter.Confirm("Do you want to delete the above snapshots?") {
			fmt.Fprintln(r.out, "Nothing will be deleted. Take care!")
			return nil
		}
		fmt.Fprintln(r.out)
	}

	destroyer := &prune.Destroyer{Comm: r.comm, BatchSize: cfg.BatchSize, Out: r.out}
	deleted, err := destroyer.Destroy(plan.Queued)
	if err != nil {
		return err
	}

	if text {
		fmt.Fprintf(r.out, "Removed %d snapshots.\n", len(deleted))
	}
	return nil
}

func (r *cleanRunner) banner() {
	fmt.Fprintln(r.out, "------------------------------")
	fmt.Fprintf(r.out, "snapsweep v%s\n", sweepVersion)
	fmt.Fprintln(r.out, "------------------------------")
	fmt.Fprintln(r.out)
}

func (r *cleanRunner) showPlan(cfg *config.Config, plan *prune.Plan) {
	if cfg.ShowQueued {
		fmt.Fprintln(r.out, "These snapshots are QUEUED for REMOVAL:")
		fmt.Fprintln(r.out, "----------------")
		for _, s := range plan.Queued {
			fmt.Fprintln(r.out, s)
		}
		fmt.Fprintln(r.out)
	}

	if cfg.ShowExcluded {
		fmt.Fprintln(r.out, "These snapshots are EXCLUDED from REMOVAL:")
		fmt.Fprintln(r.out, "----------------")
		for _, s := range plan.Excluded {
			fmt.Fprintln(r.out, s)
		}
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "Amount of Snapshots to Remove: %d\n", len(plan.Queued))
	fmt.Fprintf(r.out, "Amount of Snapshots to Exclude: %d\n", len(plan.Excluded))
	fmt.Fprintln(r.out)
}
