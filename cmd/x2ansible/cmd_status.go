package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"x2ansible/internal/checklist"
	"x2ansible/internal/format"
	"x2ansible/internal/store"
)

var statusFlags struct {
	db     string
	module string
	runID  int64
	output string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration run history",
	Long: `Without flags, lists all recorded runs. With --module, shows the per-item
breakdown of that module's latest run; --run-id picks a specific run.`,
	RunE: runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusFlags.db, "db", store.DefaultDBPath, "Run history database path")
	f.StringVar(&statusFlags.module, "module", "", "Show the latest run for this module")
	f.Int64Var(&statusFlags.runID, "run-id", 0, "Show a specific run by ID")
	f.StringVar(&statusFlags.output, "output", "table", "Output format (table, markdown)")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	st, err := openStore(statusFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	mode := format.ParseMode(statusFlags.output)
	out := cmd.OutOrStdout()

	switch {
	case statusFlags.runID != 0:
		run, items, err := st.GetRun(statusFlags.runID)
		if err != nil {
			return fmt.Errorf("run %d: %w", statusFlags.runID, err)
		}
		printRunStatus(cmd, mode, run, items)
	case statusFlags.module != "":
		run, items, err := st.LastRun(statusFlags.module)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(out, "No recorded runs for module %q.\nRun 'x2ansible migrate' first.\n", statusFlags.module)
			return nil
		}
		if err != nil {
			return err
		}
		printRunStatus(cmd, mode, run, items)
	default:
		runs, err := st.ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No recorded runs.")
			return nil
		}
		fmt.Fprintln(out, format.RunTable(mode, runs))
	}
	return nil
}

func printRunStatus(cmd *cobra.Command, mode format.Mode, run *store.Run, items []checklist.Item) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run #%d  module=%s  tech=%s  finished=%s\n",
		run.ID, run.ModuleName, run.Technology, run.FinishedAt)
	if run.FailureReason != "" {
		fmt.Fprintf(out, "Aborted: %s\n", run.FailureReason)
	}
	fmt.Fprintln(out, format.ItemTable(mode, items))
}
