package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"x2ansible/internal/checklist"
	"x2ansible/internal/store"
)

var reportFlags struct {
	db     string
	module string
	runID  int64
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the Markdown migration summary for a recorded run",
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.db, "db", store.DefaultDBPath, "Run history database path")
	f.StringVar(&reportFlags.module, "module", "", "Latest run for this module")
	f.Int64Var(&reportFlags.runID, "run-id", 0, "Specific run by ID")
}

func runReport(cmd *cobra.Command, _ []string) error {
	if reportFlags.module == "" && reportFlags.runID == 0 {
		return fmt.Errorf("either --module or --run-id is required")
	}

	st, err := openStore(reportFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	var run *store.Run
	var items []checklist.Item
	if reportFlags.runID != 0 {
		run, items, err = st.GetRun(reportFlags.runID)
	} else {
		run, items, err = st.LastRun(reportFlags.module)
	}
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}

	cl := &checklist.Checklist{
		ModuleName:    run.ModuleName,
		Items:         items,
		FailureReason: run.FailureReason,
	}
	fmt.Fprint(cmd.OutOrStdout(), checklist.RenderMarkdown(cl, run.Summary))
	return nil
}
