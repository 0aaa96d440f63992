package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"x2ansible/internal/checklist"
	"x2ansible/internal/convert"
)

var validateFlags struct {
	out      string
	parallel int
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-validate an already-migrated role without rewriting anything",
	Long: `Loads the .checklist.json record from the role directory and gives every
item one fresh validation attempt against the files on disk. Useful after
manual edits to the generated role.`,
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVarP(&validateFlags.out, "out", "o", "", "Migrated role directory (required)")
	f.IntVar(&validateFlags.parallel, "parallel", 1, "Number of parallel validators")

	_ = validateCmd.MarkFlagRequired("out")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cl, err := loadChecklist(validateFlags.out)
	if err != nil {
		return err
	}

	// Fresh validation pass: prior statuses and notes do not carry over.
	for i := range cl.Items {
		cl.Items[i].Status = checklist.StatusPending
		cl.Items[i].Note = ""
	}
	cl.FailureReason = ""

	if err := checklist.Revalidate(cmd.Context(), cl, checklist.RevalidateConfig{
		Concurrency: validateFlags.parallel,
		Validate:    convert.YAMLValidator{}.Validate,
		Loader:      &convert.DirStore{Root: validateFlags.out},
	}); err != nil {
		return fmt.Errorf("validate role: %w", err)
	}

	report, err := checklist.Reconcile(cl)
	if err != nil {
		return err
	}

	if err := saveChecklist(validateFlags.out, cl); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), checklist.FormatSummary(cl, report))
	if !report.Succeeded() {
		return fmt.Errorf("%d of %d items failed validation",
			report.Missing+report.Errors, report.Total)
	}
	return nil
}
