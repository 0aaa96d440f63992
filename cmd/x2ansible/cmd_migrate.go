package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"x2ansible/internal/checklist"
	"x2ansible/internal/convert"
	"x2ansible/internal/inventory"
	"x2ansible/internal/store"
)

var migrateFlags struct {
	path                  string
	tech                  string
	out                   string
	parallel              int
	maxWriteAttempts      int
	maxValidationAttempts int
	db                    string
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert a Chef/Puppet/Salt module to an Ansible role",
	Long: `Scans the source module, builds the conversion checklist and runs every
artifact through the write/validate loop. The converted role lands in the
output directory together with a .checklist.json migration record, and the
run is saved to the history store.`,
	RunE: runMigrate,
}

func init() {
	f := migrateCmd.Flags()
	f.StringVar(&migrateFlags.path, "path", "", "Source module directory (required)")
	f.StringVar(&migrateFlags.tech, "tech", "", "Source technology: chef, puppet or salt (required)")
	f.StringVarP(&migrateFlags.out, "out", "o", "", "Output role directory (default <path>/../ansible/roles/<module>)")
	f.IntVar(&migrateFlags.parallel, "parallel", 1, "Number of parallel item workers")
	f.IntVar(&migrateFlags.maxWriteAttempts, "max-write-attempts", checklist.DefaultBudgets().MaxWriteAttempts, "Write attempts per item")
	f.IntVar(&migrateFlags.maxValidationAttempts, "max-validation-attempts", checklist.DefaultBudgets().MaxValidationAttempts, "Validation attempts per item")
	f.StringVar(&migrateFlags.db, "db", store.DefaultDBPath, "Run history database path")

	_ = migrateCmd.MarkFlagRequired("path")
	_ = migrateCmd.MarkFlagRequired("tech")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	tech, err := inventory.ParseTechnology(migrateFlags.tech)
	if err != nil {
		return err
	}

	entries, err := inventory.Scan(migrateFlags.path, tech)
	if err != nil {
		return fmt.Errorf("scan module: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no convertible artifacts under %s", migrateFlags.path)
	}

	moduleName := filepath.Base(filepath.Clean(migrateFlags.path))
	cl, err := checklist.Build(moduleName, entries)
	if err != nil {
		return err
	}

	outDir := migrateFlags.out
	if outDir == "" {
		outDir = filepath.Join(migrateFlags.path, "..", "ansible", "roles", moduleName)
	}

	started := time.Now().UTC().Format(time.RFC3339)
	runErr := checklist.Run(cmd.Context(), cl, checklist.RunConfig{
		Budgets: checklist.Budgets{
			MaxWriteAttempts:      migrateFlags.maxWriteAttempts,
			MaxValidationAttempts: migrateFlags.maxValidationAttempts,
		},
		Concurrency: migrateFlags.parallel,
		Produce:     (&convert.StubProducer{SourceDir: migrateFlags.path}).Produce,
		Validate:    convert.YAMLValidator{}.Validate,
		Store:       &convert.DirStore{Root: outDir},
	})

	report, recErr := checklist.Reconcile(cl)
	if recErr != nil {
		return recErr
	}

	if err := saveChecklist(outDir, cl); err != nil {
		return err
	}

	st, err := openStore(migrateFlags.db)
	if err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.SaveRun(&store.Run{
		ModuleName:    moduleName,
		Technology:    string(tech),
		StartedAt:     started,
		FailureReason: cl.FailureReason,
		Summary:       report,
	}, cl.Items)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, checklist.FormatSummary(cl, report))
	fmt.Fprintf(out, "\nRole:   %s\nRun ID: %d\n", outDir, runID)

	if runErr != nil {
		return fmt.Errorf("migration aborted: %w", runErr)
	}
	return nil
}
