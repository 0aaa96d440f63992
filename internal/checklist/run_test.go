package checklist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// inventory14 builds a 14-entry inventory shaped like a typical cookbook.
func inventory14() []SourceEntry {
	var entries []SourceEntry
	add := func(cat Category, src, dst string) {
		entries = append(entries, SourceEntry{SourcePath: src, TargetPath: dst, Category: cat})
	}
	add(CategoryStructure, "metadata.rb", "meta/main.yml")
	for i := 0; i < 4; i++ {
		add(CategoryTask, fmt.Sprintf("recipes/r%d.rb", i), fmt.Sprintf("tasks/r%d.yml", i))
	}
	for i := 0; i < 3; i++ {
		add(CategoryTemplate, fmt.Sprintf("templates/t%d.erb", i), fmt.Sprintf("templates/t%d.j2", i))
	}
	for i := 0; i < 3; i++ {
		add(CategoryVariable, fmt.Sprintf("attributes/a%d.rb", i), fmt.Sprintf("defaults/a%d.yml", i))
	}
	for i := 0; i < 3; i++ {
		add(CategoryStaticFile, fmt.Sprintf("files/f%d.conf", i), fmt.Sprintf("files/f%d.conf", i))
	}
	return entries
}

func alwaysProduce(_ context.Context, item *Item) (string, error) {
	return "converted " + item.SourcePath, nil
}

func alwaysPass(_ context.Context, _, _ string) (Verdict, string, error) {
	return VerdictPass, "", nil
}

func runConfig(produce ProduceFunc, validate ValidateFunc) RunConfig {
	return RunConfig{
		Budgets:     DefaultBudgets(),
		Concurrency: 4,
		Produce:     produce,
		Validate:    validate,
		Store:       newMemStore(),
	}
}

// Scenario A: everything succeeds on the first attempt.
func TestRun_AllFirstAttempt(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := Run(context.Background(), cl, runConfig(alwaysProduce, alwaysPass)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := Reconcile(cl)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	want := SummaryReport{Total: 14, Completed: 14, WriteAttempts: 14, ValidationAttempts: 14}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

// Scenario B: one item needs extra validation rounds; totals are the sum of
// per-item attempts.
func TestRun_OneItemRetries(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var mu sync.Mutex
	flakyFails := 0
	validate := func(_ context.Context, _, source string) (Verdict, string, error) {
		if source == "recipes/r2.rb" {
			mu.Lock()
			defer mu.Unlock()
			if flakyFails == 0 {
				flakyFails++
				return VerdictFail, "handler missing", nil
			}
		}
		return VerdictPass, "", nil
	}

	if err := Run(context.Background(), cl, runConfig(alwaysProduce, validate)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := Reconcile(cl)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	want := SummaryReport{Total: 14, Completed: 14, WriteAttempts: 15, ValidationAttempts: 15}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

// Scenario C: one item's producer never succeeds.
func TestRun_ProducerAlwaysFails(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	produce := func(ctx context.Context, item *Item) (string, error) {
		if item.SourcePath == "templates/t1.erb" {
			return "", errors.New("generation refused")
		}
		return alwaysProduce(ctx, item)
	}

	if err := Run(context.Background(), cl, runConfig(produce, alwaysPass)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := Reconcile(cl)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Missing != 1 || report.Completed != 13 {
		t.Errorf("report = %+v, want 13 completed + 1 missing", report)
	}

	for i := range cl.Items {
		it := &cl.Items[i]
		if it.SourcePath != "templates/t1.erb" {
			continue
		}
		if it.Status != StatusMissing {
			t.Errorf("status = %s, want missing", it.Status)
		}
		if it.WriteAttempts != DefaultBudgets().MaxWriteAttempts {
			t.Errorf("write attempts = %d, want full budget", it.WriteAttempts)
		}
		if it.ValidationAttempts != 0 {
			t.Errorf("validation attempts = %d, want 0 (never written)", it.ValidationAttempts)
		}
	}
}

// Scenario D: one item's validator never passes.
func TestRun_ValidatorAlwaysFails(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	validate := func(_ context.Context, _, source string) (Verdict, string, error) {
		if source == "attributes/a0.rb" {
			return VerdictFail, "values drifted", nil
		}
		return VerdictPass, "", nil
	}

	cfg := runConfig(alwaysProduce, validate)
	if err := Run(context.Background(), cl, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, err := Reconcile(cl)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Errors != 1 || report.Completed != 13 {
		t.Errorf("report = %+v, want 13 completed + 1 error", report)
	}

	for i := range cl.Items {
		it := &cl.Items[i]
		if it.SourcePath != "attributes/a0.rb" {
			continue
		}
		if it.Status != StatusError {
			t.Errorf("status = %s, want error", it.Status)
		}
		if it.ValidationAttempts != cfg.Budgets.MaxValidationAttempts {
			t.Errorf("validation attempts = %d, want full budget", it.ValidationAttempts)
		}
		if it.WriteAttempts != it.ValidationAttempts {
			t.Errorf("write attempts = %d, want one write per validation round (%d)",
				it.WriteAttempts, it.ValidationAttempts)
		}
		if it.Content == "" {
			t.Error("content should be retained for manual inspection")
		}
	}
}

// Scenario E: fatal storage failure mid-run leaves the rest pending and the
// reconciliation law still holds.
func TestRun_FatalAbortLeavesPending(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Serial run, store starts failing after 5 successful writes.
	var mu sync.Mutex
	written := 0
	store := storeFunc(func(target string, content []byte) error {
		mu.Lock()
		defer mu.Unlock()
		if written >= 5 {
			return errors.New("storage unavailable")
		}
		written++
		return nil
	})

	cfg := RunConfig{
		Budgets:     DefaultBudgets(),
		Concurrency: 1,
		Produce:     alwaysProduce,
		Validate:    alwaysPass,
		Store:       store,
	}

	err = Run(context.Background(), cl, cfg)
	if !errors.Is(err, ErrFatal) {
		t.Fatalf("Run error = %v, want ErrFatal", err)
	}
	if cl.FailureReason == "" {
		t.Error("failure reason not recorded on checklist")
	}

	report, rerr := Reconcile(cl)
	if rerr != nil {
		t.Fatalf("Reconcile: %v", rerr)
	}
	if report.Completed != 5 {
		t.Errorf("completed = %d, want 5", report.Completed)
	}
	if report.Pending != 9 {
		t.Errorf("pending = %d, want 9", report.Pending)
	}
	if got := report.Completed + report.Pending + report.Missing + report.Errors; got != report.Total {
		t.Errorf("reconciliation law broken: %d classified of %d", got, report.Total)
	}
}

// storeFunc adapts a function to ContentStore.
type storeFunc func(target string, content []byte) error

func (f storeFunc) Write(target string, content []byte) error { return f(target, content) }

// Report order must match discovery order no matter which worker finishes
// first.
func TestRun_PreservesDiscoveryOrder(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantOrder := make([]string, len(cl.Items))
	for i := range cl.Items {
		wantOrder[i] = cl.Items[i].SourcePath
	}

	cfg := runConfig(alwaysProduce, alwaysPass)
	cfg.Concurrency = 8
	if err := Run(context.Background(), cl, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	gotOrder := make([]string, len(cl.Items))
	for i := range cl.Items {
		gotOrder[i] = cl.Items[i].SourcePath
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Errorf("item order changed (-want +got):\n%s", diff)
	}
	if !cl.Done() {
		t.Error("checklist should be done after a clean run")
	}
}

// Budget respect holds for every item under concurrency.
func TestRun_BudgetsRespected(t *testing.T) {
	cl, err := Build("nginx", inventory14())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Half the producers flake, half the validators flake.
	produce := func(ctx context.Context, item *Item) (string, error) {
		if item.Category == CategoryTemplate {
			return "", errors.New("flaky generation")
		}
		return alwaysProduce(ctx, item)
	}
	validate := func(_ context.Context, _, source string) (Verdict, string, error) {
		if source == "recipes/r0.rb" || source == "recipes/r1.rb" {
			return VerdictFail, "not equivalent", nil
		}
		return VerdictPass, "", nil
	}

	cfg := runConfig(produce, validate)
	if err := Run(context.Background(), cl, cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for i := range cl.Items {
		it := &cl.Items[i]
		if it.WriteAttempts > cfg.Budgets.MaxWriteAttempts {
			t.Errorf("%s: write attempts %d over budget", it.SourcePath, it.WriteAttempts)
		}
		if it.ValidationAttempts > cfg.Budgets.MaxValidationAttempts {
			t.Errorf("%s: validation attempts %d over budget", it.SourcePath, it.ValidationAttempts)
		}
		if it.Status == StatusComplete && (it.WriteAttempts < 1 || it.ValidationAttempts < 1) {
			t.Errorf("%s: complete without attempts (%d/%d)", it.SourcePath, it.WriteAttempts, it.ValidationAttempts)
		}
	}
}
