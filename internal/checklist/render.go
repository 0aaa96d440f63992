package checklist

import (
	"fmt"
	"strings"
)

// RenderMarkdown produces the migration summary and per-item checklist in
// markdown. Items are grouped by category; within a group they keep
// discovery order. Field order in the summary is stable so transcripts can
// be diffed across runs.
func RenderMarkdown(cl *Checklist, report SummaryReport) string {
	var b strings.Builder

	b.WriteString("## ✅ Migration Summary\n\n")
	fmt.Fprintf(&b, "Module: %s\n\n", cl.ModuleName)
	fmt.Fprintf(&b, "- Total items: %d\n", report.Total)
	fmt.Fprintf(&b, "- Completed: %d\n", report.Completed)
	fmt.Fprintf(&b, "- Pending: %d\n", report.Pending)
	fmt.Fprintf(&b, "- Missing: %d\n", report.Missing)
	fmt.Fprintf(&b, "- Errors: %d\n", report.Errors)
	fmt.Fprintf(&b, "- Write attempts: %d\n", report.WriteAttempts)
	fmt.Fprintf(&b, "- Validation attempts: %d\n", report.ValidationAttempts)

	if cl.FailureReason != "" {
		fmt.Fprintf(&b, "\n**Run failed:** %s\n", cl.FailureReason)
	}

	for _, cat := range Categories() {
		var lines []string
		for i := range cl.Items {
			it := &cl.Items[i]
			if it.Category != cat {
				continue
			}
			lines = append(lines, itemLine(it))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", categoryHeading(cat))
		for _, l := range lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func itemLine(it *Item) string {
	mark := " "
	if it.Status == StatusComplete {
		mark = "x"
	}
	line := fmt.Sprintf("- [%s] %s → %s (%s)", mark, it.SourcePath, it.TargetPath, it.Status)
	if it.Note != "" {
		line += " - " + it.Note
	}
	return line
}

func categoryHeading(c Category) string {
	switch c {
	case CategoryTemplate:
		return "Templates"
	case CategoryTask:
		return "Tasks"
	case CategoryVariable:
		return "Variables"
	case CategoryStaticFile:
		return "Static files"
	case CategoryStructure:
		return "Structure"
	default:
		return string(c)
	}
}

// FormatSummary renders the plain-text report printed at the end of a CLI
// run.
func FormatSummary(cl *Checklist, report SummaryReport) string {
	var b strings.Builder

	b.WriteString("=== Migration Summary ===\n")
	fmt.Fprintf(&b, "Module:   %s\n", cl.ModuleName)
	fmt.Fprintf(&b, "Total items:         %d\n", report.Total)
	fmt.Fprintf(&b, "Completed:           %d\n", report.Completed)
	fmt.Fprintf(&b, "Pending:             %d\n", report.Pending)
	fmt.Fprintf(&b, "Missing:             %d\n", report.Missing)
	fmt.Fprintf(&b, "Errors:              %d\n", report.Errors)
	fmt.Fprintf(&b, "Write attempts:      %d\n", report.WriteAttempts)
	fmt.Fprintf(&b, "Validation attempts: %d\n", report.ValidationAttempts)

	result := "PASS"
	if cl.FailureReason != "" {
		result = "ABORTED (" + cl.FailureReason + ")"
	} else if !report.Succeeded() {
		result = "PARTIAL"
	}
	fmt.Fprintf(&b, "RESULT: %s\n", result)

	return b.String()
}
