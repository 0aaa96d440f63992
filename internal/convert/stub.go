// Package convert provides deterministic produce/validate capabilities for
// the checklist engine. The production system backs these contracts with an
// LLM-driven writer and judge; the stubs here do mechanical conversions so
// the CLI works offline and tests run without a model.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"x2ansible/internal/checklist"
)

// StubProducer converts source artifacts mechanically: templates get an
// ERB→Jinja token rewrite, static files are copied verbatim, and code
// artifacts (recipes, attributes, manifests) become commented YAML
// skeletons that carry the original source for a human to finish.
type StubProducer struct {
	SourceDir string
}

// Produce implements checklist.ProduceFunc.
func (p *StubProducer) Produce(_ context.Context, item *checklist.Item) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.SourceDir, filepath.FromSlash(item.SourcePath)))
	if err != nil {
		if os.IsNotExist(err) {
			// Inventory and disk disagree: unreadable source is not
			// something a retry can fix.
			return "", fmt.Errorf("%w: source artifact vanished: %v", checklist.ErrFatal, err)
		}
		return "", fmt.Errorf("read source: %w", err)
	}

	switch item.Category {
	case checklist.CategoryTemplate:
		return erbToJinja(string(data)), nil
	case checklist.CategoryStaticFile:
		return string(data), nil
	case checklist.CategoryTask:
		return taskSkeleton(item, string(data)), nil
	case checklist.CategoryVariable:
		return variableSkeleton(item, string(data)), nil
	case checklist.CategoryStructure:
		return metaSkeleton(item), nil
	default:
		return "", fmt.Errorf("no conversion for category %q", item.Category)
	}
}

var (
	erbExpr    = regexp.MustCompile(`<%=\s*(.*?)\s*%>`)
	erbStmt    = regexp.MustCompile(`<%-?\s*(.*?)\s*-?%>`)
	nodeAttr   = regexp.MustCompile(`node\[['"]([^'"\]]+)['"]\]`)
	rubySymbol = regexp.MustCompile(`@([a-zA-Z_][a-zA-Z0-9_]*)`)
)

// erbToJinja rewrites ERB delimiters and common Chef expressions into
// Jinja2. Best effort: anything it cannot map survives verbatim inside the
// new delimiters for manual cleanup.
func erbToJinja(src string) string {
	out := erbExpr.ReplaceAllStringFunc(src, func(m string) string {
		inner := erbExpr.FindStringSubmatch(m)[1]
		return "{{ " + rewriteExpr(inner) + " }}"
	})
	out = erbStmt.ReplaceAllStringFunc(out, func(m string) string {
		inner := erbStmt.FindStringSubmatch(m)[1]
		return "{% " + rewriteExpr(inner) + " %}"
	})
	return out
}

func rewriteExpr(expr string) string {
	// Collapse chained attribute access before stripping the node[] wrapper
	// so node['a']['b'] becomes a.b rather than a['b'].
	expr = strings.ReplaceAll(expr, "']['", ".")
	expr = strings.ReplaceAll(expr, `"]["`, ".")
	expr = nodeAttr.ReplaceAllString(expr, "$1")
	expr = rubySymbol.ReplaceAllString(expr, "$1")
	return expr
}

func taskSkeleton(item *checklist.Item, src string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\n# Converted from %s\n", item.SourcePath)
	b.WriteString("- name: TODO convert " + filepath.Base(item.SourcePath) + "\n")
	b.WriteString("  ansible.builtin.debug:\n")
	fmt.Fprintf(&b, "    msg: conversion pending for %s\n", item.SourcePath)
	b.WriteString(commentBlock(src))
	return b.String()
}

func variableSkeleton(item *checklist.Item, src string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\n# Converted from %s\n", item.SourcePath)
	b.WriteString(commentBlock(src))
	return b.String()
}

func metaSkeleton(item *checklist.Item) string {
	var b strings.Builder
	b.WriteString("---\ngalaxy_info:\n")
	fmt.Fprintf(&b, "  description: Migrated from %s\n", item.SourcePath)
	b.WriteString("  min_ansible_version: \"2.14\"\n")
	b.WriteString("dependencies: []\n")
	return b.String()
}

// commentBlock carries the original source along as YAML comments.
func commentBlock(src string) string {
	var b strings.Builder
	b.WriteString("# --- original source ---\n")
	for _, line := range strings.Split(strings.TrimRight(src, "\n"), "\n") {
		b.WriteString("# " + line + "\n")
	}
	return b.String()
}
