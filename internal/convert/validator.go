package convert

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"

	"x2ansible/internal/checklist"
)

// YAMLValidator is a deterministic stand-in for the LLM judge: generated
// YAML documents must parse, everything must be non-empty. It cannot judge
// semantic fidelity, only that the artifact is usable.
type YAMLValidator struct{}

// Validate implements checklist.ValidateFunc.
func (YAMLValidator) Validate(_ context.Context, content, sourcePath string) (checklist.Verdict, string, error) {
	if strings.TrimSpace(content) == "" {
		return checklist.VerdictFail, "generated content is empty", nil
	}

	// Generated YAML artifacts start with a document marker; anything else
	// (templates, static files) only gets the non-empty check.
	if !strings.HasPrefix(content, "---") {
		return checklist.VerdictPass, "", nil
	}

	var doc any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return checklist.VerdictFail, "invalid YAML: " + firstLine(err.Error()), nil
	}
	return checklist.VerdictPass, "", nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
