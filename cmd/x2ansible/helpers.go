package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"x2ansible/internal/checklist"
	"x2ansible/internal/store"
)

// checklistFile is the migration record dropped into the role directory;
// the validate command re-reads it and publish excludes it from copies.
const checklistFile = ".checklist.json"

func saveChecklist(roleDir string, cl *checklist.Checklist) error {
	data, err := json.MarshalIndent(cl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	path := filepath.Join(roleDir, checklistFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write checklist: %w", err)
	}
	return nil
}

func loadChecklist(roleDir string) (*checklist.Checklist, error) {
	path := filepath.Join(roleDir, checklistFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist (run migrate first?): %w", err)
	}
	var cl checklist.Checklist
	if err := json.Unmarshal(data, &cl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cl, nil
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		path = store.DefaultDBPath
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return st, nil
}
