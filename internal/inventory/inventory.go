// Package inventory discovers the conversion inventory of a source
// infrastructure module: which artifacts exist, what category each belongs
// to, and where each lands in the target Ansible role layout.
package inventory

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"x2ansible/internal/checklist"
	"x2ansible/internal/logging"
)

// Technology identifies the source configuration-management tool.
type Technology string

const (
	TechChef   Technology = "chef"
	TechPuppet Technology = "puppet"
	TechSalt   Technology = "salt"
)

// ParseTechnology normalizes a CLI technology flag.
func ParseTechnology(s string) (Technology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chef":
		return TechChef, nil
	case "puppet":
		return TechPuppet, nil
	case "salt", "saltstack":
		return TechSalt, nil
	default:
		return "", fmt.Errorf("unknown source technology %q (want chef, puppet or salt)", s)
	}
}

// Scan walks the module directory and returns the ordered source inventory.
// Order is the lexical walk order, which becomes the checklist discovery
// order. Files that have no place in an Ansible role (VCS metadata, test
// kitchens, lockfiles) are skipped.
func Scan(dir string, tech Technology) ([]checklist.SourceEntry, error) {
	logger := logging.New("inventory")

	var entries []checklist.SourceEntry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != dir && skipDir(name) {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		target, cat, ok := mapArtifact(rel, tech)
		if !ok {
			logger.Debug("skipping artifact", "source", rel)
			return nil
		}
		entries = append(entries, checklist.SourceEntry{
			SourcePath: rel,
			TargetPath: target,
			Category:   cat,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	logger.Info("inventory scanned", "dir", dir, "technology", string(tech), "items", len(entries))
	return entries, nil
}

func skipDir(name string) bool {
	switch name {
	case ".git", ".github", "spec", "test", "tests", "vendor", ".kitchen", "node_modules":
		return true
	}
	return false
}

// mapArtifact maps one source-relative path to its Ansible role destination
// and category. Returns ok=false for artifacts that are not converted.
func mapArtifact(rel string, tech Technology) (string, checklist.Category, bool) {
	switch tech {
	case TechChef:
		return mapChef(rel)
	case TechPuppet:
		return mapPuppet(rel)
	case TechSalt:
		return mapSalt(rel)
	}
	return "", "", false
}

func mapChef(rel string) (string, checklist.Category, bool) {
	switch {
	case rel == "metadata.rb" || rel == "metadata.json":
		return "meta/main.yml", checklist.CategoryStructure, true

	case strings.HasPrefix(rel, "recipes/") && strings.HasSuffix(rel, ".rb"):
		name := strings.TrimSuffix(path.Base(rel), ".rb")
		if name == "default" {
			name = "main"
		}
		return "tasks/" + name + ".yml", checklist.CategoryTask, true

	case strings.HasPrefix(rel, "templates/") && strings.HasSuffix(rel, ".erb"):
		// Chef nests templates under per-platform dirs; "default" flattens.
		sub := strings.TrimPrefix(rel, "templates/")
		sub = strings.TrimPrefix(sub, "default/")
		return "templates/" + strings.TrimSuffix(sub, ".erb") + ".j2", checklist.CategoryTemplate, true

	case strings.HasPrefix(rel, "attributes/") && strings.HasSuffix(rel, ".rb"):
		name := strings.TrimSuffix(path.Base(rel), ".rb")
		if name == "default" {
			name = "main"
		}
		return "defaults/" + name + ".yml", checklist.CategoryVariable, true

	case strings.HasPrefix(rel, "files/"):
		sub := strings.TrimPrefix(rel, "files/")
		sub = strings.TrimPrefix(sub, "default/")
		return "files/" + sub, checklist.CategoryStaticFile, true
	}
	return "", "", false
}

func mapPuppet(rel string) (string, checklist.Category, bool) {
	switch {
	case rel == "metadata.json":
		return "meta/main.yml", checklist.CategoryStructure, true

	case strings.HasPrefix(rel, "manifests/") && strings.HasSuffix(rel, ".pp"):
		name := strings.TrimSuffix(path.Base(rel), ".pp")
		if name == "init" {
			name = "main"
		}
		return "tasks/" + name + ".yml", checklist.CategoryTask, true

	case strings.HasPrefix(rel, "templates/") && (strings.HasSuffix(rel, ".epp") || strings.HasSuffix(rel, ".erb")):
		sub := strings.TrimPrefix(rel, "templates/")
		sub = strings.TrimSuffix(sub, path.Ext(sub))
		return "templates/" + sub + ".j2", checklist.CategoryTemplate, true

	case strings.HasPrefix(rel, "data/") && (strings.HasSuffix(rel, ".yaml") || strings.HasSuffix(rel, ".yml")):
		name := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		if name == "common" {
			name = "main"
		}
		return "defaults/" + name + ".yml", checklist.CategoryVariable, true

	case strings.HasPrefix(rel, "files/"):
		return "files/" + strings.TrimPrefix(rel, "files/"), checklist.CategoryStaticFile, true
	}
	return "", "", false
}

func mapSalt(rel string) (string, checklist.Category, bool) {
	switch {
	case strings.HasSuffix(rel, ".sls"):
		name := strings.TrimSuffix(path.Base(rel), ".sls")
		if name == "init" {
			name = "main"
		}
		return "tasks/" + name + ".yml", checklist.CategoryTask, true

	case path.Base(rel) == "map.jinja":
		return "defaults/main.yml", checklist.CategoryVariable, true

	case strings.HasPrefix(rel, "templates/") || strings.HasSuffix(rel, ".jinja") || strings.HasSuffix(rel, ".j2"):
		sub := strings.TrimPrefix(rel, "templates/")
		sub = strings.TrimSuffix(sub, ".jinja")
		if !strings.HasSuffix(sub, ".j2") {
			sub += ".j2"
		}
		return "templates/" + sub, checklist.CategoryTemplate, true

	case strings.HasPrefix(rel, "files/"):
		return "files/" + strings.TrimPrefix(rel, "files/"), checklist.CategoryStaticFile, true
	}
	return "", "", false
}
