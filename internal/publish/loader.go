package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadCollections reads a collections list from a YAML or JSON file. Format
// is detected by extension, or by content when the extension is unknown.
// A missing file is not an error; it returns nil.
func LoadCollections(path string) ([]Collection, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read collections file: %w", err)
	}

	var collections []Collection
	if err := decode(data, filepath.Ext(path), &collections); err != nil {
		return nil, fmt.Errorf("parse collections file %s: %w", path, err)
	}
	return collections, nil
}

// LoadInventory reads an Ansible inventory mapping from a YAML or JSON
// file. A missing file is not an error; it returns nil.
func LoadInventory(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inventory file: %w", err)
	}

	var inventory map[string]any
	if err := decode(data, filepath.Ext(path), &inventory); err != nil {
		return nil, fmt.Errorf("parse inventory file %s: %w", path, err)
	}
	return inventory, nil
}

// decode unmarshals YAML or JSON into v. ext picks the format; empty or
// unknown extensions fall back to sniffing the first non-space character.
func decode(data []byte, ext string, v any) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	case ".json":
		return json.Unmarshal(data, v)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}
