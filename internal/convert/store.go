package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"x2ansible/internal/checklist"
)

// DirStore writes generated content into a role directory tree, creating
// parent directories as needed. Any filesystem failure is fatal for the
// run: if the destination is unusable, regenerating content cannot help.
type DirStore struct {
	Root string
}

// Load implements checklist.ContentLoader.
func (s *DirStore) Load(targetPath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(targetPath)))
}

// Write implements checklist.ContentStore.
func (s *DirStore) Write(targetPath string, content []byte) error {
	full := filepath.Join(s.Root, filepath.FromSlash(targetPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("%w: create target dir: %v", checklist.ErrFatal, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("%w: write target: %v", checklist.ErrFatal, err)
	}
	return nil
}
