// Package publish turns migrated Ansible roles into a deployable project
// tree and optionally syncs it to an AAP controller.
package publish

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"x2ansible/internal/logging"
)

// Collection is one entry in collections/requirements.yml.
type Collection struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// DefaultCollections is written to requirements.yml when the caller
// supplies none.
var DefaultCollections = []Collection{
	{Name: "ansible.posix"},
	{Name: "community.general"},
}

// DefaultInventory is a localhost inventory used when the caller supplies
// none.
var DefaultInventory = map[string]any{
	"all": map[string]any{
		"hosts": map[string]any{
			"localhost": map[string]any{
				"ansible_connection": "local",
			},
		},
	},
}

const ansibleCfg = `[defaults]
roles_path = ./roles
collections_path = ./collections
inventory = ./inventory/hosts.yml
host_key_checking = False
retry_files_enabled = False
`

// Options configures CreateProject.
type Options struct {
	// RoleNames and RolePaths are parallel slices; each path is a migrated
	// role directory that becomes roles/<name> in the project.
	RoleNames []string
	RolePaths []string

	// BasePath anchors the deployment path. When empty it is derived from
	// the first role path (<base>/ansible/roles/<role> -> <base>/ansible).
	BasePath string

	// Collections and Inventory override the generated requirements.yml
	// and hosts.yml. When nil, CollectionsFile / InventoryFile are loaded
	// if set, and the defaults apply otherwise.
	Collections     []Collection
	Inventory       map[string]any
	CollectionsFile string
	InventoryFile   string
}

// CreateProject scaffolds an Ansible project from migrated roles: directory
// structure, role copies, one wrapper playbook per role, ansible.cfg,
// collections/requirements.yml and inventory/hosts.yml. It returns the
// absolute path of the created project.
func CreateProject(opts Options) (string, error) {
	log := logging.New("publish")

	if len(opts.RoleNames) == 0 {
		return "", fmt.Errorf("publish: no roles given")
	}
	if len(opts.RoleNames) != len(opts.RolePaths) {
		return "", fmt.Errorf("publish: %d role names but %d role paths",
			len(opts.RoleNames), len(opts.RolePaths))
	}

	collections := opts.Collections
	if collections == nil && opts.CollectionsFile != "" {
		loaded, err := LoadCollections(opts.CollectionsFile)
		if err != nil {
			return "", err
		}
		collections = loaded
	}
	inventory := opts.Inventory
	if inventory == nil && opts.InventoryFile != "" {
		loaded, err := LoadInventory(opts.InventoryFile)
		if err != nil {
			return "", err
		}
		inventory = loaded
	}

	projectDir := deploymentPath(opts)
	log.Info("creating ansible project", "dir", projectDir, "roles", len(opts.RoleNames))

	for _, sub := range []string{"collections", "inventory", "roles", "playbooks"} {
		if err := os.MkdirAll(filepath.Join(projectDir, sub), 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", sub, err)
		}
	}

	for i, name := range opts.RoleNames {
		dst := filepath.Join(projectDir, "roles", name)
		log.Info("copying role", "role", name, "from", opts.RolePaths[i])
		if err := copyRole(opts.RolePaths[i], dst); err != nil {
			return "", err
		}
	}

	for _, name := range opts.RoleNames {
		path := filepath.Join(projectDir, "playbooks", "run_"+name+".yml")
		if err := writePlaybook(path, name); err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(filepath.Join(projectDir, "ansible.cfg"), []byte(ansibleCfg), 0o644); err != nil {
		return "", fmt.Errorf("write ansible.cfg: %w", err)
	}
	if err := writeCollections(filepath.Join(projectDir, "collections", "requirements.yml"), collections); err != nil {
		return "", err
	}
	if err := writeInventory(filepath.Join(projectDir, "inventory", "hosts.yml"), inventory); err != nil {
		return "", err
	}

	if err := verifyProject(projectDir, opts.RoleNames); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	log.Info("ansible project created", "dir", abs)
	return abs, nil
}

// deploymentPath places a single role under deployments/<role> and several
// roles under deployments/ansible-project.
func deploymentPath(opts Options) string {
	base := opts.BasePath
	if base == "" {
		// <base>/ansible/roles/<role> -> <base>
		base = filepath.Dir(filepath.Dir(filepath.Dir(opts.RolePaths[0])))
	}
	leaf := "ansible-project"
	if len(opts.RoleNames) == 1 {
		leaf = opts.RoleNames[0]
	}
	return filepath.Join(base, "ansible", "deployments", leaf)
}

// skipNames are work artifacts that must not leak into a published role.
var skipNames = map[string]bool{
	"export-output.md": true,
	".checklist.json":  true,
	".ansible":         true,
}

func copyRole(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("source role %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source role %s: not a directory", src)
	}

	// Replace any previous copy wholesale.
	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("clear %s: %w", dst, err)
	}

	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if skipNames[d.Name()] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	return out.Close()
}

type playbookPlay struct {
	Name   string   `yaml:"name"`
	Hosts  string   `yaml:"hosts"`
	Become bool     `yaml:"become"`
	Roles  []string `yaml:"roles"`
}

func writePlaybook(path, roleName string) error {
	plays := []playbookPlay{{
		Name:   "Run " + roleName,
		Hosts:  "all",
		Become: false,
		Roles:  []string{roleName},
	}}
	return writeYAML(path, plays)
}

func writeCollections(path string, collections []Collection) error {
	if collections == nil {
		collections = DefaultCollections
	}
	doc := struct {
		Collections []Collection `yaml:"collections"`
	}{Collections: collections}
	return writeYAML(path, doc)
}

func writeInventory(path string, inventory map[string]any) error {
	if inventory == nil {
		inventory = DefaultInventory
	}
	return writeYAML(path, inventory)
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	content := append([]byte("---\n"), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// verifyProject checks that every file the project needs actually landed.
func verifyProject(projectDir string, roleNames []string) error {
	required := []string{
		filepath.Join(projectDir, "ansible.cfg"),
		filepath.Join(projectDir, "collections", "requirements.yml"),
		filepath.Join(projectDir, "inventory", "hosts.yml"),
	}
	for _, name := range roleNames {
		required = append(required,
			filepath.Join(projectDir, "roles", name),
			filepath.Join(projectDir, "playbooks", "run_"+name+".yml"))
	}

	var missing []string
	for _, path := range required {
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("publish: %d required files missing:\n  %s",
			len(missing), strings.Join(missing, "\n  "))
	}
	return nil
}
