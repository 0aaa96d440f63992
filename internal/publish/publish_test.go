package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCreateProject(t *testing.T) {
	base := t.TempDir()
	rolePath := filepath.Join(base, "ansible", "roles", "nginx")
	writeFiles(t, rolePath, map[string]string{
		"tasks/main.yml":      "---\n- name: install nginx\n  ansible.builtin.package:\n    name: nginx\n",
		"meta/main.yml":       "---\ngalaxy_info:\n  role_name: nginx\n",
		"export-output.md":    "scratch notes",
		".checklist.json":     "{}",
		".ansible/cache.json": "{}",
	})

	projectDir, err := CreateProject(Options{
		RoleNames: []string{"nginx"},
		RolePaths: []string{rolePath},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	wantDir, _ := filepath.Abs(filepath.Join(base, "ansible", "deployments", "nginx"))
	if projectDir != wantDir {
		t.Errorf("project dir = %s, want %s", projectDir, wantDir)
	}

	for _, rel := range []string{
		"ansible.cfg",
		"collections/requirements.yml",
		"inventory/hosts.yml",
		"playbooks/run_nginx.yml",
		"roles/nginx/tasks/main.yml",
		"roles/nginx/meta/main.yml",
	} {
		if _, err := os.Stat(filepath.Join(projectDir, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	// Work artifacts must not be published.
	for _, rel := range []string{
		"roles/nginx/export-output.md",
		"roles/nginx/.checklist.json",
		"roles/nginx/.ansible",
	} {
		if _, err := os.Stat(filepath.Join(projectDir, rel)); err == nil {
			t.Errorf("%s leaked into project", rel)
		}
	}

	data, err := os.ReadFile(filepath.Join(projectDir, "playbooks", "run_nginx.yml"))
	if err != nil {
		t.Fatal(err)
	}
	var plays []playbookPlay
	if err := yaml.Unmarshal(data, &plays); err != nil {
		t.Fatalf("playbook not valid yaml: %v", err)
	}
	want := []playbookPlay{{Name: "Run nginx", Hosts: "all", Roles: []string{"nginx"}}}
	if diff := cmp.Diff(want, plays); diff != "" {
		t.Errorf("playbook mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateProject_MultipleRoles(t *testing.T) {
	base := t.TempDir()
	var names, paths []string
	for _, name := range []string{"nginx", "postgres"} {
		rolePath := filepath.Join(base, "ansible", "roles", name)
		writeFiles(t, rolePath, map[string]string{"tasks/main.yml": "---\n"})
		names = append(names, name)
		paths = append(paths, rolePath)
	}

	projectDir, err := CreateProject(Options{RoleNames: names, RolePaths: paths})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if filepath.Base(projectDir) != "ansible-project" {
		t.Errorf("project dir = %s, want .../ansible-project", projectDir)
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(projectDir, "playbooks", "run_"+name+".yml")); err != nil {
			t.Errorf("missing playbook for %s: %v", name, err)
		}
	}
}

func TestCreateProject_Validation(t *testing.T) {
	if _, err := CreateProject(Options{}); err == nil {
		t.Error("no roles accepted")
	}
	if _, err := CreateProject(Options{RoleNames: []string{"a", "b"}, RolePaths: []string{"x"}}); err == nil {
		t.Error("mismatched role names and paths accepted")
	}
	if _, err := CreateProject(Options{
		RoleNames: []string{"nope"},
		RolePaths: []string{filepath.Join(t.TempDir(), "absent")},
		BasePath:  t.TempDir(),
	}); err == nil {
		t.Error("missing source role accepted")
	}
}

func TestCreateProject_CustomCollectionsAndInventory(t *testing.T) {
	base := t.TempDir()
	rolePath := filepath.Join(base, "ansible", "roles", "nginx")
	writeFiles(t, rolePath, map[string]string{"tasks/main.yml": "---\n"})

	projectDir, err := CreateProject(Options{
		RoleNames:   []string{"nginx"},
		RolePaths:   []string{rolePath},
		Collections: []Collection{{Name: "community.crypto", Version: ">=2.0.0"}},
		Inventory: map[string]any{
			"all": map[string]any{"hosts": map[string]any{"web1": nil}},
		},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(projectDir, "collections", "requirements.yml"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Collections []Collection `yaml:"collections"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	want := []Collection{{Name: "community.crypto", Version: ">=2.0.0"}}
	if diff := cmp.Diff(want, doc.Collections); diff != "" {
		t.Errorf("requirements mismatch (-want +got):\n%s", diff)
	}

	inv, err := os.ReadFile(filepath.Join(projectDir, "inventory", "hosts.yml"))
	if err != nil {
		t.Fatal(err)
	}
	var hosts map[string]any
	if err := yaml.Unmarshal(inv, &hosts); err != nil {
		t.Fatal(err)
	}
	if _, ok := hosts["all"]; !ok {
		t.Errorf("inventory missing all group: %v", hosts)
	}
}

func TestLoaders(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"collections.yml":  "- name: community.general\n- name: ansible.posix\n  version: '>=1.5.0'\n",
		"collections.json": `[{"name": "community.general"}]`,
		"noext":            `{"all": {"hosts": {"web1": {}}}}`,
		"inventory.yaml":   "all:\n  hosts:\n    web1:\n",
		"bad.yml":          "::: not yaml {{{",
	})

	got, err := LoadCollections(filepath.Join(dir, "collections.yml"))
	if err != nil {
		t.Fatalf("LoadCollections yaml: %v", err)
	}
	want := []Collection{{Name: "community.general"}, {Name: "ansible.posix", Version: ">=1.5.0"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collections mismatch (-want +got):\n%s", diff)
	}

	got, err = LoadCollections(filepath.Join(dir, "collections.json"))
	if err != nil {
		t.Fatalf("LoadCollections json: %v", err)
	}
	if len(got) != 1 || got[0].Name != "community.general" {
		t.Errorf("json collections = %+v", got)
	}

	inv, err := LoadInventory(filepath.Join(dir, "noext"))
	if err != nil {
		t.Fatalf("LoadInventory sniffed json: %v", err)
	}
	if _, ok := inv["all"]; !ok {
		t.Errorf("sniffed inventory = %v", inv)
	}

	inv, err = LoadInventory(filepath.Join(dir, "inventory.yaml"))
	if err != nil {
		t.Fatalf("LoadInventory yaml: %v", err)
	}
	if _, ok := inv["all"]; !ok {
		t.Errorf("yaml inventory = %v", inv)
	}

	// Missing files are not errors.
	if got, err := LoadCollections(filepath.Join(dir, "absent.yml")); err != nil || got != nil {
		t.Errorf("absent collections = %v, %v", got, err)
	}
	if inv, err := LoadInventory(filepath.Join(dir, "absent.yml")); err != nil || inv != nil {
		t.Errorf("absent inventory = %v, %v", inv, err)
	}

	if _, err := LoadCollections(filepath.Join(dir, "bad.yml")); err == nil {
		t.Error("malformed file accepted")
	}
}

// fakeController scripts the controller API for sync tests.
type fakeController struct {
	orgErr     error
	upsertErr  error
	updateErr  error
	projectID  int
	gotRequest ProjectRequest
}

func (f *fakeController) FindOrganizationID(_ context.Context, name string) (int, error) {
	if f.orgErr != nil {
		return 0, f.orgErr
	}
	return 7, nil
}

func (f *fakeController) UpsertProject(_ context.Context, req ProjectRequest) (int, error) {
	f.gotRequest = req
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	return f.projectID, nil
}

func (f *fakeController) StartProjectUpdate(_ context.Context, projectID int) (int, string, error) {
	if f.updateErr != nil {
		return 0, "", f.updateErr
	}
	return 42, "pending", nil
}

func TestSyncAAP(t *testing.T) {
	ctx := context.Background()

	client := &fakeController{projectID: 11}
	result := SyncAAP(ctx, client, SyncOptions{
		RepoURL:      "https://github.com/acme/migrated-roles.git",
		Branch:       "main",
		Organization: "Default",
	})
	if result.Error != "" {
		t.Fatalf("sync failed: %s", result.Error)
	}
	if !result.Enabled || result.ProjectID != 11 || result.UpdateID != 42 || result.UpdateStatus != "pending" {
		t.Errorf("result = %+v", result)
	}
	if result.ProjectName != "migrated-roles" {
		t.Errorf("project name = %s", result.ProjectName)
	}
	if client.gotRequest.OrganizationID != 7 || client.gotRequest.SCMBranch != "main" {
		t.Errorf("request = %+v", client.gotRequest)
	}

	lines := result.Summary()
	if len(lines) == 0 || lines[0] != "  Result: SUCCESS" {
		t.Errorf("summary = %v", lines)
	}
}

func TestSyncAAP_NotConfigured(t *testing.T) {
	result := SyncAAP(context.Background(), nil, SyncOptions{})
	if result.Enabled {
		t.Error("nil client reported enabled")
	}
	if lines := result.Summary(); len(lines) != 1 || lines[0] != "  Disabled (AAP not configured)." {
		t.Errorf("summary = %v", lines)
	}
}

func TestSyncAAP_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("controller unreachable")

	for name, client := range map[string]*fakeController{
		"org lookup":    {orgErr: boom},
		"upsert":        {upsertErr: boom},
		"update":        {projectID: 3, updateErr: boom},
		"no project id": {projectID: 0},
	} {
		result := SyncAAP(ctx, client, SyncOptions{RepoURL: "https://example.com/r.git", Branch: "main"})
		if result.Error == "" {
			t.Errorf("%s: error not surfaced", name)
		}
		if !result.Enabled {
			t.Errorf("%s: enabled lost", name)
		}
		lines := result.Summary()
		if len(lines) != 2 || lines[0] != "  Result: FAILED" {
			t.Errorf("%s: summary = %v", name, lines)
		}
	}
}

func TestInferProjectName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/acme/roles.git":  "roles",
		"https://github.com/acme/roles.git/": "roles",
		"git@github.com:acme/infra.git":      "infra",
		"https://example.com/deep/path/repo": "repo",
		"":                                   "x2ansible-project",
	}
	for url, want := range cases {
		if got := InferProjectName(url); got != want {
			t.Errorf("InferProjectName(%q) = %q, want %q", url, got, want)
		}
	}
}
