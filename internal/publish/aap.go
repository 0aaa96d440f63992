package publish

import (
	"context"
	"fmt"
	"path"
	"strings"

	"x2ansible/internal/logging"
)

// ControllerClient is the slice of the AAP controller API the publisher
// needs. The network client is injected so the sync flow stays testable.
type ControllerClient interface {
	// FindOrganizationID resolves an organization name to its ID.
	FindOrganizationID(ctx context.Context, name string) (int, error)
	// UpsertProject creates or updates an SCM-backed project and returns
	// its ID.
	UpsertProject(ctx context.Context, req ProjectRequest) (int, error)
	// StartProjectUpdate triggers an SCM sync for a project and returns
	// the update job's ID and status.
	StartProjectUpdate(ctx context.Context, projectID int) (updateID int, status string, err error)
}

// ProjectRequest describes the AAP project to create or update.
type ProjectRequest struct {
	OrganizationID int
	Name           string
	Description    string
	SCMURL         string
	SCMBranch      string
	CredentialID   int
}

// SyncOptions configures SyncAAP.
type SyncOptions struct {
	RepoURL      string
	Branch       string
	Organization string
	// ProjectName overrides the name inferred from RepoURL.
	ProjectName string
	// CredentialID is the SCM credential for private repos; zero means none.
	CredentialID int
}

// SyncResult is the outcome of an AAP sync.
type SyncResult struct {
	Enabled      bool
	ProjectName  string
	ProjectID    int
	UpdateID     int
	UpdateStatus string
	Error        string
}

// Summary renders the result as indented report lines.
func (r SyncResult) Summary() []string {
	if !r.Enabled {
		return []string{"  Disabled (AAP not configured)."}
	}
	if r.Error != "" {
		return []string{"  Result: FAILED", "  Error: " + r.Error}
	}
	lines := []string{"  Result: SUCCESS"}
	if r.ProjectName != "" {
		lines = append(lines, "  Project: "+r.ProjectName)
	}
	if r.ProjectID != 0 {
		lines = append(lines, fmt.Sprintf("  Project ID: %d", r.ProjectID))
	}
	if r.UpdateID != 0 {
		lines = append(lines, fmt.Sprintf("  Sync job ID: %d", r.UpdateID))
	}
	if r.UpdateStatus != "" {
		lines = append(lines, "  Sync job status: "+r.UpdateStatus)
	}
	return lines
}

// SyncAAP upserts a controller project pointing at the repository and
// triggers an SCM sync. A nil client means AAP is not configured; the
// result says so instead of failing. API errors land in SyncResult.Error.
func SyncAAP(ctx context.Context, client ControllerClient, opts SyncOptions) SyncResult {
	log := logging.New("publish")

	if client == nil {
		return SyncResult{Enabled: false}
	}

	name := opts.ProjectName
	if name == "" {
		name = InferProjectName(opts.RepoURL)
	}
	log.Info("syncing to AAP", "repo", opts.RepoURL, "branch", opts.Branch, "project", name)

	orgID, err := client.FindOrganizationID(ctx, opts.Organization)
	if err != nil {
		return SyncResult{Enabled: true, ProjectName: name, Error: err.Error()}
	}

	projectID, err := client.UpsertProject(ctx, ProjectRequest{
		OrganizationID: orgID,
		Name:           name,
		Description:    fmt.Sprintf("Migrated Ansible content from %s (%s)", opts.RepoURL, opts.Branch),
		SCMURL:         opts.RepoURL,
		SCMBranch:      opts.Branch,
		CredentialID:   opts.CredentialID,
	})
	if err != nil {
		return SyncResult{Enabled: true, ProjectName: name, Error: err.Error()}
	}
	if projectID == 0 {
		return SyncResult{Enabled: true, ProjectName: name, Error: "controller did not return a project id"}
	}

	updateID, status, err := client.StartProjectUpdate(ctx, projectID)
	if err != nil {
		return SyncResult{Enabled: true, ProjectName: name, ProjectID: projectID, Error: err.Error()}
	}

	return SyncResult{
		Enabled:      true,
		ProjectName:  name,
		ProjectID:    projectID,
		UpdateID:     updateID,
		UpdateStatus: status,
	}
}

// InferProjectName derives a controller project name from a repository URL:
// the last path element without its .git suffix.
func InferProjectName(repoURL string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	name := path.Base(strings.ReplaceAll(trimmed, ":", "/"))
	if name == "" || name == "." || name == "/" {
		return "x2ansible-project"
	}
	return name
}
