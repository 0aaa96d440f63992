package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"x2ansible/internal/publish"
)

var publishFlags struct {
	roles           []string
	rolePaths       []string
	basePath        string
	collectionsFile string
	inventoryFile   string
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Scaffold a deployable Ansible project from migrated roles",
	Long: `Builds a complete Ansible project around one or more migrated roles:
directory layout, wrapper playbooks, ansible.cfg, collection requirements
and an inventory. Role names and paths are parallel repeated flags.`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringSliceVar(&publishFlags.roles, "role", nil, "Role name (repeatable, required)")
	f.StringSliceVar(&publishFlags.rolePaths, "role-path", nil, "Migrated role directory (repeatable, required)")
	f.StringVar(&publishFlags.basePath, "base", "", "Base path for the deployment tree")
	f.StringVar(&publishFlags.collectionsFile, "collections-file", "", "YAML/JSON file with collection requirements")
	f.StringVar(&publishFlags.inventoryFile, "inventory-file", "", "YAML/JSON file with the inventory structure")

	_ = publishCmd.MarkFlagRequired("role")
	_ = publishCmd.MarkFlagRequired("role-path")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	projectDir, err := publish.CreateProject(publish.Options{
		RoleNames:       publishFlags.roles,
		RolePaths:       publishFlags.rolePaths,
		BasePath:        publishFlags.basePath,
		CollectionsFile: publishFlags.collectionsFile,
		InventoryFile:   publishFlags.inventoryFile,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ansible project created at %s\n", projectDir)
	return nil
}

var publishAAPFlags struct {
	repoURL      string
	branch       string
	organization string
	projectName  string
	credentialID int
}

// newControllerClient builds the AAP controller client. It returns nil when
// no controller is configured, which SyncAAP reports as disabled.
var newControllerClient = func() publish.ControllerClient { return nil }

var publishAAPCmd = &cobra.Command{
	Use:   "publish-aap",
	Short: "Point an AAP controller project at a published repository and sync it",
	RunE:  runPublishAAP,
}

func init() {
	f := publishAAPCmd.Flags()
	f.StringVar(&publishAAPFlags.repoURL, "repo", "", "Git repository URL (required)")
	f.StringVar(&publishAAPFlags.branch, "branch", "main", "Git branch")
	f.StringVar(&publishAAPFlags.organization, "org", "Default", "AAP organization name")
	f.StringVar(&publishAAPFlags.projectName, "project-name", "", "Controller project name (default inferred from repo URL)")
	f.IntVar(&publishAAPFlags.credentialID, "credential-id", 0, "SCM credential ID for private repos")

	_ = publishAAPCmd.MarkFlagRequired("repo")
}

func runPublishAAP(cmd *cobra.Command, _ []string) error {
	result := publish.SyncAAP(cmd.Context(), newControllerClient(), publish.SyncOptions{
		RepoURL:      publishAAPFlags.repoURL,
		Branch:       publishAAPFlags.branch,
		Organization: publishAAPFlags.organization,
		ProjectName:  publishAAPFlags.projectName,
		CredentialID: publishAAPFlags.credentialID,
	})

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "AAP sync:")
	for _, line := range result.Summary() {
		fmt.Fprintln(out, line)
	}

	if !result.Enabled {
		return fmt.Errorf("AAP is not configured for this build")
	}
	if result.Error != "" {
		return fmt.Errorf("AAP sync failed: %s", result.Error)
	}
	return nil
}
