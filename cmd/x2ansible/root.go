package main

import (
	"github.com/spf13/cobra"

	"x2ansible/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "x2ansible",
	Short: "Migrate Chef, Puppet and Salt modules to Ansible roles",
	Long: "x2ansible scans a configuration management module, builds a conversion\n" +
		"checklist and drives every artifact through an attempt-budgeted\n" +
		"write/validate loop until it is migrated or its budget runs out.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logging.Init(logging.ParseLevel(rootFlags.logLevel), rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(publishAAPCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}
