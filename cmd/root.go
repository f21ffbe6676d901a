// Package cmd defines the CLI commands for the site audit executable.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locaudit",
		Short: "Audits carrier websites for how they expose location data",
		Long: `locaudit crawls a roster of trucking-carrier websites and classifies,
per page, how location data (terminals, service centers, drop yards) is
exposed: address lists, map embeds, PDFs, search forms, and so on. It
records an extraction recipe per site without extracting the data itself.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus AUDIT_* env vars)")

	cmd.AddCommand(newAuditCmd())
	return cmd
}

// Execute runs the root command. It is the entry point called by main.
func Execute() error {
	return newRootCmd().Execute()
}
