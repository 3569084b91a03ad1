package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "yauth-cli",
		Short: "yauth CLI tool",
		Long: `yauth-cli drives the auth widget core from the terminal.

Available commands:
  flows       List the widget's flows, their fields and links
  validate    Run the widget's field validation against given values
  submit      Submit a flow against the configured auth backend
  version     Print the version

Use "yauth-cli [command] --help" for more information about a specific command.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table or json")
	root.AddCommand(newVersionCmd(), newFlowsCmd(), newValidateCmd(), newSubmitCmd())
	return root
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
