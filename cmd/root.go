// Package cmd holds the meridian command line: the API server, the
// background worker and maintenance commands.
package cmd

import (
	"meridian/config"
	"meridian/utils"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "meridian",
		Short:         "Acupressure clinic booking, dispatch and session ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			utils.InitializeLogger()
		},
	}
	root.AddCommand(serveCmd(), workerCmd(), expirePackagesCmd(), indexesCmd(), tokenCmd(), seedCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
