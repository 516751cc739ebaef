package cmd

import (
	"github.com/spf13/cobra"

	"github.com/layerpipe/layerpipe/pkg/logging"
	"github.com/layerpipe/layerpipe/pkg/version"
)

// NewVersionCommand creates the 'version' command.
func NewVersionCommand(logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the layerpipe version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("layerpipe " + version.String())
		},
	}
}
