// Package cli implements the httptester command: one subcommand per HTTP
// method, all going through the fieldsadmin HTTP client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the command tree. Output goes to cmd.OutOrStdout so tests
// can capture it with SetOut.
func NewRootCmd() *cobra.Command {
	opts := &requestOptions{}

	root := &cobra.Command{
		Use:     "httptester",
		Short:   "Send requests through the fieldsadmin HTTP client",
		Version: version,
		Long: `httptester sends a single request through the same client the fieldsadmin
server uses: proxy rewriting, retries, timeouts and the access token header
behave exactly as they do for the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	addRequestFlags(root, opts)

	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		root.AddCommand(newMethodCmd(method, opts))
	}
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
