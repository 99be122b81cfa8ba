// Package cli implements the oasynth command line tool: converting generated
// schema documents between JSON and YAML, validating them, and serving the
// interactive documentation UIs.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute runs the oasynth CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI
// easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "oasynth",
		Short:         "Work with generated OpenAPI schema documents",
		Long:          "oasynth converts generated OpenAPI documents between JSON and YAML, validates them, and serves interactive API documentation.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	// Accept underscore spellings of flags, like --no_examples.
	cmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	for _, sub := range []*cobra.Command{newConvertCmd(), newValidateCmd(), newServeCmd()} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}
	cmd.SetFlagErrorFunc(flagError)

	return cmd
}

// flagError converts cobra flag errors (like unknown flags) into usage
// errors that also show the command's help text.
func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
