package cli

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var noExamples bool

	cmd := &cobra.Command{
		Use:   "validate <schema-file>",
		Short: "Validate a schema document against the OpenAPI 3 specification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := openapi3.NewLoader()
			loader.IsExternalRefsAllowed = true

			doc, err := loader.LoadFromFile(args[0])
			if err != nil {
				return fmt.Errorf("load schema: %w", err)
			}

			var opts []openapi3.ValidationOption
			if noExamples {
				opts = append(opts, openapi3.DisableExamplesValidation())
			}
			if err := doc.Validate(cmd.Context(), opts...); err != nil {
				return fmt.Errorf("schema is invalid: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is a valid OpenAPI %s document\n", args[0], doc.OpenAPI)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noExamples, "no-examples", false, "Skip validation of example values")

	return cmd
}
