package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

var schemaCmd = &cobra.Command{
	Use:       "schema [summary|config]",
	Short:     "Print the JSON Schema of the summary or the config file",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"summary", "config"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "summary"
		if len(args) == 1 {
			target = args[0]
		}

		schema := buildSchema(target)
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func buildSchema(target string) *jsonschema.Schema {
	if target == "config" {
		r := &jsonschema.Reflector{
			AllowAdditionalProperties:  true,
			ExpandedStruct:             true,
			FieldNameTag:               "yaml",
			RequiredFromJSONSchemaTags: true,
		}
		schema := r.Reflect(&config.Config{})
		schema.Title = "session-improver configuration"
		schema.Description = "Schema for ~/.session-improver/config.yaml."
		return schema
	}

	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := r.Reflect(&analytics.Summary{})
	schema.Title = "session-improver summary"
	schema.Description = "Diagnostic report for one Claude Code session."
	return schema
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
