package cli

import (
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-emotion/orchestrator"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "schema",
		Short:       "Print the JSON schema of the analysis result",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd, resultSchema())
		},
	}
}

func resultSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&orchestrator.AnalysisResult{})
	schema.Title = "Speech emotion analysis result"
	return schema
}
