package understand

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Backend payloads are validated before they are trusted, since an executable
// query from a misbehaving service would otherwise reach the data source.
var suggestionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"kind": map[string]interface{}{
			"type": "string",
			"enum": []string{
				string(KindQuery), string(KindSearchTerm),
				string(KindAnalysis), string(KindExplanation),
			},
		},
		"query":       map[string]interface{}{"type": "string"},
		"mustExecute": map[string]interface{}{"type": "boolean"},
		"searchTerm":  map[string]interface{}{"type": "string"},
		"explanation": map[string]interface{}{"type": "string"},
		"confidence":  map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
	},
	"required": []string{"kind"},
}

func validateSuggestionPayload(payload map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(suggestionSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: suggestion validation failed: %v", ErrUnderstandingFailed, errs)
	}
	return nil
}
