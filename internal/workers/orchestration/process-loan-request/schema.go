// internal/workers/orchestration/process-loan-request/schema.go
package processloanrequest

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var requestSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"sessionId", "requestType"},
	"properties": map[string]interface{}{
		"sessionId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"requestType": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{
				RequestConversation,
				RequestKYCVerification,
				RequestCreditAssessment,
				RequestCompleteJourney,
				RequestWorkflowStatus,
			},
		},
		"text": map[string]interface{}{
			"type": "string",
		},
		"messages": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"documents": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type": "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
			},
		},
	},
}

// validateRequest checks the raw request payload against the schema
// before any session state is touched.
func validateRequest(raw map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(requestSchema)
	documentLoader := gojsonschema.NewGoLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %v", errs)
	}

	return nil
}
