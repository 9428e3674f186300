package llm

import (
	"context"
	"fmt"

	"github.com/contentforge/pipeline/internal/platform/apperr"
)

// Validator checks a schema-conformant map for domain-level validity beyond
// what JSON Schema alone enforces (e.g. dense section indices).
type Validator func(map[string]interface{}) error

// GenerateJSONWithFeedback retries a schema-enforced call up to extraAttempts
// additional times, appending the validator's error as feedback to the next
// attempt's user prompt, per spec §4.4 step 2's "retry up to 2 times with
// feedback" policy.
func GenerateJSONWithFeedback(ctx context.Context, c Client, system, user, schemaName string, schema map[string]interface{}, extraAttempts int, validate Validator) (map[string]interface{}, error) {
	attempt := 0
	currentUser := user
	for {
		result, err := c.GenerateJSON(ctx, system, currentUser, schemaName, schema)
		if err == nil && validate != nil {
			err = validate(result)
		}
		if err == nil {
			return result, nil
		}
		if attempt >= extraAttempts {
			return nil, apperr.New(apperr.KindSchemaValidation, fmt.Sprintf("schema validation failed after %d attempts: %v", attempt+1, err), err)
		}
		currentUser = fmt.Sprintf("%s\n\nYour previous response failed schema validation because: %s\nPlease correct this and respond again, conforming strictly to the schema.", user, err.Error())
		attempt++
	}
}
