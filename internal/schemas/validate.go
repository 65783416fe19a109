// Package schemas validates structured payloads against the embedded JSON Schemas.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/interview-scheduler/internal/scheduling"
	schemafiles "github.com/jonathan/interview-scheduler/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for i, err := range ve.Errors {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(fmt.Sprintf(" %s: %s", err.Field, err.Message))
	}
	return sb.String()
}

// First returns the first field error, if any.
func (ve *ValidationError) First() (FieldError, bool) {
	if len(ve.Errors) == 0 {
		return FieldError{}, false
	}
	return ve.Errors[0], true
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

// load compiles an embedded schema once and caches it.
func load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	raw, err := schemafiles.FS.ReadFile(name)
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// FeedbackSchemaFor returns the schema name that governs feedback from role.
func FeedbackSchemaFor(role scheduling.PartyRole) (string, error) {
	switch role {
	case scheduling.RoleRecruiter:
		return schemafiles.RecruiterFeedback, nil
	case scheduling.RoleCandidate:
		return schemafiles.CandidateFeedback, nil
	}
	return "", fmt.Errorf("no feedback schema for role %q", role)
}

// ValidateFeedback checks a feedback document submitted by role.
func ValidateFeedback(role scheduling.PartyRole, doc []byte) error {
	name, err := FeedbackSchemaFor(role)
	if err != nil {
		return err
	}
	return ValidateBytes(name, doc)
}

// ValidateBytes validates a JSON document against an embedded schema by name.
func ValidateBytes(name string, doc []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		// the document itself is not parseable JSON
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return toValidationError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Name: "(string schema)", Cause: err}
	}
	return toValidationError(result)
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
