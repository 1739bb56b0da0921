// Package validate checks decoded JSON request bodies against the API's
// JSON Schemas.
package validate

import (
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas for the request bodies. Only types are enforced here; required
// fields are checked by the handlers so they can answer with their own
// messages.
const (
	createSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"text": {"type": "string"}
	}
}`

	updateSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"id":        {"type": "string"},
		"text":      {"type": "string", "minLength": 1},
		"completed": {"type": "boolean"}
	}
}`
)

var (
	// CreateRequest validates POST bodies.
	CreateRequest = jsonschema.MustCompileString("create.json", createSchema)
	// UpdateRequest validates PATCH bodies.
	UpdateRequest = jsonschema.MustCompileString("update.json", updateSchema)
)

// Error is a single schema violation.
type Error struct {
	Path string // dotted path of the offending field, empty for the root
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Body validates v (the result of json.Unmarshal into an any) against s.
// The returned error is nil or joins one *Error per violation.
func Body(s *jsonschema.Schema, v any) error {
	err := s.Validate(v)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var errs []error
	collect(&errs, ve)
	return errors.Join(errs...)
}

func collect(errs *[]error, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, &Error{
			Path: pointerToPath(ve.InstanceLocation),
			Err:  errors.New(ve.Message),
		})
		return
	}
	for _, cause := range ve.Causes {
		collect(errs, cause)
	}
}

// pointerToPath turns a JSON pointer like "/text" into "text".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}
