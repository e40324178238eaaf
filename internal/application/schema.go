package application

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/form_data.json
var formDataSchema string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(formDataSchema))
})

// validateSchema checks value types and formats of a submitted answer set.
// Required-ness is the form model's job; this only rejects malformed values.
func validateSchema(values map[string]any) ([]string, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(values))
	if err != nil {
		return nil, fmt.Errorf("validate form data: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	sort.Strings(errs)
	return errs, nil
}
