// Package schema provides offline validation of template resources against
// the property schemas of the resource types sitestack declares.
package schema

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/unleashedlab/sitestack"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties that are not in the schema
	Strict bool
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []sitestack.SchemaError
	Warnings []sitestack.SchemaError
}

// ValidateTemplate validates every resource of t. Resources are visited in
// logical ID order.
func ValidateTemplate(t *sitestack.Template, opts Options) (*Result, error) {
	result := &Result{Valid: true}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		resource := t.Resources[name]
		props, err := generic(resource.Properties)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		errors, warnings := validateResource(name, resource.Type, props, opts)
		result.Errors = append(result.Errors, errors...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// generic round-trips properties through JSON so values have the types
// encoding/json decodes to.
func generic(props map[string]any) (map[string]any, error) {
	if props == nil {
		return nil, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	return out, json.Unmarshal(data, &out)
}

// validateResource validates a single resource.
func validateResource(name, resourceType string, props map[string]any, opts Options) ([]sitestack.SchemaError, []sitestack.SchemaError) {
	var errors, warnings []sitestack.SchemaError

	if !isValidResourceType(resourceType) {
		errors = append(errors, sitestack.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resourceType),
		})
	}

	schema, ok := resourceSchemas[resourceType]
	if !ok {
		warnings = append(warnings, sitestack.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resourceType),
		})
		return errors, warnings
	}

	for _, required := range schema.Required {
		if _, exists := props[required]; !exists {
			errors = append(errors, sitestack.SchemaError{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	propNames := make([]string, 0, len(props))
	for propName := range props {
		propNames = append(propNames, propName)
	}
	sort.Strings(propNames)

	for _, propName := range propNames {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, sitestack.SchemaError{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}
		errors = append(errors, validateProperty(name, propName, props[propName], propSchema)...)
	}

	return errors, warnings
}

// isValidResourceType checks the AWS::Service::Resource or Custom::* form.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS"
}

// validateProperty validates a property value and, for objects, its
// nested properties.
func validateProperty(resource, property string, value any, schema PropertySchema) []sitestack.SchemaError {
	var errors []sitestack.SchemaError
	fail := func(format string, args ...any) {
		errors = append(errors, sitestack.SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if isIntrinsic(value) {
		return nil
	}

	if !isValidType(value, schema.Type) {
		fail("expected type %s", schema.Type)
		return errors
	}

	if len(schema.AllowedValues) > 0 {
		if s, ok := value.(string); ok && !slices.Contains(schema.AllowedValues, s) {
			fail("value %q not in allowed values: %v", s, schema.AllowedValues)
		}
	}

	if obj, ok := value.(map[string]any); ok && schema.Properties != nil {
		for _, required := range schema.Required {
			if _, exists := obj[required]; !exists {
				fail("missing required property: %s", required)
			}
		}
		for key, child := range obj {
			if childSchema, ok := schema.Properties[key]; ok {
				errors = append(errors, validateProperty(resource, property+"."+key, child, childSchema)...)
			}
		}
	}

	return errors
}

// isIntrinsic reports whether value is a Ref or Fn:: call, which resolves
// only at deploy time.
func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

// isValidType checks if a value matches the expected type.
func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Type       string
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property. Map properties may
// describe their own nested properties.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	Required      []string
	Properties    map[string]PropertySchema
}
