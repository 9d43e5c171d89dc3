// Package serialize turns resource structs into CloudFormation property maps.
//
// Fields are named by their json tag, zero values are dropped, and nested
// values implementing json.Marshaler (resources, AttrRef, intrinsics) are
// emitted in their marshaled form. The top-level resource's own MarshalJSON
// is never consulted, since for resources it produces a Ref.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Resource serializes a resource struct to its Properties map.
// A nil pointer or a non-struct yields a nil map.
func Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}
	return structFields(val)
}

// Value serializes an arbitrary property value, such as an output value or
// an intrinsic function, into plain JSON-compatible data.
func Value(v any) (any, error) {
	return serializeValue(reflect.ValueOf(v))
}

// MergeTags merges stack-wide tags into a serialized Tags list. Tags already
// present on the resource win. The result is sorted by key.
func MergeTags(existing any, stackTags map[string]string) []any {
	merged := make(map[string]any, len(stackTags))
	for k, v := range stackTags {
		merged[k] = v
	}
	if list, ok := existing.([]any); ok {
		for _, item := range list {
			tag, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if key, ok := tag["Key"].(string); ok {
				merged[key] = tag["Value"]
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]any, 0, len(keys))
	for _, k := range keys {
		result = append(result, map[string]any{"Key": k, "Value": merged[k]})
	}
	return result
}

// HasField reports whether the resource struct declares a property with the
// given json name.
func HasField(v any, name string) bool {
	typ := reflect.TypeOf(v)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.IsExported() && getFieldName(f) == name {
			return true
		}
	}
	return false
}

func structFields(val reflect.Value) (map[string]any, error) {
	typ := val.Type()
	props := make(map[string]any, typ.NumField())

	for i := range typ.NumField() {
		f := typ.Field(i)
		name := getFieldName(f)
		if !f.IsExported() || name == "-" {
			continue
		}

		fv := val.Field(i)
		if omit(fv) {
			continue
		}

		out, err := serializeValue(fv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if out != nil {
			props[name] = out
		}
	}

	return props, nil
}

func getFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// omit reports whether a field carries no value. Structs count as empty only
// through an IsZero method, so a configured-but-blank struct is still emitted.
func omit(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		if z, ok := v.Interface().(interface{ IsZero() bool }); ok {
			return z.IsZero()
		}
		return false
	default:
		return v.IsZero()
	}
}

func serializeValue(v reflect.Value) (any, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, nil
	}

	if m, ok := v.Interface().(json.Marshaler); ok {
		return roundTrip(m)
	}

	switch v.Kind() {
	case reflect.Struct:
		return structFields(v)

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		items := make([]any, 0, v.Len())
		for i := range v.Len() {
			item, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, item)
		}
		return items, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		entries := make(map[string]any, v.Len())
		for it := v.MapRange(); it.Next(); {
			key := fmt.Sprint(it.Key().Interface())
			item, err := serializeValue(it.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			entries[key] = item
		}
		return entries, nil

	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	}

	return roundTrip(v.Interface())
}

// roundTrip encodes v and decodes it back into generic JSON data.
func roundTrip(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
