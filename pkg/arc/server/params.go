// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/arcprotocol/arc-go/pkg/arc"
	"github.com/arcprotocol/arc-go/pkg/errors"
)

// FieldKind is the expected JSON type of a parameter field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldBool
	FieldNumber
	FieldObject
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldBool:
		return "boolean"
	case FieldNumber:
		return "number"
	case FieldObject:
		return "object"
	default:
		return "unknown"
	}
}

// Field describes one parameter of a method schema.
type Field struct {
	Name     string
	Kind     FieldKind
	Required bool
	Default  interface{} // applied when the field is absent
}

// Schema is the explicit parameter shape of one method, checked at the
// dispatch boundary before the handler body runs.
type Schema struct {
	Fields []Field
}

// Validate checks params against the schema and applies defaults in place.
// Missing required fields and wrong-typed values fail with InvalidParams.
func (s Schema) Validate(params arc.Params) error {
	for _, field := range s.Fields {
		value, present := params[field.Name]
		if !present {
			if field.Required {
				return errors.Newf(errors.CodeInvalidParams,
					"missing required parameter: %s", field.Name).
					WithContext("param", field.Name)
			}
			if field.Default != nil {
				params[field.Name] = field.Default
			}
			continue
		}
		if !kindMatches(field.Kind, value) {
			return errors.Newf(errors.CodeInvalidParams,
				"parameter %s must be a %s", field.Name, field.Kind).
				WithContext("param", field.Name)
		}
	}
	return nil
}

func kindMatches(kind FieldKind, value interface{}) bool {
	switch kind {
	case FieldString:
		_, ok := value.(string)
		return ok
	case FieldBool:
		_, ok := value.(bool)
		return ok
	case FieldNumber:
		_, ok := value.(float64)
		return ok
	case FieldObject:
		_, ok := value.(map[string]interface{})
		return ok
	default:
		return false
	}
}

// Common field constructors shared across method schemas.

// RequiredString declares a required string field.
func RequiredString(name string) Field {
	return Field{Name: name, Kind: FieldString, Required: true}
}

// OptionalString declares an optional string field.
func OptionalString(name string) Field {
	return Field{Name: name, Kind: FieldString}
}

// OptionalStringDefault declares an optional string field with a default.
func OptionalStringDefault(name, def string) Field {
	return Field{Name: name, Kind: FieldString, Default: def}
}

// OptionalBool declares an optional boolean field defaulting to false.
func OptionalBool(name string) Field {
	return Field{Name: name, Kind: FieldBool, Default: false}
}

// OptionalObject declares an optional object field.
func OptionalObject(name string) Field {
	return Field{Name: name, Kind: FieldObject}
}
