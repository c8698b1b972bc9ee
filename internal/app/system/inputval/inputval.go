// Package inputval validates API request bodies using waffle/pantry/validate.
//
// Define a request struct with validate tags, decode into it, and call
// Validate. Fields() feeds jsonutil.ValidationError directly.
//
// Example:
//
//	type reorderRequest struct {
//	    TargetID string `json:"target_id" validate:"required" label:"Target"`
//	    Position string `json:"position" validate:"required,position" label:"Position"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Fields())
//	    return
//	}
package inputval

import (
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// Fields maps each failing field (by json name) to its message.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, dup := out[e.Field]; !dup {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Positions accepted by the "position" rule.
var Positions = []string{"above", "below", "child"}

// RenumberModes accepted by the "renumbermode" rule.
var RenumberModes = []string{"numeric", "hierarchy"}

// Separators accepted by the "separator" rule, matched exactly.
var Separators = []string{"_", "-", " "}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

// getValidator returns the singleton validator with the folder rules.
func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		// foldertype: empty or one of models.FolderTypes
		customValidator.RegisterRuleFunc("foldertype", func(value any) bool {
			s, ok := asString(value)
			return ok && (s == "" || IsFolderType(s))
		}, "foldertype")

		// position: above, below or child (case-insensitive)
		customValidator.RegisterRuleFunc("position", func(value any) bool {
			s, ok := asString(value)
			return ok && oneOf(s, Positions)
		}, "position")

		// renumbermode: numeric or hierarchy
		customValidator.RegisterRuleFunc("renumbermode", func(value any) bool {
			s, ok := asString(value)
			return ok && oneOf(s, RenumberModes)
		}, "renumbermode")

		// separator: one of Separators, no trimming
		customValidator.RegisterRuleFunc("separator", func(value any) bool {
			s, ok := asString(value)
			return ok && IsSeparator(s)
		}, "separator")

		// foldername: no path separators
		customValidator.RegisterRuleFunc("foldername", func(value any) bool {
			s, ok := asString(value)
			return ok && IsFolderName(s)
		}, "foldername")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Rules from pantry/validate: required, oneof, min, max.
// Rules registered here: foldertype, position, renumbermode, separator,
// foldername.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := getFieldLabels(s)

	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: formatMessage(label, e.Rule, e.Param),
			})
		}
	}

	return result
}

// getFieldLabels extracts the "label" tag from struct fields, keyed by
// json name when the field has one.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		fieldName := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				fieldName = parts[0]
			}
		}

		if label := field.Tag.Get("label"); label != "" {
			labels[fieldName] = label
		}
	}

	return labels
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + "."
	case "max":
		return label + " must be at most " + param + "."
	case "foldertype":
		return label + " must be one of: " + strings.Join(FolderTypeList(), ", ") + "."
	case "position":
		return label + " must be one of: " + strings.Join(Positions, ", ") + "."
	case "renumbermode":
		return label + " must be one of: " + strings.Join(RenumberModes, ", ") + "."
	case "separator":
		return label + ` must be one of: "_", "-", " ".`
	case "foldername":
		return label + " must not contain path separators."
	default:
		return label + " is invalid."
	}
}

// FolderTypeList returns every folder type as a string.
func FolderTypeList() []string {
	out := make([]string, len(models.FolderTypes))
	for i, t := range models.FolderTypes {
		out[i] = string(t)
	}
	return out
}

// IsFolderType reports whether s names a known folder type.
func IsFolderType(s string) bool {
	return oneOf(s, FolderTypeList())
}

// IsFolderName reports whether s can name a single folder: it may be empty
// (a name is generated) but must not contain / or \ or be "." or "..".
func IsFolderName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

// asString accepts string and named string types such as models.FolderType.
func asString(value any) (string, bool) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.String {
		return "", false
	}
	return v.String(), true
}

// IsSeparator reports whether s may join a number prefix to a name.
func IsSeparator(s string) bool {
	for _, sep := range Separators {
		if s == sep {
			return true
		}
	}
	return false
}

func oneOf(s string, allowed []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
