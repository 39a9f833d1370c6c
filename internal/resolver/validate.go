package resolver

import (
	"fmt"
	"regexp"

	"github.com/apidoorman/doorman-go/internal/configstore"
	apierrors "github.com/apidoorman/doorman-go/internal/errors"
)

// ValidateFields walks schema against body per spec §4.4 step 5: type,
// required, min/max, pattern, enum, format, and nested/array schemas. It
// returns on the first failure with the offending field path.
func ValidateFields(schema *configstore.FieldSchema, body interface{}, path string) *apierrors.ErrorDetail {
	if schema == nil {
		return nil
	}
	if body == nil {
		if schema.Required {
			return fieldError(apierrors.ErrCodeFieldRequired, path, "is required")
		}
		return nil
	}

	switch schema.Type {
	case "object":
		obj, ok := body.(map[string]interface{})
		if !ok {
			return fieldError(apierrors.ErrCodeFieldType, path, "must be an object")
		}
		for name, sub := range schema.Fields {
			childPath := joinPath(path, name)
			value, present := obj[name]
			if !present {
				if sub.Required {
					return fieldError(apierrors.ErrCodeFieldRequired, childPath, "is required")
				}
				continue
			}
			if errDetail := ValidateFields(sub, value, childPath); errDetail != nil {
				return errDetail
			}
		}
		return nil

	case "array":
		arr, ok := body.([]interface{})
		if !ok {
			return fieldError(apierrors.ErrCodeFieldType, path, "must be an array")
		}
		if schema.Items != nil {
			for i, item := range arr {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				if errDetail := ValidateFields(schema.Items, item, itemPath); errDetail != nil {
					return errDetail
				}
			}
		}
		return nil

	case "string":
		s, ok := body.(string)
		if !ok {
			return fieldError(apierrors.ErrCodeFieldType, path, "must be a string")
		}
		if schema.Pattern != "" {
			matched, err := regexp.MatchString(schema.Pattern, s)
			if err != nil || !matched {
				return fieldError(apierrors.ErrCodeFieldPattern, path, fmt.Sprintf("does not match pattern %s", schema.Pattern))
			}
		}
		if len(schema.Enum) > 0 && !contains(schema.Enum, s) {
			return fieldError(apierrors.ErrCodeFieldEnum, path, "is not one of the allowed values")
		}
		if schema.Format != "" {
			if errDetail := validateFormat(path, schema.Format, s); errDetail != nil {
				return errDetail
			}
		}
		if schema.Min != nil && float64(len(s)) < *schema.Min {
			return fieldError(apierrors.ErrCodeFieldRange, path, "is shorter than the minimum length")
		}
		if schema.Max != nil && float64(len(s)) > *schema.Max {
			return fieldError(apierrors.ErrCodeFieldRange, path, "is longer than the maximum length")
		}
		return nil

	case "number", "integer":
		n, ok := asFloat(body)
		if !ok {
			return fieldError(apierrors.ErrCodeFieldType, path, "must be a number")
		}
		if schema.Min != nil && n < *schema.Min {
			return fieldError(apierrors.ErrCodeFieldRange, path, "is below the minimum")
		}
		if schema.Max != nil && n > *schema.Max {
			return fieldError(apierrors.ErrCodeFieldRange, path, "is above the maximum")
		}
		return nil

	case "boolean":
		if _, ok := body.(bool); !ok {
			return fieldError(apierrors.ErrCodeFieldType, path, "must be a boolean")
		}
		return nil

	default:
		return nil
	}
}

func validateFormat(path, format, value string) *apierrors.ErrorDetail {
	switch format {
	case "email":
		if !emailPattern.MatchString(value) {
			return fieldError(apierrors.ErrCodeFieldPattern, path, "must be a valid email address")
		}
	case "uuid":
		if !uuidPattern.MatchString(value) {
			return fieldError(apierrors.ErrCodeFieldPattern, path, "must be a valid uuid")
		}
	}
	return nil
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

func fieldError(code apierrors.ErrorCode, path, reason string) *apierrors.ErrorDetail {
	detail := apierrors.NewErrorResponse(code, fmt.Sprintf("%s %s", path, reason), map[string]interface{}{"field": path}).Error
	return &detail
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
