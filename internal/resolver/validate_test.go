package resolver

import (
	"testing"

	"github.com/apidoorman/doorman-go/internal/configstore"
)

func ptr(f float64) *float64 { return &f }

func TestValidateFields_RequiredMissing(t *testing.T) {
	schema := &configstore.FieldSchema{
		Type: "object",
		Fields: map[string]*configstore.FieldSchema{
			"name": {Type: "string", Required: true},
		},
	}
	body := map[string]interface{}{}
	errDetail := ValidateFields(schema, body, "")
	if errDetail == nil || errDetail.Code != "VAL001" {
		t.Fatalf("expected VAL001, got %v", errDetail)
	}
}

func TestValidateFields_PatternMismatch(t *testing.T) {
	schema := &configstore.FieldSchema{Type: "string", Pattern: `^[a-z]+$`}
	errDetail := ValidateFields(schema, "ABC123", "code")
	if errDetail == nil || errDetail.Code != "VAL004" {
		t.Fatalf("expected VAL004, got %v", errDetail)
	}
}

func TestValidateFields_EnumViolation(t *testing.T) {
	schema := &configstore.FieldSchema{Type: "string", Enum: []string{"celsius", "fahrenheit"}}
	errDetail := ValidateFields(schema, "kelvin", "units")
	if errDetail == nil || errDetail.Code != "VAL005" {
		t.Fatalf("expected VAL005, got %v", errDetail)
	}
}

func TestValidateFields_NumberRange(t *testing.T) {
	schema := &configstore.FieldSchema{Type: "number", Min: ptr(0), Max: ptr(100)}
	if errDetail := ValidateFields(schema, float64(150), "percent"); errDetail == nil || errDetail.Code != "VAL003" {
		t.Fatalf("expected VAL003, got %v", errDetail)
	}
	if errDetail := ValidateFields(schema, float64(50), "percent"); errDetail != nil {
		t.Fatalf("expected valid, got %v", errDetail)
	}
}

func TestValidateFields_NestedArrayOfObjects(t *testing.T) {
	schema := &configstore.FieldSchema{
		Type: "array",
		Items: &configstore.FieldSchema{
			Type: "object",
			Fields: map[string]*configstore.FieldSchema{
				"id": {Type: "string", Required: true},
			},
		},
	}
	body := []interface{}{
		map[string]interface{}{"id": "x"},
		map[string]interface{}{},
	}
	errDetail := ValidateFields(schema, body, "items")
	if errDetail == nil || errDetail.Code != "VAL001" {
		t.Fatalf("expected VAL001 for missing nested id, got %v", errDetail)
	}
}

func TestValidateFields_EmailFormat(t *testing.T) {
	schema := &configstore.FieldSchema{Type: "string", Format: "email"}
	if errDetail := ValidateFields(schema, "not-an-email", "email"); errDetail == nil {
		t.Fatal("expected format validation failure")
	}
	if errDetail := ValidateFields(schema, "user@example.com", "email"); errDetail != nil {
		t.Fatalf("expected valid email to pass, got %v", errDetail)
	}
}

func TestValidateFields_NilSchemaAllowsAnything(t *testing.T) {
	if errDetail := ValidateFields(nil, "anything", "field"); errDetail != nil {
		t.Fatalf("expected nil schema to allow anything, got %v", errDetail)
	}
}
