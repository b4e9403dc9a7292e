package common

import (
	"fmt"
	"regexp"
	"strings"
)

// Domain formats for Indonesian tax documents.
var (
	reNoFaktur = regexp.MustCompile(`^\d{3}\.\d{3}-\d{2}\.\d{8}$`)
	reNPWP     = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}\.\d{1}-\d{3}\.\d{3}$`)
	reDecimal  = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	reISODate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Error returns a combined error, or nil when clean
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return ValidationErrorf("%s", v.ErrorMessage())
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

func stringValue(value interface{}) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// FakturNumber validates the NNN.NNN-NN.NNNNNNNN invoice number format.
func FakturNumber(fieldName string, value interface{}) *ValidationError {
	s, ok := stringValue(value)
	if !ok || !reNoFaktur.MatchString(s) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must match NNN.NNN-NN.NNNNNNNN"}
	}
	return nil
}

// NPWP validates the taxpayer identifier format NN.NNN.NNN.N-NNN.NNN.
func NPWP(fieldName string, value interface{}) *ValidationError {
	s, ok := stringValue(value)
	if !ok || !reNPWP.MatchString(s) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must match NN.NNN.NNN.N-NNN.NNN"}
	}
	return nil
}

// Decimal validates a non-negative amount with at most two decimal places.
func Decimal(fieldName string, value interface{}) *ValidationError {
	s, ok := stringValue(value)
	if !ok || !reDecimal.MatchString(s) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a decimal amount"}
	}
	return nil
}

// ISODate validates a YYYY-MM-DD date string.
func ISODate(fieldName string, value interface{}) *ValidationError {
	s, ok := stringValue(value)
	if !ok || !reISODate.MatchString(s) {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be YYYY-MM-DD"}
	}
	return nil
}
