package task

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/go-playground/validator/v10"
)

// FieldError lists every rule a single input field violated.
type FieldError struct {
	Field         string   `json:"field"`
	RejectedValue string   `json:"rejected_value"`
	Messages      []string `json:"messages"`
}

// ValidationResult is the outcome of validating an Edit.
type ValidationResult struct {
	IsValid bool         `json:"is_valid"`
	Errors  []FieldError `json:"errors"`
}

// Validator checks task edits against the rules declared on domain.Edit.
// It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator with the custom task rules registered.
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// notblank rejects strings that are empty once whitespace is trimmed.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("failed to register notblank rule: %v", err))
	}

	return &Validator{validate: v}
}

// Validate checks edit and collects every violation, grouped by field.
func (v *Validator) Validate(edit domain.Edit) ValidationResult {
	err := v.validate.Struct(edit)
	if err == nil {
		return ValidationResult{IsValid: true, Errors: []FieldError{}}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationResult{
			IsValid: false,
			Errors:  []FieldError{{Field: "", Messages: []string{err.Error()}}},
		}
	}

	var result []FieldError
	index := make(map[string]int)
	for _, fe := range verrs {
		field := fe.Field()
		i, ok := index[field]
		if !ok {
			i = len(result)
			index[field] = i
			result = append(result, FieldError{
				Field:         field,
				RejectedValue: fmt.Sprint(fe.Value()),
			})
		}
		result[i].Messages = append(result[i].Messages, messageFor(fe))
		result[i].Messages = append(result[i].Messages, v.laterViolations(fe)...)
	}

	return ValidationResult{IsValid: false, Errors: result}
}

// laterViolations checks the rules declared after the one that failed,
// since the validator stops at the first failing rule of a field.
func (v *Validator) laterViolations(fe validator.FieldError) []string {
	if fe.Tag() == "required" {
		return nil
	}
	field, ok := reflect.TypeOf(domain.Edit{}).FieldByName(fe.StructField())
	if !ok {
		return nil
	}

	var messages []string
	seen := false
	for _, rule := range strings.Split(field.Tag.Get("validate"), ",") {
		name, _, _ := strings.Cut(rule, "=")
		if !seen {
			seen = name == fe.Tag()
			continue
		}
		var verrs validator.ValidationErrors
		if err := v.validate.Var(fe.Value(), rule); errors.As(err, &verrs) {
			for _, later := range verrs {
				messages = append(messages, messageFor(later))
			}
		}
	}
	return messages
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "notblank":
		return "must not be blank"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
