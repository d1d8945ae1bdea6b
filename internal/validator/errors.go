package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts go-playground field errors into the service
// error shape, preserving every violation rather than just the first.
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}
	for _, fe := range fieldErrors {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

// errorMessage returns user-friendly error messages.
func errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "person_name":
		return "must not be blank"
	case "student_status":
		return "must be one of PENDING, ACTIVE, INACTIVE, SUSPENDED, GRADUATED"
	case "list_limit":
		return "must be between 1 and 100"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
