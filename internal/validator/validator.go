package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/student-service/internal/models"
)

// Validator handles request validation and normalization. Validation is pure:
// no I/O happens before input has been accepted.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	validate := validator.New()

	// Report violations under the field name the caller sent (json for
	// bodies, form for query strings).
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates any tagged struct and returns every violation found.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateStudentCreate validates and normalizes a creation request.
// Names and email are trimmed in place.
func (v *Validator) ValidateStudentCreate(req *StudentCreateRequest) ValidationErrors {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	return v.Validate(req)
}

// ValidateStudentUpdate validates an update request. Presence of at least one
// field is the caller's responsibility (the empty update is a request-shape
// problem, not a field problem).
func (v *Validator) ValidateStudentUpdate(req *StudentUpdateRequest) ValidationErrors {
	if req.Email != nil {
		trimmed := strings.TrimSpace(strings.ToLower(*req.Email))
		req.Email = &trimmed
	}
	if req.FirstName != nil {
		trimmed := strings.TrimSpace(*req.FirstName)
		req.FirstName = &trimmed
	}
	if req.LastName != nil {
		trimmed := strings.TrimSpace(*req.LastName)
		req.LastName = &trimmed
	}

	return v.Validate(req)
}

// ValidateListQuery validates list query parameters, defaulting the limit.
func (v *Validator) ValidateListQuery(q *StudentListQuery) ValidationErrors {
	if q.Limit == 0 {
		q.Limit = 20
	}

	return v.Validate(q)
}

// ValidateID validates an opaque record identifier.
func (v *Validator) ValidateID(id string) ValidationErrors {
	if strings.TrimSpace(id) == "" {
		return ValidationErrors{{
			Field:   "id",
			Message: "must not be blank",
			Rule:    "required",
		}}
	}
	return nil
}

// ValidateBatchCreate validates a batch submission. Per-item violations are
// reported with their index so callers can correlate them back.
func (v *Validator) ValidateBatchCreate(req *BatchCreateRequest) ValidationErrors {
	if len(req.Students) == 0 {
		return ValidationErrors{{
			Field:   "students",
			Message: "must contain between 1 and 100 items",
			Rule:    "batch_size",
		}}
	}
	if len(req.Students) > 100 {
		return ValidationErrors{{
			Field:   "students",
			Message: "must contain between 1 and 100 items",
			Value:   len(req.Students),
			Rule:    "batch_size",
		}}
	}

	var errors ValidationErrors
	for i := range req.Students {
		for _, e := range v.ValidateStudentCreate(&req.Students[i]) {
			e.Field = fmt.Sprintf("students[%d].%s", i, e.Field)
			errors = append(errors, e)
		}
	}
	return errors
}

// registerRules registers custom rule validators.
func (v *Validator) registerRules() {
	// Names must survive trimming.
	_ = v.validate.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 100
	})

	// Status must be one of the known enum values.
	_ = v.validate.RegisterValidation("student_status", func(fl validator.FieldLevel) bool {
		return models.IsValidStatus(models.StudentStatus(fl.Field().String()))
	})

	// List page size bounds.
	_ = v.validate.RegisterValidation("list_limit", func(fl validator.FieldLevel) bool {
		limit := fl.Field().Int()
		return limit >= 1 && limit <= 100
	})
}
