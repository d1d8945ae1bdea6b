package validator

import "github.com/SAP-F-2025/student-service/internal/models"

// StudentCreateRequest represents the request structure for creating students
type StudentCreateRequest struct {
	Email      string                 `json:"email" validate:"required,email"`
	FirstName  string                 `json:"firstName" validate:"required,person_name"`
	LastName   string                 `json:"lastName" validate:"required,person_name"`
	ProgramID  *string                `json:"programId" validate:"omitempty,max=64"`
	EmployerID *string                `json:"employerId" validate:"omitempty,max=64"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// StudentUpdateRequest represents the request structure for updating students.
// Every field is optional; the caller rejects requests where no field is
// present after filtering.
type StudentUpdateRequest struct {
	Email      *string                `json:"email" validate:"omitempty,email"`
	FirstName  *string                `json:"firstName" validate:"omitempty,person_name"`
	LastName   *string                `json:"lastName" validate:"omitempty,person_name"`
	ProgramID  *string                `json:"programId" validate:"omitempty,max=64"`
	EmployerID *string                `json:"employerId" validate:"omitempty,max=64"`
	Status     *models.StudentStatus  `json:"status" validate:"omitempty,student_status"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// HasFields reports whether at least one updatable field is present.
func (r *StudentUpdateRequest) HasFields() bool {
	return r.Email != nil ||
		r.FirstName != nil ||
		r.LastName != nil ||
		r.ProgramID != nil ||
		r.EmployerID != nil ||
		r.Status != nil ||
		r.Metadata != nil
}

// StudentListQuery represents the query parameters for listing students
type StudentListQuery struct {
	Limit      int                   `form:"limit" validate:"omitempty,list_limit"`
	Status     *models.StudentStatus `form:"status" validate:"omitempty,student_status"`
	ProgramID  *string               `form:"programId" validate:"omitempty,max=64"`
	EmployerID *string               `form:"employerId" validate:"omitempty,max=64"`
	LastKey    string                `form:"lastKey"`
}

// BatchCreateRequest represents a caller-submitted group of creation requests
type BatchCreateRequest struct {
	Students []StudentCreateRequest `json:"students" validate:"required,min=1,max=100,dive"`
	Parallel bool                   `json:"parallel"`
}
