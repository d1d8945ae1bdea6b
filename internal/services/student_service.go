package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/validator"
)

type studentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

// NewStudentService creates the student CRUD service.
func NewStudentService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) StudentService {
	return &studentService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// Create validates the request, checks email uniqueness and writes the
// record. The uniqueness check and the write are two separate operations;
// two concurrent creates with the same email can both succeed (accepted,
// documented consistency gap).
func (s *studentService) Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error) {
	if violations := s.validator.ValidateStudentCreate(req); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	if _, err := s.repo.Student().GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email %s: %w", req.Email, ErrAlreadyExists)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("email uniqueness check failed: %w", err)
	}

	student, err := s.repo.Student().Create(ctx, models.StudentDraft{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		ProgramID:  req.ProgramID,
		EmployerID: req.EmployerID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("id collision: %w", ErrAlreadyExists)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "student created", "student_id", student.ID)

	return student, nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if violations := s.validator.ValidateID(id); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	student, err := s.repo.Student().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return student, nil
}

// Update applies only the supplied fields. An update with no effective
// fields is rejected before any I/O.
func (s *studentService) Update(ctx context.Context, id string, req *UpdateStudentRequest) (*models.Student, error) {
	if violations := s.validator.ValidateID(id); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	if !req.HasFields() {
		return nil, newValidationError(validator.ValidationErrors{{
			Field:   "request",
			Message: "at least one field required",
			Rule:    "required",
		}})
	}

	if violations := s.validator.ValidateStudentUpdate(req); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	fields := make(map[string]interface{})
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.ProgramID != nil {
		fields["program_id"] = *req.ProgramID
	}
	if req.EmployerID != nil {
		fields["employer_id"] = *req.EmployerID
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Metadata != nil {
		fields["metadata"] = datatypes.JSONMap(req.Metadata)
	}

	student, err := s.repo.Student().Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "student updated", "student_id", id)

	return student, nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	if violations := s.validator.ValidateID(id); len(violations) > 0 {
		return newValidationError(violations)
	}

	deleted, err := s.repo.Student().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	s.logger.InfoContext(ctx, "student deleted", "student_id", id)

	return nil
}

func (s *studentService) List(ctx context.Context, query *ListStudentsQuery) (*repositories.StudentList, error) {
	if violations := s.validator.ValidateListQuery(query); len(violations) > 0 {
		return nil, newValidationError(violations)
	}

	list, err := s.repo.Student().List(ctx, repositories.StudentFilters{
		Status:     query.Status,
		EmployerID: query.EmployerID,
		ProgramID:  query.ProgramID,
		Limit:      query.Limit,
		LastKey:    query.LastKey,
	})
	if err != nil {
		// The token is opaque client input; a token that does not decode is
		// the caller's problem, not a backend failure.
		if errors.Is(err, repositories.ErrInvalidPageToken) {
			return nil, newValidationError(validator.ValidationErrors{{
				Field:   "lastKey",
				Message: "must be a valid page token",
				Value:   query.LastKey,
				Rule:    "page_token",
			}})
		}
		return nil, err
	}

	return list, nil
}
