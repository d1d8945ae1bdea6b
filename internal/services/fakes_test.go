package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStudentRepo is an in-memory StudentRepository with per-method error
// injection.
type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[string]*models.Student
	byEmail  map[string]string

	createErr    error
	createErrFor map[string]error
	getEmailErr  error
	listErr      error
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		students: make(map[string]*models.Student),
		byEmail:  make(map[string]string),
	}
}

func (f *fakeStudentRepo) Create(ctx context.Context, draft models.StudentDraft) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	if err := f.createErrFor[draft.Email]; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	student := &models.Student{
		ID:         uuid.New().String(),
		Email:      draft.Email,
		FirstName:  draft.FirstName,
		LastName:   draft.LastName,
		ProgramID:  draft.ProgramID,
		EmployerID: draft.EmployerID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
		Metadata:   datatypes.JSONMap(draft.Metadata),
	}
	f.students[student.ID] = student
	f.byEmail[student.Email] = student.ID
	return student, nil
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	student, ok := f.students[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copy := *student
	return &copy, nil
}

func (f *fakeStudentRepo) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getEmailErr != nil {
		return nil, f.getEmailErr
	}

	id, ok := f.byEmail[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copy := *f.students[id]
	return &copy, nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	student, ok := f.students[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if v, ok := fields["first_name"].(string); ok {
		student.FirstName = v
	}
	if v, ok := fields["last_name"].(string); ok {
		student.LastName = v
	}
	if v, ok := fields["email"].(string); ok {
		delete(f.byEmail, student.Email)
		student.Email = v
		f.byEmail[v] = id
	}
	if v, ok := fields["status"].(models.StudentStatus); ok {
		student.Status = v
	}
	student.UpdatedAt = time.Now().UTC()
	copy := *student
	return &copy, nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	student, ok := f.students[id]
	if !ok {
		return false, nil
	}
	delete(f.byEmail, student.Email)
	delete(f.students, id)
	return true, nil
}

func (f *fakeStudentRepo) List(ctx context.Context, filters repositories.StudentFilters) (*repositories.StudentList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	list := &repositories.StudentList{}
	for _, s := range f.students {
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		copy := *s
		list.Records = append(list.Records, &copy)
	}
	list.Count = len(list.Records)
	return list, nil
}

func (f *fakeStudentRepo) BatchCreate(ctx context.Context, drafts []models.StudentDraft) (*repositories.BatchCreateResult, error) {
	result := &repositories.BatchCreateResult{}
	for _, draft := range drafts {
		student, err := f.Create(ctx, draft)
		if err != nil {
			result.Failed = append(result.Failed, repositories.BatchFailure{
				Draft:  draft,
				Reason: err.Error(),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, student)
	}
	return result, nil
}

func (f *fakeStudentRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.students)
}

// fakeRepository bundles the fake student repo behind the Repository contract.
type fakeRepository struct {
	student *fakeStudentRepo
	pingErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{student: newFakeStudentRepo()}
}

func (f *fakeRepository) Student() repositories.StudentRepository { return f.student }
func (f *fakeRepository) Ping(ctx context.Context) error          { return f.pingErr }
func (f *fakeRepository) Close() error                            { return nil }

func seedStudent(repo *fakeRepository, email string) *models.Student {
	student, err := repo.student.Create(context.Background(), models.StudentDraft{
		Email:     email,
		FirstName: "Seeded",
		LastName:  "Student",
	})
	if err != nil {
		panic(fmt.Sprintf("seed failed: %v", err))
	}
	return student
}
