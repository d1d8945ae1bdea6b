package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
	"github.com/SAP-F-2025/student-service/internal/validator"
)

func newStudentServiceForTest(repo *fakeRepository) StudentService {
	return NewStudentService(repo, testLogger(), validator.New())
}

func TestStudentService_Create(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)

	student, err := svc.Create(context.Background(), &CreateStudentRequest{
		Email:     "Jane.Doe@Example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if student.ID == "" {
		t.Error("no id assigned")
	}
	if student.Email != "jane.doe@example.com" {
		t.Errorf("email not normalized: %q", student.Email)
	}
	if student.Status != models.StatusPending {
		t.Errorf("Status = %q, want PENDING", student.Status)
	}
}

func TestStudentService_Create_DuplicateEmail(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)
	seedStudent(repo, "taken@example.com")

	_, err := svc.Create(context.Background(), &CreateStudentRequest{
		Email:     "taken@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if repo.student.count() != 1 {
		t.Errorf("duplicate create wrote a record")
	}
}

func TestStudentService_Create_Invalid(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)

	_, err := svc.Create(context.Background(), &CreateStudentRequest{Email: "nope"})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("error does not carry violations")
	}
	if len(ve.Violations) == 0 {
		t.Error("no violations reported")
	}
	if repo.student.count() != 0 {
		t.Error("invalid create wrote a record")
	}
}

func TestStudentService_GetByID(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)
	seeded := seedStudent(repo, "jane@example.com")

	got, err := svc.GetByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != seeded.Email {
		t.Errorf("Email = %q, want %q", got.Email, seeded.Email)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestStudentService_Update(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)
	seeded := seedStudent(repo, "jane@example.com")

	name := "Janet"
	got, err := svc.Update(context.Background(), seeded.ID, &UpdateStudentRequest{FirstName: &name})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.FirstName != "Janet" {
		t.Errorf("FirstName = %q, want Janet", got.FirstName)
	}
	if got.LastName != seeded.LastName {
		t.Errorf("untouched field changed: %q", got.LastName)
	}
}

func TestStudentService_Update_EmptyRequest(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)
	seeded := seedStudent(repo, "jane@example.com")

	_, err := svc.Update(context.Background(), seeded.ID, &UpdateStudentRequest{})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
}

func TestStudentService_Update_NotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)

	name := "Janet"
	_, err := svc.Update(context.Background(), "missing", &UpdateStudentRequest{FirstName: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStudentService_Delete(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)
	seeded := seedStudent(repo, "jane@example.com")

	if err := svc.Delete(context.Background(), seeded.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if repo.student.count() != 0 {
		t.Error("record still present after delete")
	}

	if err := svc.Delete(context.Background(), seeded.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestStudentService_List_InvalidLimit(t *testing.T) {
	repo := newFakeRepository()
	svc := newStudentServiceForTest(repo)

	_, err := svc.List(context.Background(), &ListStudentsQuery{Limit: 500})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
}

func TestStudentService_List_BadPageToken(t *testing.T) {
	repo := newFakeRepository()
	repo.student.listErr = fmt.Errorf("%w: illegal base64 data", repositories.ErrInvalidPageToken)
	svc := newStudentServiceForTest(repo)

	_, err := svc.List(context.Background(), &ListStudentsQuery{LastKey: "%%garbage"})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("error does not carry violations")
	}
	if len(ve.Violations) != 1 || ve.Violations[0].Field != "lastKey" {
		t.Errorf("violations = %v, want single lastKey violation", ve.Violations)
	}
}
