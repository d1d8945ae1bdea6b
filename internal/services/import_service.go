package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/student-service/internal/storage"
	"github.com/SAP-F-2025/student-service/internal/validator"
)

// Columns recognized in the header row of an import workbook. Unknown
// columns are carried into the item's metadata bag.
const (
	columnEmail      = "email"
	columnFirstName  = "first_name"
	columnLastName   = "last_name"
	columnProgramID  = "program_id"
	columnEmployerID = "employer_id"
)

type importService struct {
	objects storage.ObjectStorage
	logger  *slog.Logger
}

// NewImportService creates the xlsx batch import service.
func NewImportService(objects storage.ObjectStorage, logger *slog.Logger) ImportService {
	return &importService{
		objects: objects,
		logger:  logger,
	}
}

// ParseWorkbook reads the first sheet of an xlsx workbook into a batch
// request. Row-level validation happens later in the orchestrator, same as a
// JSON submission.
func (s *importService) ParseWorkbook(r io.Reader) (*BatchCreateRequest, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	req := &BatchCreateRequest{Parallel: true}
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		req.Students = append(req.Students, rowToStudent(header, row))
	}

	if len(req.Students) == 0 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	return req, nil
}

// Archive stores the raw upload for later auditing and returns its key.
func (s *importService) Archive(ctx context.Context, filename string, r io.Reader) (string, error) {
	key := fmt.Sprintf("imports/%s/%s-%s",
		time.Now().UTC().Format("2006-01-02"),
		uuid.New().String(),
		sanitizeFilename(filename))

	if err := s.objects.Put(ctx, key, r); err != nil {
		return "", fmt.Errorf("failed to archive import file: %w", err)
	}

	s.logger.InfoContext(ctx, "import file archived", "key", key)

	return key, nil
}

func rowToStudent(header, row []string) validator.StudentCreateRequest {
	student := validator.StudentCreateRequest{}

	for i, column := range header {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}

		switch column {
		case columnEmail:
			student.Email = value
		case columnFirstName:
			student.FirstName = value
		case columnLastName:
			student.LastName = value
		case columnProgramID:
			v := value
			student.ProgramID = &v
		case columnEmployerID:
			v := value
			student.EmployerID = &v
		default:
			if student.Metadata == nil {
				student.Metadata = make(map[string]interface{})
			}
			student.Metadata[column] = value
		}
	}

	return student
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload.xlsx"
	}
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name
}
