package postgres

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/student-service/internal/cache"
	"github.com/SAP-F-2025/student-service/internal/models"
	"github.com/SAP-F-2025/student-service/internal/repositories"
)

// studentPostgreSQL implements repositories.StudentRepository over a plain
// primary-key table. The source system's composite (id, createdAt) key and
// its resolve-then-act step are unnecessary here; callers see the same
// atomic-looking operations either way.
type studentPostgreSQL struct {
	db          *gorm.DB
	cacheHelper *cache.CacheHelper
}

// NewStudentPostgreSQL creates a new student repository with optional caching
func NewStudentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.StudentRepository {
	return &studentPostgreSQL{
		db:          db,
		cacheHelper: cache.NewCacheHelper(redisClient, "students:"),
	}
}

// Create generates the id, stamps timestamps and the TTL hint, and writes
// with the primary-key guard standing in for the conditional "not exists"
// check. Email uniqueness is the caller's responsibility.
func (r *studentPostgreSQL) Create(ctx context.Context, draft models.StudentDraft) (*models.Student, error) {
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
		ExpiresAt:  now.AddDate(1, 0, 0).Unix(),
		Metadata:   datatypes.JSONMap(draft.Metadata),
	}

	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, repositories.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	return student, nil
}

// GetByID retrieves a student by id, read-through cached.
func (r *studentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Student, error) {
	var cached models.Student
	if err := r.cacheHelper.Get(ctx, idKey(id), &cached); err == nil {
		return &cached, nil
	}

	var student models.Student
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	// Cache failures never fail the read.
	_ = r.cacheHelper.Set(ctx, idKey(id), &student, cache.StudentCacheConfig.TTL)

	return &student, nil
}

// GetByEmail performs a point query against the email index.
func (r *studentPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get student by email: %w", err)
	}

	return &student, nil
}

// Update applies only the supplied fields and always refreshes updated_at.
// Fails not-found if the record disappeared before the write (optimistic,
// not transactional).
func (r *studentPostgreSQL) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update student: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}

	cache.SafeDelete(ctx, r.cacheHelper, idKey(id))

	var student models.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to reload student: %w", err)
	}

	return &student, nil
}

// Delete hard-deletes the record, returning false if it was already gone.
func (r *studentPostgreSQL) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Student{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete student: %w", res.Error)
	}

	cache.SafeDelete(ctx, r.cacheHelper, idKey(id))

	return res.RowsAffected > 0, nil
}

// List selects an access path based on which filter is present and paginates
// with an opaque keyset cursor ordered by creation time.
func (r *studentPostgreSQL) List(ctx context.Context, filters repositories.StudentFilters) (*repositories.StudentList, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&models.Student{})

	switch {
	case filters.Status != nil:
		query = query.Where("status = ?", *filters.Status)
	case filters.EmployerID != nil:
		query = query.Where("employer_id = ?", *filters.EmployerID)
	case filters.ProgramID != nil:
		query = query.Where("program_id = ?", *filters.ProgramID)
	}

	if filters.LastKey != "" {
		cursor, err := decodePageToken(filters.LastKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", repositories.ErrInvalidPageToken, err)
		}
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var students []*models.Student
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	hasMore := len(students) > limit
	if hasMore {
		students = students[:limit]
	}

	list := &repositories.StudentList{
		Records: students,
		Count:   len(students),
		HasMore: hasMore,
	}
	if hasMore {
		last := students[len(students)-1]
		list.NextPageToken = encodePageToken(pageCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return list, nil
}

// BatchCreate applies Create to each draft independently, preserving the
// per-item failure reason.
func (r *studentPostgreSQL) BatchCreate(ctx context.Context, drafts []models.StudentDraft) (*repositories.BatchCreateResult, error) {
	result := &repositories.BatchCreateResult{}

	for _, draft := range drafts {
		student, err := r.Create(ctx, draft)
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

// pageCursor is the decoded form of the opaque pagination token.
type pageCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func encodePageToken(c pageCursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodePageToken(token string) (pageCursor, error) {
	var c pageCursor
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.ID == "" {
		return c, fmt.Errorf("cursor missing id")
	}
	return c, nil
}

func idKey(id string) string { return "id:" + id }
