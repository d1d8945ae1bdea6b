package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentStatus represents the lifecycle status of a student record.
type StudentStatus string

const (
	StatusPending   StudentStatus = "PENDING"
	StatusActive    StudentStatus = "ACTIVE"
	StatusInactive  StudentStatus = "INACTIVE"
	StatusSuspended StudentStatus = "SUSPENDED"
	StatusGraduated StudentStatus = "GRADUATED"
)

// ValidStatuses lists every accepted status value. Transitions between
// statuses are deliberately unconstrained.
var ValidStatuses = []StudentStatus{
	StatusPending,
	StatusActive,
	StatusInactive,
	StatusSuspended,
	StatusGraduated,
}

// IsValidStatus reports whether s is one of the known status values.
func IsValidStatus(s StudentStatus) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Student is the sole persisted entity. ID is assigned at creation and never
// changes; Email uniqueness is checked by the service layer before creation,
// not enforced by the schema.
type Student struct {
	ID         string            `json:"id" gorm:"primaryKey;size:36"`
	Email      string            `json:"email" gorm:"index;size:320;not null"`
	FirstName  string            `json:"firstName" gorm:"size:100;not null"`
	LastName   string            `json:"lastName" gorm:"size:100;not null"`
	ProgramID  *string           `json:"programId,omitempty" gorm:"size:64"`
	EmployerID *string           `json:"employerId,omitempty" gorm:"index;size:64"`
	Status     StudentStatus     `json:"status" gorm:"index;size:16;not null"`
	CreatedAt  time.Time         `json:"createdAt" gorm:"index;autoCreateTime:false"`
	UpdatedAt  time.Time         `json:"updatedAt" gorm:"autoUpdateTime:false"`
	ExpiresAt  int64             `json:"ttl" gorm:"column:ttl"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
}

func (Student) TableName() string {
	return "students"
}
