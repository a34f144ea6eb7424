package study

import (
	"time"

	"github.com/google/uuid"
)

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptAbandoned  = "abandoned"
)

func ValidAttemptStatus(s string) bool {
	switch s {
	case AttemptInProgress, AttemptCompleted, AttemptAbandoned:
		return true
	}
	return false
}

type Attempt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProblemID uuid.UUID `gorm:"type:uuid;not null;index" json:"problem_id"`
	// Client-assigned dedup key, unique across attempts.
	ClientOpID  string     `gorm:"column:client_op_id;not null;uniqueIndex:idx_study_attempt_client_op" json:"client_op_id"`
	StartedAt   time.Time  `gorm:"column:started_at;not null;index" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Status      string     `gorm:"column:status;not null" json:"status"`
	Passed      bool       `gorm:"column:passed;not null" json:"passed"`
	// Equals the number of Snapshot rows; only ever changed by atomic increment.
	SnapshotCount int       `gorm:"column:snapshot_count;not null" json:"snapshot_count"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (Attempt) TableName() string { return "study_attempt" }

// AttemptPatch is a partial update; nil fields are left untouched.
type AttemptPatch struct {
	Status      *string    `json:"status,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Passed      *bool      `json:"passed,omitempty"`
}

func (p AttemptPatch) Empty() bool {
	return p.Status == nil && p.CompletedAt == nil && p.Passed == nil
}
