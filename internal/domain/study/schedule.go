package study

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleRecord is the spaced-repetition state of a problem. There is at
// most one row per problem; it is only ever written by upsert.
type ScheduleRecord struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProblemID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_study_schedule_problem" json:"problem_id"`
	NextReviewAt   time.Time  `gorm:"column:next_review_at;not null;index" json:"next_review_at"`
	IntervalDays   float64    `gorm:"column:interval_days;not null" json:"interval_days"`
	EaseFactor     float64    `gorm:"column:ease_factor;not null" json:"ease_factor"`
	ReviewCount    int        `gorm:"column:review_count;not null" json:"review_count"`
	LastReviewedAt *time.Time `gorm:"column:last_reviewed_at" json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (ScheduleRecord) TableName() string { return "study_schedule" }

// DueReview pairs a due schedule record with its problem's display fields.
type DueReview struct {
	Problem  *Problem        `json:"problem"`
	Schedule *ScheduleRecord `json:"schedule"`
}

// DueCursor is the keyset position after the last record of a due page.
type DueCursor struct {
	NextReviewAt time.Time
	ID           uuid.UUID
}
