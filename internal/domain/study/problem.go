package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Problem is a piece of curriculum content as attempted by exactly one
// learner. Attempts, snapshots, stuck points, reflections and the schedule
// all inherit this owner.
type Problem struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_study_problem_user_title,priority:1" json:"user_id"`
	Title  string    `gorm:"column:title;not null" json:"title"`
	// Cross-reference key against the curriculum catalog.
	NormalizedTitle string         `gorm:"column:normalized_title;not null;uniqueIndex:idx_study_problem_user_title,priority:2" json:"normalized_title"`
	SourcePlatform  string         `gorm:"column:source_platform" json:"source_platform,omitempty"`
	SourceURL       string         `gorm:"column:source_url" json:"source_url,omitempty"`
	Pattern         string         `gorm:"column:pattern;index" json:"pattern,omitempty"`
	Difficulty      string         `gorm:"column:difficulty" json:"difficulty,omitempty"`
	Tags            datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (Problem) TableName() string { return "study_problem" }
