package study

import (
	"time"

	"github.com/google/uuid"
)

const (
	TriggerRun    = "run"
	TriggerSubmit = "submit"

	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"

	ActionThinkMore    = "think_more"
	ActionCheckHint    = "check_hint"
	ActionAskAI        = "ask_ai"
	ActionViewSolution = "view_solution"

	ReflectionThought   = "thought"
	ReflectionAha       = "aha"
	ReflectionStuck     = "stuck"
	ReflectionPostSolve = "post_solve"

	ConfidenceEasy     = "easy"
	ConfidenceModerate = "moderate"
	ConfidenceLucky    = "lucky"
)

func ValidTrigger(s string) bool { return s == TriggerRun || s == TriggerSubmit }

func ValidTestOutcome(s string) bool {
	return s == OutcomePass || s == OutcomeFail || s == OutcomeError
}

func ValidIntendedAction(s string) bool {
	switch s {
	case ActionThinkMore, ActionCheckHint, ActionAskAI, ActionViewSolution:
		return true
	}
	return false
}

func ValidReflectionType(s string) bool {
	switch s {
	case ReflectionThought, ReflectionAha, ReflectionStuck, ReflectionPostSolve:
		return true
	}
	return false
}

func ValidConfidence(s string) bool {
	switch s {
	case ConfidenceEasy, ConfidenceModerate, ConfidenceLucky:
		return true
	}
	return false
}

// Snapshot is an immutable capture of code at a Run/Submit action.
type Snapshot struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID   uuid.UUID `gorm:"type:uuid;not null;index" json:"attempt_id"`
	ClientOpID  string    `gorm:"column:client_op_id;not null;uniqueIndex:idx_study_snapshot_client_op" json:"client_op_id"`
	CapturedAt  time.Time `gorm:"column:captured_at;not null;index" json:"captured_at"`
	Trigger     string    `gorm:"column:trigger_kind;not null" json:"trigger"`
	Code        string    `gorm:"column:code;type:text" json:"code"`
	TestOutcome *string   `gorm:"column:test_outcome" json:"test_outcome,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Snapshot) TableName() string { return "study_snapshot" }

type StuckPoint struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID      uuid.UUID `gorm:"type:uuid;not null;index" json:"attempt_id"`
	ClientOpID     string    `gorm:"column:client_op_id;not null;uniqueIndex:idx_study_stuck_point_client_op" json:"client_op_id"`
	OccurredAt     time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	Description    string    `gorm:"column:description;type:text;not null" json:"description"`
	CodeSnapshot   *string   `gorm:"column:code_snapshot;type:text" json:"code_snapshot,omitempty"`
	IntendedAction *string   `gorm:"column:intended_action" json:"intended_action,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (StuckPoint) TableName() string { return "study_stuck_point" }

type Reflection struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID    uuid.UUID `gorm:"type:uuid;not null;index" json:"attempt_id"`
	ClientOpID   string    `gorm:"column:client_op_id;not null;uniqueIndex:idx_study_reflection_client_op" json:"client_op_id"`
	OccurredAt   time.Time `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	Type         string    `gorm:"column:type;not null" json:"type"`
	Content      string    `gorm:"column:content;type:text;not null" json:"content"`
	CodeSnapshot *string   `gorm:"column:code_snapshot;type:text" json:"code_snapshot,omitempty"`
	// Shown back to the learner on a future review.
	ColdHint   *string   `gorm:"column:cold_hint;type:text" json:"cold_hint,omitempty"`
	Confidence *string   `gorm:"column:confidence" json:"confidence,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Reflection) TableName() string { return "study_reflection" }

// DedupBinding records which row and parent a client_op_id resolved to.
type DedupBinding struct {
	ID       uuid.UUID `json:"id"`
	ParentID uuid.UUID `json:"parent_id"`
}
