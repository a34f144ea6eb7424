package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
)

func SeedProblem(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) *types.Problem {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Problem{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           title,
		NormalizedTitle: title,
		Tags:            datatypes.JSON([]byte("[]")),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed problem: %v", err)
	}
	return p
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, problemID uuid.UUID, startedAt time.Time) *types.Attempt {
	tb.Helper()
	a := &types.Attempt{
		ID:         uuid.New(),
		ProblemID:  problemID,
		ClientOpID: "seed-" + uuid.NewString(),
		StartedAt:  types.StoreTime(startedAt),
		Status:     types.AttemptInProgress,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

func SeedSchedule(tb testing.TB, ctx context.Context, tx *gorm.DB, problemID uuid.UUID, next time.Time) *types.ScheduleRecord {
	tb.Helper()
	now := time.Now().UTC()
	s := &types.ScheduleRecord{
		ID:           uuid.New(),
		ProblemID:    problemID,
		NextReviewAt: types.StoreTime(next),
		IntervalDays: 1,
		EaseFactor:   2.5,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed schedule: %v", err)
	}
	return s
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }

func PtrBool(v bool) *bool { return &v }
