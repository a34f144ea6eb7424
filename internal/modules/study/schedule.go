package study

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/modules/study/srs"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

// ScheduleInput sets a problem's schedule directly.
type ScheduleInput struct {
	NextReviewAt   time.Time  `json:"next_review_at"`
	IntervalDays   float64    `json:"interval_days"`
	EaseFactor     float64    `json:"ease_factor"`
	ReviewCount    int        `json:"review_count"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

func (in ScheduleInput) validate() error {
	if in.NextReviewAt.IsZero() {
		return apierr.Validation("missing_next_review_at", "next_review_at is required")
	}
	if math.IsNaN(in.IntervalDays) || in.IntervalDays <= 0 || in.IntervalDays > srs.MaxIntervalDays {
		return apierr.Validation("invalid_interval_days", "interval_days must be in (0, %v]", srs.MaxIntervalDays)
	}
	if math.IsNaN(in.EaseFactor) || in.EaseFactor < srs.MinEase || in.EaseFactor > srs.MaxEase {
		return apierr.Validation("invalid_ease_factor", "ease_factor must be in [%v, %v]", srs.MinEase, srs.MaxEase)
	}
	if in.ReviewCount < 0 {
		return apierr.Validation("invalid_review_count", "review_count must be >= 0")
	}
	return nil
}

// UpsertSchedule creates or overwrites the problem's only schedule record.
func (u Usecases) UpsertSchedule(ctx context.Context, userID, problemID uuid.UUID, in ScheduleInput) (*types.ScheduleRecord, error) {
	ctx, span := u.startSpan(ctx, "UpsertSchedule")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := u.AuthorizeProblem(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	rec, err := u.deps.Schedules.Upsert(dbctx.Context{Ctx: ctx}, &types.ScheduleRecord{
		ProblemID:      p.ID,
		NextReviewAt:   in.NextReviewAt,
		IntervalDays:   in.IntervalDays,
		EaseFactor:     in.EaseFactor,
		ReviewCount:    in.ReviewCount,
		LastReviewedAt: in.LastReviewedAt,
	})
	if err != nil {
		u.deps.Log.Error("upsert schedule failed", "op", "UpsertSchedule", "problem_id", p.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "upsert_schedule_failed", err)
	}
	return rec, nil
}

// ReviewProblem runs one review outcome through the scheduler and stores the
// result. Reviews of the same problem are serialized on the problem row.
func (u Usecases) ReviewProblem(ctx context.Context, userID, problemID uuid.UUID, outcome srs.Outcome) (*types.ScheduleRecord, error) {
	ctx, span := u.startSpan(ctx, "ReviewProblem")
	defer span.End()

	if !srs.ValidResult(outcome.Result) {
		return nil, apierr.Validation("invalid_result", "unsupported result %q", outcome.Result)
	}
	if outcome.Confidence != "" && !types.ValidConfidence(string(outcome.Confidence)) {
		return nil, apierr.Validation("invalid_confidence", "unsupported confidence %q", outcome.Confidence)
	}
	if math.IsNaN(outcome.Multiplier) || outcome.Multiplier < 0 {
		return nil, apierr.Validation("invalid_multiplier", "multiplier must be > 0 when set")
	}
	p, err := u.AuthorizeProblem(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}

	var out *types.ScheduleRecord
	err = u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := u.deps.Problems.GetByIDForUpdate(dbc, p.ID); err != nil {
			return err
		}
		cur, err := u.deps.Schedules.GetByProblemIDForUpdate(dbc, p.ID)
		if err != nil {
			return err
		}
		var state *srs.State
		if cur != nil {
			state = &srs.State{
				IntervalDays:   cur.IntervalDays,
				EaseFactor:     cur.EaseFactor,
				ReviewCount:    cur.ReviewCount,
				NextReviewAt:   cur.NextReviewAt,
				LastReviewedAt: cur.LastReviewedAt,
			}
		}
		next := srs.Next(state, outcome, types.StoreTime(u.now()))
		out, err = u.deps.Schedules.Upsert(dbc, &types.ScheduleRecord{
			ProblemID:      p.ID,
			NextReviewAt:   next.NextReviewAt,
			IntervalDays:   next.IntervalDays,
			EaseFactor:     next.EaseFactor,
			ReviewCount:    next.ReviewCount,
			LastReviewedAt: next.LastReviewedAt,
		})
		return err
	})
	if err != nil {
		u.deps.Log.Error("review problem failed", "op", "ReviewProblem", "problem_id", p.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "review_failed", err)
	}
	if u.deps.Metrics != nil {
		u.deps.Metrics.ReviewOutcome(string(outcome.Result))
	}
	return out, nil
}
