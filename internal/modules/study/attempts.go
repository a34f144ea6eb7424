package study

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

type RecordAttemptInput struct {
	// Either ProblemID or Title; Title find-or-creates the problem.
	ProblemID  uuid.UUID
	Title      string
	ClientOpID string
	StartedAt  *time.Time
}

func (u Usecases) RecordAttempt(ctx context.Context, userID uuid.UUID, in RecordAttemptInput) (IngestResult, error) {
	ctx, span := u.startSpan(ctx, "RecordAttempt")
	defer span.End()

	if userID == uuid.Nil {
		return IngestResult{}, apierr.Unauthenticated()
	}
	key, err := normalizeClientOpID(in.ClientOpID)
	if err != nil {
		return IngestResult{}, err
	}

	var problem *types.Problem
	switch {
	case in.ProblemID != uuid.Nil:
		problem, err = u.AuthorizeProblem(ctx, userID, in.ProblemID)
	case in.Title != "":
		problem, err = u.EnsureProblem(ctx, userID, ProblemInput{Title: in.Title})
	default:
		return IngestResult{}, apierr.Validation("missing_problem", "problem_id or title is required")
	}
	if err != nil {
		return IngestResult{}, err
	}

	startedAt := u.now()
	if in.StartedAt != nil && !in.StartedAt.IsZero() {
		startedAt = *in.StartedAt
	}

	return resolveIngest(u, ctx, ingestOp[types.Attempt]{
		entity:   EntityAttempt,
		key:      key,
		parentID: problem.ID,
		lookup:   u.deps.Attempts.GetByClientOpID,
		idOf:     func(a *types.Attempt) uuid.UUID { return a.ID },
		parentOf: func(a *types.Attempt) uuid.UUID { return a.ProblemID },
		create: func(ctx context.Context) (bool, error) {
			return u.deps.Attempts.CreateIgnoreDuplicate(dbctx.Context{Ctx: ctx}, &types.Attempt{
				ProblemID:  problem.ID,
				ClientOpID: key,
				StartedAt:  types.StoreTime(startedAt),
				Status:     types.AttemptInProgress,
			})
		},
	})
}

// UpdateAttempt applies a partial update. Completing an attempt without a
// completion time stamps it with the current time.
func (u Usecases) UpdateAttempt(ctx context.Context, userID, attemptID uuid.UUID, patch types.AttemptPatch) (*types.Attempt, error) {
	ctx, span := u.startSpan(ctx, "UpdateAttempt")
	defer span.End()

	if patch.Status != nil && !types.ValidAttemptStatus(*patch.Status) {
		return nil, apierr.Validation("invalid_status", "unsupported status %q", *patch.Status)
	}
	a, _, err := u.AuthorizeAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if patch.CompletedAt != nil && patch.CompletedAt.Before(a.StartedAt) {
		return nil, apierr.Validation("invalid_completed_at", "completed_at precedes started_at")
	}
	if patch.Status != nil && *patch.Status == types.AttemptCompleted && patch.CompletedAt == nil && a.CompletedAt == nil {
		now := u.now()
		patch.CompletedAt = &now
	}
	if patch.Empty() {
		return a, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	if err := u.deps.Attempts.ApplyPatch(dbc, a.ID, patch); err != nil {
		u.deps.Log.Error("update attempt failed", "op", "UpdateAttempt", "attempt_id", a.ID, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "update_attempt_failed", err)
	}
	out, err := u.deps.Attempts.GetByID(dbc, a.ID)
	if err != nil || out == nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_attempt_failed", err)
	}
	return out, nil
}
