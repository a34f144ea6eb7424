package study

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

// AuthorizeProblem loads the problem and checks that userID owns it.
func (u Usecases) AuthorizeProblem(ctx context.Context, userID, problemID uuid.UUID) (*types.Problem, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthenticated()
	}
	if problemID == uuid.Nil {
		return nil, apierr.NotFound("problem_not_found")
	}
	p, err := u.deps.Problems.GetByID(dbctx.Context{Ctx: ctx}, problemID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_problem_failed", err)
	}
	if p == nil {
		return nil, apierr.NotFound("problem_not_found")
	}
	if p.UserID != userID {
		return nil, apierr.Forbidden("problem_forbidden")
	}
	return p, nil
}

// AuthorizeAttempt resolves attempt -> problem -> owner.
func (u Usecases) AuthorizeAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*types.Attempt, *types.Problem, error) {
	if userID == uuid.Nil {
		return nil, nil, apierr.Unauthenticated()
	}
	if attemptID == uuid.Nil {
		return nil, nil, apierr.NotFound("attempt_not_found")
	}
	a, err := u.deps.Attempts.GetByID(dbctx.Context{Ctx: ctx}, attemptID)
	if err != nil {
		return nil, nil, apierr.New(http.StatusInternalServerError, "load_attempt_failed", err)
	}
	if a == nil {
		return nil, nil, apierr.NotFound("attempt_not_found")
	}
	p, err := u.deps.Problems.GetByID(dbctx.Context{Ctx: ctx}, a.ProblemID)
	if err != nil {
		return nil, nil, apierr.New(http.StatusInternalServerError, "load_problem_failed", err)
	}
	if p == nil {
		// Orphaned attempt; nobody can own it.
		return nil, nil, apierr.NotFound("attempt_not_found")
	}
	if p.UserID != userID {
		return nil, nil, apierr.Forbidden("attempt_forbidden")
	}
	return a, p, nil
}
