package study

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/modules/study/srs"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
)

func TestOwnership(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	intruder := uuid.New()
	problemID, attemptID := f.startAttempt(t, owner, "Two Sum")

	_, _, err := f.u.AuthorizeAttempt(f.ctx, intruder, attemptID)
	assert.True(t, apierr.Is(err, apierr.KindForbidden))

	_, _, err = f.u.AuthorizeAttempt(f.ctx, owner, uuid.New())
	assert.True(t, apierr.Is(err, apierr.KindNotFound))

	_, err = f.u.AuthorizeProblem(f.ctx, uuid.Nil, problemID)
	assert.True(t, apierr.Is(err, apierr.KindUnauthenticated))

	_, err = f.u.RecordSnapshot(f.ctx, intruder, RecordSnapshotInput{AttemptID: attemptID, ClientOpID: uuid.NewString(), Trigger: "run"})
	assert.True(t, apierr.Is(err, apierr.KindForbidden))

	_, err = f.u.RecordAttempt(f.ctx, intruder, RecordAttemptInput{ProblemID: problemID, ClientOpID: uuid.NewString()})
	assert.True(t, apierr.Is(err, apierr.KindForbidden))

	_, err = f.u.ReviewProblem(f.ctx, intruder, problemID, srs.Outcome{Result: srs.Cold})
	assert.True(t, apierr.Is(err, apierr.KindForbidden))

	_, err = f.u.UpdateAttempt(f.ctx, intruder, attemptID, types.AttemptPatch{Status: strPtr(types.AttemptAbandoned)})
	assert.True(t, apierr.Is(err, apierr.KindForbidden))

	a, _, err := f.u.AuthorizeAttempt(f.ctx, owner, attemptID)
	require.NoError(t, err)
	assert.Equal(t, types.AttemptInProgress, a.Status)
}

func TestUpdateAttempt(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	_, attemptID := f.startAttempt(t, user, "Two Sum")

	passed := true
	a, err := f.u.UpdateAttempt(f.ctx, user, attemptID, types.AttemptPatch{Status: strPtr(types.AttemptCompleted), Passed: &passed})
	require.NoError(t, err)
	assert.Equal(t, types.AttemptCompleted, a.Status)
	assert.True(t, a.Passed)
	require.NotNil(t, a.CompletedAt)
	assert.True(t, a.CompletedAt.Equal(fixedNow))

	// Fields not in the patch are untouched.
	a, err = f.u.UpdateAttempt(f.ctx, user, attemptID, types.AttemptPatch{Status: strPtr(types.AttemptCompleted)})
	require.NoError(t, err)
	assert.True(t, a.Passed)

	_, err = f.u.UpdateAttempt(f.ctx, user, attemptID, types.AttemptPatch{Status: strPtr("paused")})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))
}
