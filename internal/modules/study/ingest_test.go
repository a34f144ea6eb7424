package study

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

func TestRecordAttempt_Idempotent(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	key := uuid.NewString()

	first, err := f.u.RecordAttempt(f.ctx, user, RecordAttemptInput{Title: "Two Sum", ClientOpID: key})
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := f.u.RecordAttempt(f.ctx, user, RecordAttemptInput{Title: "two   sum", ClientOpID: key})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	problems, err := f.u.deps.Problems.ListByUser(dbctx.Context{Ctx: f.ctx}, user)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "two sum", problems[0].NormalizedTitle)
	assert.Equal(t, 1, f.rec.created[EntityAttempt])
	assert.Equal(t, 1, f.rec.dup[EntityAttempt])
}

func TestRecordAttempt_Validation(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	_, err := f.u.RecordAttempt(f.ctx, user, RecordAttemptInput{Title: "x"})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))

	_, err = f.u.RecordAttempt(f.ctx, user, RecordAttemptInput{ClientOpID: "k"})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))

	_, err = f.u.RecordAttempt(f.ctx, uuid.Nil, RecordAttemptInput{Title: "x", ClientOpID: "k"})
	assert.True(t, apierr.Is(err, apierr.KindUnauthenticated))
}

func TestRecordSnapshot_CounterMatchesRowsAndReplayIsNoop(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	_, attemptID := f.startAttempt(t, user, "Two Sum")

	const n = 4
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = uuid.NewString()
		res, err := f.u.RecordSnapshot(f.ctx, user, RecordSnapshotInput{
			AttemptID:  attemptID,
			ClientOpID: keys[i],
			Trigger:    "Run",
			Code:       "print(1)",
		})
		require.NoError(t, err)
		require.True(t, res.Created)
	}

	replay, err := f.u.RecordSnapshot(f.ctx, user, RecordSnapshotInput{
		AttemptID:  attemptID,
		ClientOpID: keys[1],
		Trigger:    types.TriggerSubmit,
		Code:       "different",
	})
	require.NoError(t, err)
	assert.False(t, replay.Created)

	dbc := dbctx.Context{Ctx: f.ctx}
	a, err := f.u.deps.Attempts.GetByID(dbc, attemptID)
	require.NoError(t, err)
	count, err := f.u.deps.Snapshots.CountByAttemptID(dbc, attemptID)
	require.NoError(t, err)
	assert.Equal(t, n, a.SnapshotCount)
	assert.Equal(t, int64(n), count)
}

func TestRecordSnapshot_ConcurrentSameKey(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	_, attemptID := f.startAttempt(t, user, "Two Sum")
	key := uuid.NewString()

	const workers = 8
	results := make([]IngestResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.u.RecordSnapshot(f.ctx, user, RecordSnapshotInput{
				AttemptID:  attemptID,
				ClientOpID: key,
				Trigger:    types.TriggerRun,
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
		if results[i].Created {
			created++
		}
	}
	assert.Equal(t, 1, created)

	a, err := f.u.deps.Attempts.GetByID(dbctx.Context{Ctx: f.ctx}, attemptID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.SnapshotCount)
}

func TestIngest_KeyReusedForOtherParentConflicts(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	_, a1 := f.startAttempt(t, user, "Two Sum")
	_, a2 := f.startAttempt(t, user, "Three Sum")
	key := uuid.NewString()

	_, err := f.u.RecordStuckPoint(f.ctx, user, RecordStuckPointInput{AttemptID: a1, ClientOpID: key, Description: "stuck"})
	require.NoError(t, err)

	_, err = f.u.RecordStuckPoint(f.ctx, user, RecordStuckPointInput{AttemptID: a2, ClientOpID: key, Description: "stuck"})
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.KindConflict))
}

func TestIngest_DedupCacheShortCircuits(t *testing.T) {
	cache := &memDedup{}
	f := newFixture(t, func(d *UsecasesDeps) { d.Dedup = cache })
	user := uuid.New()
	_, attemptID := f.startAttempt(t, user, "Two Sum")
	key := uuid.NewString()

	in := RecordReflectionInput{AttemptID: attemptID, ClientOpID: key, Type: "aha", Content: "two pointers", Confidence: strPtr("Easy")}
	first, err := f.u.RecordReflection(f.ctx, user, in)
	require.NoError(t, err)
	require.True(t, first.Created)

	b, ok, _ := cache.Get(f.ctx, EntityReflection, key)
	require.True(t, ok)
	assert.Equal(t, first.ID, b.ID)
	assert.Equal(t, attemptID, b.ParentID)

	second, err := f.u.RecordReflection(f.ctx, user, in)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	row, err := f.u.deps.Reflections.GetByClientOpID(dbctx.Context{Ctx: f.ctx}, key)
	require.NoError(t, err)
	require.NotNil(t, row.Confidence)
	assert.Equal(t, types.ConfidenceEasy, *row.Confidence)
}

func TestRecordEvents_Validation(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	_, attemptID := f.startAttempt(t, user, "Two Sum")

	_, err := f.u.RecordSnapshot(f.ctx, user, RecordSnapshotInput{AttemptID: attemptID, ClientOpID: "k1", Trigger: "compile"})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))

	_, err = f.u.RecordSnapshot(f.ctx, user, RecordSnapshotInput{AttemptID: attemptID, ClientOpID: "k2", Trigger: "run", TestOutcome: strPtr("timeout")})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))

	_, err = f.u.RecordStuckPoint(f.ctx, user, RecordStuckPointInput{AttemptID: attemptID, ClientOpID: "k3", Description: "x", IntendedAction: strPtr("give_up")})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))

	_, err = f.u.RecordReflection(f.ctx, user, RecordReflectionInput{AttemptID: attemptID, ClientOpID: "k4", Type: "thought"})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))

	_, err = f.u.RecordReflection(f.ctx, user, RecordReflectionInput{AttemptID: attemptID, ClientOpID: "", Type: "thought", Content: "c"})
	assert.True(t, apierr.Is(err, apierr.KindValidationFailed))
}

type memRow struct {
	id, parent uuid.UUID
}

// A leader whose request is cancelled mid-insert still completes the shared
// create, and a follower on the same key gets the stored row.
func TestResolveIngest_LeaderCancelDoesNotFailFollowers(t *testing.T) {
	f := newFixture(t)
	parent := uuid.New()

	var (
		mu      sync.Mutex
		stored  *memRow
		once    sync.Once
		entered = make(chan struct{})
		release = make(chan struct{})
	)
	op := ingestOp[memRow]{
		entity:   "test",
		key:      uuid.NewString(),
		parentID: parent,
		lookup: func(dbc dbctx.Context, key string) (*memRow, error) {
			mu.Lock()
			defer mu.Unlock()
			return stored, nil
		},
		idOf:     func(r *memRow) uuid.UUID { return r.id },
		parentOf: func(r *memRow) uuid.UUID { return r.parent },
		create: func(ctx context.Context) (bool, error) {
			once.Do(func() { close(entered) })
			<-release
			if err := ctx.Err(); err != nil {
				return false, err
			}
			mu.Lock()
			defer mu.Unlock()
			if stored != nil {
				return false, nil
			}
			stored = &memRow{id: uuid.New(), parent: parent}
			return true, nil
		},
	}

	leaderCtx, cancel := context.WithCancel(f.ctx)
	type outcome struct {
		res IngestResult
		err error
	}
	leaderDone := make(chan outcome, 1)
	go func() {
		res, err := resolveIngest(f.u, leaderCtx, op)
		leaderDone <- outcome{res, err}
	}()
	<-entered

	followerDone := make(chan outcome, 1)
	go func() {
		res, err := resolveIngest(f.u, f.ctx, op)
		followerDone <- outcome{res, err}
	}()
	// Give the follower time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	leader := <-leaderDone
	follower := <-followerDone
	require.NoError(t, leader.err)
	require.NoError(t, follower.err)
	assert.True(t, leader.res.Created)
	assert.False(t, follower.res.Created)
	assert.Equal(t, leader.res.ID, follower.res.ID)
	require.NotNil(t, stored)
	assert.Equal(t, stored.id, leader.res.ID)
}
