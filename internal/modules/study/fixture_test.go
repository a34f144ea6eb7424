package study

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	"github.com/yungbote/lattice-backend/internal/data/repos"
	"github.com/yungbote/lattice-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lattice-backend/internal/domain/study"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type countingRecorder struct {
	mu      sync.Mutex
	created map[string]int
	dup     map[string]int
	reviews map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{created: map[string]int{}, dup: map[string]int{}, reviews: map[string]int{}}
}

func (r *countingRecorder) IngestResult(entity string, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if created {
		r.created[entity]++
	} else {
		r.dup[entity]++
	}
}

func (r *countingRecorder) ReviewOutcome(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[result]++
}

type memDedup struct {
	mu   sync.Mutex
	m    map[string]types.DedupBinding
	puts int
}

func (c *memDedup) Get(_ context.Context, entity, key string) (types.DedupBinding, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[entity+":"+key]
	return b, ok, nil
}

func (c *memDedup) Put(_ context.Context, entity, key string, b types.DedupBinding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]types.DedupBinding{}
	}
	c.m[entity+":"+key] = b
	c.puts++
	return nil
}

type fixture struct {
	u   Usecases
	db  *gorm.DB
	rec *countingRecorder
	ctx context.Context
}

func newFixture(t *testing.T, mutate ...func(*UsecasesDeps)) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rec := newCountingRecorder()
	deps := UsecasesDeps{
		DB:          db,
		Log:         log,
		Problems:    repos.NewProblemRepo(db, log),
		Attempts:    repos.NewAttemptRepo(db, log),
		Snapshots:   repos.NewSnapshotRepo(db, log),
		StuckPoints: repos.NewStuckPointRepo(db, log),
		Reflections: repos.NewReflectionRepo(db, log),
		Schedules:   repos.NewScheduleRepo(db, log),
		Catalog:     curriculum.FromEntries(nil),
		Metrics:     rec,
		Now:         func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&deps)
	}
	return &fixture{u: New(deps), db: db, rec: rec, ctx: context.Background()}
}

// startAttempt creates a problem and an attempt for user.
func (f *fixture) startAttempt(t *testing.T, user uuid.UUID, title string) (problemID, attemptID uuid.UUID) {
	t.Helper()
	p, err := f.u.EnsureProblem(f.ctx, user, ProblemInput{Title: title})
	if err != nil {
		t.Fatalf("EnsureProblem: %v", err)
	}
	res, err := f.u.RecordAttempt(f.ctx, user, RecordAttemptInput{ProblemID: p.ID, ClientOpID: uuid.NewString()})
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	return p.ID, res.ID
}

func strPtr(s string) *string { return &s }
