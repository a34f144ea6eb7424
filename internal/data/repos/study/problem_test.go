package study

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lattice-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

func TestProblemRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProblemRepo(db, testutil.Logger(t))

	userID := uuid.New()
	otherUser := uuid.New()

	p, created, err := repo.FindOrCreate(dbc, &types.Problem{UserID: userID, Title: "Two Sum", NormalizedTitle: "two sum"})
	if err != nil || !created || p == nil {
		t.Fatalf("FindOrCreate: created=%v err=%v", created, err)
	}

	again, created, err := repo.FindOrCreate(dbc, &types.Problem{UserID: userID, Title: "TWO  SUM", NormalizedTitle: "two sum"})
	if err != nil || created || again == nil || again.ID != p.ID {
		t.Fatalf("FindOrCreate replay: created=%v err=%v row=%+v", created, err, again)
	}

	// Same title under another owner is a separate problem.
	theirs, created, err := repo.FindOrCreate(dbc, &types.Problem{UserID: otherUser, Title: "Two Sum", NormalizedTitle: "two sum"})
	if err != nil || !created || theirs.ID == p.ID {
		t.Fatalf("FindOrCreate other owner: created=%v err=%v", created, err)
	}

	if got, err := repo.GetByID(dbc, p.ID); err != nil || got == nil || got.Title != "Two Sum" {
		t.Fatalf("GetByID: err=%v row=%+v", err, got)
	}
	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID missing: err=%v row=%+v", err, got)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{p.ID, theirs.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	testutil.SeedProblem(t, ctx, tx, userID, "binary search")
	rows, err := repo.ListByUser(dbc, userID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
	if rows[0].NormalizedTitle != "binary search" || rows[1].NormalizedTitle != "two sum" {
		t.Fatalf("ListByUser order: %q, %q", rows[0].NormalizedTitle, rows[1].NormalizedTitle)
	}
}

func TestProblemRepo_FindOrCreateConcurrent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewProblemRepo(db, testutil.Logger(t))
	userID := uuid.New()

	const n = 8
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := repo.FindOrCreate(dbctx.Context{Ctx: ctx}, &types.Problem{UserID: userID, Title: "Race", NormalizedTitle: "race"})
			errs[i] = err
			if p != nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("FindOrCreate[%d]: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("FindOrCreate[%d] returned %s, want %s", i, ids[i], ids[0])
		}
	}
	rows, err := repo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
}
