package study

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lattice-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

func TestScheduleRepo_Upsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScheduleRepo(db, testutil.Logger(t))

	p := testutil.SeedProblem(t, ctx, tx, uuid.New(), "two sum")
	next := time.Now().UTC().Add(72 * time.Hour)

	first, err := repo.Upsert(dbc, &types.ScheduleRecord{ProblemID: p.ID, NextReviewAt: next, IntervalDays: 3, EaseFactor: 2.5})
	if err != nil || first == nil {
		t.Fatalf("Upsert create: err=%v", err)
	}

	reviewed := time.Now().UTC()
	second, err := repo.Upsert(dbc, &types.ScheduleRecord{
		ProblemID:      p.ID,
		NextReviewAt:   next.Add(24 * time.Hour),
		IntervalDays:   9.6,
		EaseFactor:     1.6,
		ReviewCount:    1,
		LastReviewedAt: &reviewed,
	})
	if err != nil || second == nil {
		t.Fatalf("Upsert update: err=%v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("Upsert replaced id: %s != %s", second.ID, first.ID)
	}
	if second.IntervalDays != 9.6 || second.EaseFactor != 1.6 || second.ReviewCount != 1 || second.LastReviewedAt == nil {
		t.Fatalf("Upsert fields not overwritten: %+v", second)
	}

	rows, err := repo.ListByProblemIDs(dbc, []uuid.UUID{p.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByProblemIDs: err=%v len=%d", err, len(rows))
	}
	if got, err := repo.GetByProblemIDForUpdate(dbc, p.ID); err != nil || got == nil || got.ID != first.ID {
		t.Fatalf("GetByProblemIDForUpdate: err=%v", err)
	}
}

func TestScheduleRepo_ListDue(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScheduleRepo(db, testutil.Logger(t))

	userA := uuid.New()
	userB := uuid.New()
	asOf := types.StoreTime(time.Now())

	p1 := testutil.SeedProblem(t, ctx, tx, userA, "a one")
	p2 := testutil.SeedProblem(t, ctx, tx, userA, "a two")
	p3 := testutil.SeedProblem(t, ctx, tx, userA, "a three")
	pb := testutil.SeedProblem(t, ctx, tx, userB, "b one")

	testutil.SeedSchedule(t, ctx, tx, p1.ID, asOf.Add(-2*time.Hour))
	testutil.SeedSchedule(t, ctx, tx, p2.ID, asOf) // exactly at the boundary
	testutil.SeedSchedule(t, ctx, tx, p3.ID, asOf.Add(time.Microsecond))
	testutil.SeedSchedule(t, ctx, tx, pb.ID, asOf.Add(-time.Hour))

	rows, err := repo.ListDue(dbc, userA, asOf, nil, 0)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListDue len=%d, want 2", len(rows))
	}
	if rows[0].ProblemID != p1.ID || rows[1].ProblemID != p2.ID {
		t.Fatalf("ListDue order wrong")
	}

	if n, err := repo.CountDue(dbc, userA, asOf); err != nil || n != 2 {
		t.Fatalf("CountDue: n=%d err=%v", n, err)
	}
	if rows, err := repo.ListDue(dbc, userB, asOf, nil, 0); err != nil || len(rows) != 1 || rows[0].ProblemID != pb.ID {
		t.Fatalf("ListDue other owner: err=%v len=%d", err, len(rows))
	}
	first, err := repo.ListDue(dbc, userA, asOf, nil, 1)
	if err != nil || len(first) != 1 || first[0].ProblemID != p1.ID {
		t.Fatalf("ListDue limit: err=%v len=%d", err, len(first))
	}
	after := &types.DueCursor{NextReviewAt: first[0].NextReviewAt, ID: first[0].ID}
	rest, err := repo.ListDue(dbc, userA, asOf, after, 0)
	if err != nil || len(rest) != 1 || rest[0].ProblemID != p2.ID {
		t.Fatalf("ListDue after cursor: err=%v len=%d", err, len(rest))
	}
}

func TestScheduleRepo_ListDueNoImplicitCap(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewScheduleRepo(db, testutil.Logger(t))

	user := uuid.New()
	asOf := types.StoreTime(time.Now())
	same := asOf.Add(-time.Hour)
	for i := 0; i < 230; i++ {
		p := testutil.SeedProblem(t, ctx, tx, user, fmt.Sprintf("cap %03d", i))
		testutil.SeedSchedule(t, ctx, tx, p.ID, same)
	}

	rows, err := repo.ListDue(dbc, user, asOf, nil, 0)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(rows) != 230 {
		t.Fatalf("ListDue len=%d, want 230", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].ID.String() >= rows[i].ID.String() {
			t.Fatalf("ties not ordered by id at %d", i)
		}
	}
}
