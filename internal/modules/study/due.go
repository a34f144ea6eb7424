package study

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

// EndOfDay is the last representable instant of now's calendar day in loc.
func EndOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Microsecond)
}

// QueryDueReviews lists every problem of the learner due at or before asOf,
// which defaults to the end of today in the configured timezone. A positive
// limit caps the result; use QueryDueReviewsPage to continue past it.
func (u Usecases) QueryDueReviews(ctx context.Context, userID uuid.UUID, asOf *time.Time, limit int) ([]types.DueReview, error) {
	ctx, span := u.startSpan(ctx, "QueryDueReviews")
	defer span.End()

	if limit < 0 {
		return nil, apierr.Validation("invalid_limit", "limit must be >= 0")
	}
	due, _, err := u.listDue(ctx, userID, u.dueCutoff(asOf), nil, limit)
	return due, err
}

type DuePageInput struct {
	AsOf   *time.Time
	Limit  int
	Cursor string
}

// DuePage is one page of due reviews. NextCursor is empty on the last page.
type DuePage struct {
	Reviews    []types.DueReview `json:"reviews"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// QueryDueReviewsPage walks the due list in keyset order. The cursor pins the
// cutoff of the first page so a listing that spans midnight stays stable.
func (u Usecases) QueryDueReviewsPage(ctx context.Context, userID uuid.UUID, in DuePageInput) (*DuePage, error) {
	ctx, span := u.startSpan(ctx, "QueryDueReviewsPage")
	defer span.End()

	if in.Limit < 0 {
		return nil, apierr.Validation("invalid_limit", "limit must be >= 0")
	}
	cutoff := u.dueCutoff(in.AsOf)
	var after *types.DueCursor
	if in.Cursor != "" {
		pinned, pos, err := decodeDueCursor(in.Cursor)
		if err != nil {
			return nil, apierr.Validation("invalid_cursor", "cursor is malformed")
		}
		cutoff, after = pinned, pos
	}
	due, last, err := u.listDue(ctx, userID, cutoff, after, in.Limit)
	if err != nil {
		return nil, err
	}
	page := &DuePage{Reviews: due}
	if in.Limit > 0 && last != nil && last.count == in.Limit {
		page.NextCursor = encodeDueCursor(cutoff, last.pos)
	}
	return page, nil
}

func (u Usecases) dueCutoff(asOf *time.Time) time.Time {
	if asOf != nil && !asOf.IsZero() {
		return *asOf
	}
	return EndOfDay(u.now(), u.deps.Location)
}

type dueTail struct {
	pos   types.DueCursor
	count int
}

func (u Usecases) listDue(ctx context.Context, userID uuid.UUID, cutoff time.Time, after *types.DueCursor, limit int) ([]types.DueReview, *dueTail, error) {
	if userID == uuid.Nil {
		return nil, nil, apierr.Unauthenticated()
	}
	dbc := dbctx.Context{Ctx: ctx}
	recs, err := u.deps.Schedules.ListDue(dbc, userID, cutoff, after, limit)
	if err != nil {
		u.deps.Log.Error("list due failed", "op", "QueryDueReviews", "error", err)
		return nil, nil, apierr.New(http.StatusInternalServerError, "list_due_failed", err)
	}
	ids := make([]uuid.UUID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ProblemID)
	}
	problems, err := u.deps.Problems.GetByIDs(dbc, ids)
	if err != nil {
		return nil, nil, apierr.New(http.StatusInternalServerError, "load_problems_failed", err)
	}
	byID := make(map[uuid.UUID]*types.Problem, len(problems))
	for _, p := range problems {
		byID[p.ID] = p
	}

	out := make([]types.DueReview, 0, len(recs))
	for _, r := range recs {
		p := byID[r.ProblemID]
		if p == nil || p.UserID != userID {
			continue
		}
		out = append(out, types.DueReview{Problem: p, Schedule: r})
	}
	var tail *dueTail
	if n := len(recs); n > 0 {
		last := recs[n-1]
		tail = &dueTail{pos: types.DueCursor{NextReviewAt: last.NextReviewAt, ID: last.ID}, count: n}
	}
	return out, tail, nil
}

// Cursor tokens are "<cutoff µs>.<next_review_at µs>.<schedule id>", base64url.
func encodeDueCursor(cutoff time.Time, pos types.DueCursor) string {
	raw := fmt.Sprintf("%d.%d.%s", cutoff.UnixMicro(), pos.NextReviewAt.UnixMicro(), pos.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeDueCursor(tok string) (time.Time, *types.DueCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return time.Time{}, nil, err
	}
	parts := strings.SplitN(string(raw), ".", 3)
	if len(parts) != 3 {
		return time.Time{}, nil, errors.New("want 3 cursor fields")
	}
	cutoff, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, nil, err
	}
	next, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, nil, err
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return time.Time{}, nil, err
	}
	return time.UnixMicro(cutoff).UTC(), &types.DueCursor{NextReviewAt: time.UnixMicro(next).UTC(), ID: id}, nil
}
