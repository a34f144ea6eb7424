package study

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

const (
	EntityAttempt    = "attempt"
	EntitySnapshot   = "snapshot"
	EntityStuckPoint = "stuck_point"
	EntityReflection = "reflection"

	maxClientOpIDLen = 128
)

// DedupCache is a best-effort fast path in front of the client_op_id unique
// indexes. Ingested rows are never deleted, so a cached binding cannot go
// stale; a miss or an error only costs a query.
type DedupCache interface {
	Get(ctx context.Context, entity, key string) (types.DedupBinding, bool, error)
	Put(ctx context.Context, entity, key string, b types.DedupBinding) error
}

type IngestResult struct {
	ID uuid.UUID `json:"id"`
	// Created is false when the key had already been recorded.
	Created bool `json:"created"`
}

// ingestOp describes one idempotent create for the guard.
type ingestOp[T any] struct {
	entity   string
	key      string
	parentID uuid.UUID

	lookup   func(dbc dbctx.Context, key string) (*T, error)
	idOf     func(row *T) uuid.UUID
	parentOf func(row *T) uuid.UUID
	// create inserts the row, ignoring a client_op_id conflict, and reports
	// whether this call created it.
	create func(ctx context.Context) (bool, error)
}

type flightResult struct {
	id      uuid.UUID
	created bool
}

func normalizeClientOpID(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", apierr.Validation("missing_client_op_id", "client_op_id is required")
	}
	if len(key) > maxClientOpIDLen {
		return "", apierr.Validation("invalid_client_op_id", "client_op_id exceeds %d bytes", maxClientOpIDLen)
	}
	return key, nil
}

// resolveIngest returns the record for op.key, creating it at most once.
// Duplicate submissions, including ones that lose an insert race, resolve to
// the existing record. A key bound to a different parent is a conflict.
func resolveIngest[T any](u Usecases, ctx context.Context, op ingestOp[T]) (IngestResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	log := u.deps.Log.With("entity", op.entity)

	existing := func(row *T) (IngestResult, error) {
		if p := op.parentOf(row); p != op.parentID {
			return IngestResult{}, apierr.Conflict("client_op_id_reused",
				fmt.Errorf("client_op_id already used for a different %s parent", op.entity))
		}
		u.recordIngest(op.entity, false)
		return IngestResult{ID: op.idOf(row), Created: false}, nil
	}

	if u.deps.Dedup != nil {
		b, ok, err := u.deps.Dedup.Get(ctx, op.entity, op.key)
		if err != nil {
			log.Warn("dedup cache get failed", "error", err)
		} else if ok && b.ID != uuid.Nil && b.ParentID == op.parentID {
			u.recordIngest(op.entity, false)
			return IngestResult{ID: b.ID, Created: false}, nil
		}
	}

	row, err := op.lookup(dbc, op.key)
	if err != nil {
		return IngestResult{}, apierr.New(http.StatusInternalServerError, "dedup_lookup_failed", err)
	}
	if row != nil {
		return existing(row)
	}

	// The shared create outlives the leader's request: followers waiting on
	// the same key must not inherit its cancellation.
	leader := false
	v, err, _ := u.flight.Do(op.entity+"|"+op.key, func() (interface{}, error) {
		leader = true
		fctx := context.WithoutCancel(ctx)
		created, err := op.create(fctx)
		if err != nil {
			return nil, err
		}
		row, err := op.lookup(dbctx.Context{Ctx: fctx}, op.key)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, fmt.Errorf("%s %q missing after insert", op.entity, op.key)
		}
		return flightResult{id: op.idOf(row), created: created}, nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return IngestResult{}, ae
		}
		log.Error("ingest failed", "error", err)
		return IngestResult{}, apierr.New(http.StatusInternalServerError, "ingest_failed", err)
	}
	res := v.(flightResult)

	if !res.created || !leader {
		// Someone else wrote the row; re-check the parent binding.
		row, err := op.lookup(dbc, op.key)
		if err != nil {
			return IngestResult{}, apierr.New(http.StatusInternalServerError, "dedup_lookup_failed", err)
		}
		if row == nil {
			return IngestResult{}, apierr.New(http.StatusInternalServerError, "ingest_failed", fmt.Errorf("%s vanished", op.entity))
		}
		return existing(row)
	}

	if u.deps.Dedup != nil {
		if err := u.deps.Dedup.Put(ctx, op.entity, op.key, types.DedupBinding{ID: res.id, ParentID: op.parentID}); err != nil {
			log.Warn("dedup cache put failed", "error", err)
		}
	}
	u.recordIngest(op.entity, true)
	return IngestResult{ID: res.id, Created: true}, nil
}
