package study

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

const maxCodeBytes = 256 << 10

type RecordSnapshotInput struct {
	AttemptID   uuid.UUID
	ClientOpID  string
	CapturedAt  *time.Time
	Trigger     string
	Code        string
	TestOutcome *string
}

type RecordStuckPointInput struct {
	AttemptID      uuid.UUID
	ClientOpID     string
	OccurredAt     *time.Time
	Description    string
	CodeSnapshot   *string
	IntendedAction *string
}

type RecordReflectionInput struct {
	AttemptID    uuid.UUID
	ClientOpID   string
	OccurredAt   *time.Time
	Type         string
	Content      string
	CodeSnapshot *string
	ColdHint     *string
	Confidence   *string
}

func (u Usecases) at(t *time.Time) time.Time {
	if t != nil && !t.IsZero() {
		return types.StoreTime(*t)
	}
	return types.StoreTime(u.now())
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// RecordSnapshot stores a code snapshot and bumps the attempt's counter. The
// insert and the increment commit together, and the increment only runs
// when the insert created the row, so a replayed key changes nothing.
func (u Usecases) RecordSnapshot(ctx context.Context, userID uuid.UUID, in RecordSnapshotInput) (IngestResult, error) {
	ctx, span := u.startSpan(ctx, "RecordSnapshot")
	defer span.End()

	key, err := normalizeClientOpID(in.ClientOpID)
	if err != nil {
		return IngestResult{}, err
	}
	trigger := strings.ToLower(strings.TrimSpace(in.Trigger))
	if !types.ValidTrigger(trigger) {
		return IngestResult{}, apierr.Validation("invalid_trigger", "unsupported trigger %q", in.Trigger)
	}
	outcome := trimmedPtr(in.TestOutcome)
	if outcome != nil {
		v := strings.ToLower(*outcome)
		if !types.ValidTestOutcome(v) {
			return IngestResult{}, apierr.Validation("invalid_test_outcome", "unsupported test_outcome %q", *in.TestOutcome)
		}
		outcome = &v
	}
	if len(in.Code) > maxCodeBytes {
		return IngestResult{}, apierr.Validation("code_too_large", "code exceeds %d bytes", maxCodeBytes)
	}
	a, _, err := u.AuthorizeAttempt(ctx, userID, in.AttemptID)
	if err != nil {
		return IngestResult{}, err
	}

	return resolveIngest(u, ctx, ingestOp[types.Snapshot]{
		entity:   EntitySnapshot,
		key:      key,
		parentID: a.ID,
		lookup:   u.deps.Snapshots.GetByClientOpID,
		idOf:     func(s *types.Snapshot) uuid.UUID { return s.ID },
		parentOf: func(s *types.Snapshot) uuid.UUID { return s.AttemptID },
		create: func(ctx context.Context) (bool, error) {
			created := false
			err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				dbc := dbctx.Context{Ctx: ctx, Tx: tx}
				ok, err := u.deps.Snapshots.CreateIgnoreDuplicate(dbc, &types.Snapshot{
					AttemptID:   a.ID,
					ClientOpID:  key,
					CapturedAt:  u.at(in.CapturedAt),
					Trigger:     trigger,
					Code:        in.Code,
					TestOutcome: outcome,
				})
				if err != nil || !ok {
					return err
				}
				if err := u.deps.Attempts.IncrementSnapshotCount(dbc, a.ID); err != nil {
					return err
				}
				created = true
				return nil
			})
			if err != nil {
				return false, err
			}
			return created, nil
		},
	})
}

func (u Usecases) RecordStuckPoint(ctx context.Context, userID uuid.UUID, in RecordStuckPointInput) (IngestResult, error) {
	ctx, span := u.startSpan(ctx, "RecordStuckPoint")
	defer span.End()

	key, err := normalizeClientOpID(in.ClientOpID)
	if err != nil {
		return IngestResult{}, err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return IngestResult{}, apierr.Validation("missing_description", "description is required")
	}
	action := trimmedPtr(in.IntendedAction)
	if action != nil && !types.ValidIntendedAction(*action) {
		return IngestResult{}, apierr.Validation("invalid_intended_action", "unsupported intended_action %q", *action)
	}
	a, _, err := u.AuthorizeAttempt(ctx, userID, in.AttemptID)
	if err != nil {
		return IngestResult{}, err
	}

	return resolveIngest(u, ctx, ingestOp[types.StuckPoint]{
		entity:   EntityStuckPoint,
		key:      key,
		parentID: a.ID,
		lookup:   u.deps.StuckPoints.GetByClientOpID,
		idOf:     func(s *types.StuckPoint) uuid.UUID { return s.ID },
		parentOf: func(s *types.StuckPoint) uuid.UUID { return s.AttemptID },
		create: func(ctx context.Context) (bool, error) {
			return u.deps.StuckPoints.CreateIgnoreDuplicate(dbctx.Context{Ctx: ctx}, &types.StuckPoint{
				AttemptID:      a.ID,
				ClientOpID:     key,
				OccurredAt:     u.at(in.OccurredAt),
				Description:    desc,
				CodeSnapshot:   in.CodeSnapshot,
				IntendedAction: action,
			})
		},
	})
}

func (u Usecases) RecordReflection(ctx context.Context, userID uuid.UUID, in RecordReflectionInput) (IngestResult, error) {
	ctx, span := u.startSpan(ctx, "RecordReflection")
	defer span.End()

	key, err := normalizeClientOpID(in.ClientOpID)
	if err != nil {
		return IngestResult{}, err
	}
	typ := strings.ToLower(strings.TrimSpace(in.Type))
	if !types.ValidReflectionType(typ) {
		return IngestResult{}, apierr.Validation("invalid_reflection_type", "unsupported type %q", in.Type)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return IngestResult{}, apierr.Validation("missing_content", "content is required")
	}
	confidence := trimmedPtr(in.Confidence)
	if confidence != nil {
		v := strings.ToLower(*confidence)
		if !types.ValidConfidence(v) {
			return IngestResult{}, apierr.Validation("invalid_confidence", "unsupported confidence %q", *in.Confidence)
		}
		confidence = &v
	}
	a, _, err := u.AuthorizeAttempt(ctx, userID, in.AttemptID)
	if err != nil {
		return IngestResult{}, err
	}

	return resolveIngest(u, ctx, ingestOp[types.Reflection]{
		entity:   EntityReflection,
		key:      key,
		parentID: a.ID,
		lookup:   u.deps.Reflections.GetByClientOpID,
		idOf:     func(r *types.Reflection) uuid.UUID { return r.ID },
		parentOf: func(r *types.Reflection) uuid.UUID { return r.AttemptID },
		create: func(ctx context.Context) (bool, error) {
			return u.deps.Reflections.CreateIgnoreDuplicate(dbctx.Context{Ctx: ctx}, &types.Reflection{
				AttemptID:    a.ID,
				ClientOpID:   key,
				OccurredAt:   u.at(in.OccurredAt),
				Type:         typ,
				Content:      content,
				CodeSnapshot: in.CodeSnapshot,
				ColdHint:     trimmedPtr(in.ColdHint),
				Confidence:   confidence,
			})
		},
	})
}
