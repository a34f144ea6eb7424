package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type AttemptRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Attempt, error)
	GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.Attempt, error)
	CreateIgnoreDuplicate(dbc dbctx.Context, row *types.Attempt) (bool, error)
	ApplyPatch(dbc dbctx.Context, id uuid.UUID, patch types.AttemptPatch) error
	IncrementSnapshotCount(dbc dbctx.Context, id uuid.UUID) error
	ListByProblemIDs(dbc dbctx.Context, problemIDs []uuid.UUID) ([]*types.Attempt, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Attempt, error) {
	t := txOf(dbc, r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Attempt
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *attemptRepo) GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.Attempt, error) {
	t := txOf(dbc, r.db)
	if clientOpID == "" {
		return nil, nil
	}
	var row types.Attempt
	if err := t.WithContext(dbc.Ctx).Where("client_op_id = ?", clientOpID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *attemptRepo) CreateIgnoreDuplicate(dbc dbctx.Context, row *types.Attempt) (bool, error) {
	t := txOf(dbc, r.db)
	if row == nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	return insertIgnoringClientOpConflict(t, dbc, row)
}

// ApplyPatch writes only the fields present in patch.
func (r *attemptRepo) ApplyPatch(dbc dbctx.Context, id uuid.UUID, patch types.AttemptPatch) error {
	t := txOf(dbc, r.db)
	if id == uuid.Nil || patch.Empty() {
		return nil
	}
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = types.StoreTime(*patch.CompletedAt)
	}
	if patch.Passed != nil {
		updates["passed"] = *patch.Passed
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Attempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// IncrementSnapshotCount is a single atomic UPDATE; it never reads the count.
func (r *attemptRepo) IncrementSnapshotCount(dbc dbctx.Context, id uuid.UUID) error {
	t := txOf(dbc, r.db)
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Attempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"snapshot_count": gorm.Expr("snapshot_count + ?", 1),
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *attemptRepo) ListByProblemIDs(dbc dbctx.Context, problemIDs []uuid.UUID) ([]*types.Attempt, error) {
	t := txOf(dbc, r.db)
	out := []*types.Attempt{}
	if len(problemIDs) == 0 {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("problem_id IN ?", problemIDs).
		Order("started_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
