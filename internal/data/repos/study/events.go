package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

// -------------------- Snapshots --------------------

type SnapshotRepo interface {
	GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.Snapshot, error)
	CreateIgnoreDuplicate(dbc dbctx.Context, row *types.Snapshot) (bool, error)
	CountByAttemptID(dbc dbctx.Context, attemptID uuid.UUID) (int64, error)
	ListByAttemptIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.Snapshot, error)
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return &snapshotRepo{db: db, log: baseLog.With("repo", "SnapshotRepo")}
}

func (r *snapshotRepo) GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.Snapshot, error) {
	if clientOpID == "" {
		return nil, nil
	}
	return findOne[types.Snapshot](txOf(dbc, r.db), dbc, "client_op_id = ?", clientOpID)
}

func (r *snapshotRepo) CreateIgnoreDuplicate(dbc dbctx.Context, row *types.Snapshot) (bool, error) {
	if row == nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	return insertIgnoringClientOpConflict(txOf(dbc, r.db), dbc, row)
}

func (r *snapshotRepo) CountByAttemptID(dbc dbctx.Context, attemptID uuid.UUID) (int64, error) {
	var n int64
	if attemptID == uuid.Nil {
		return 0, nil
	}
	err := txOf(dbc, r.db).WithContext(dbc.Ctx).
		Model(&types.Snapshot{}).
		Where("attempt_id = ?", attemptID).
		Count(&n).Error
	return n, err
}

func (r *snapshotRepo) ListByAttemptIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.Snapshot, error) {
	out := []*types.Snapshot{}
	if len(attemptIDs) == 0 {
		return out, nil
	}
	err := txOf(dbc, r.db).WithContext(dbc.Ctx).
		Where("attempt_id IN ?", attemptIDs).
		Order("captured_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// -------------------- Stuck points --------------------

type StuckPointRepo interface {
	GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.StuckPoint, error)
	CreateIgnoreDuplicate(dbc dbctx.Context, row *types.StuckPoint) (bool, error)
	ListByAttemptIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.StuckPoint, error)
}

type stuckPointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStuckPointRepo(db *gorm.DB, baseLog *logger.Logger) StuckPointRepo {
	return &stuckPointRepo{db: db, log: baseLog.With("repo", "StuckPointRepo")}
}

func (r *stuckPointRepo) GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.StuckPoint, error) {
	if clientOpID == "" {
		return nil, nil
	}
	return findOne[types.StuckPoint](txOf(dbc, r.db), dbc, "client_op_id = ?", clientOpID)
}

func (r *stuckPointRepo) CreateIgnoreDuplicate(dbc dbctx.Context, row *types.StuckPoint) (bool, error) {
	if row == nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	return insertIgnoringClientOpConflict(txOf(dbc, r.db), dbc, row)
}

func (r *stuckPointRepo) ListByAttemptIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.StuckPoint, error) {
	out := []*types.StuckPoint{}
	if len(attemptIDs) == 0 {
		return out, nil
	}
	err := txOf(dbc, r.db).WithContext(dbc.Ctx).
		Where("attempt_id IN ?", attemptIDs).
		Order("occurred_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// -------------------- Reflections --------------------

type ReflectionRepo interface {
	GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.Reflection, error)
	CreateIgnoreDuplicate(dbc dbctx.Context, row *types.Reflection) (bool, error)
	ListByAttemptIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.Reflection, error)
}

type reflectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReflectionRepo(db *gorm.DB, baseLog *logger.Logger) ReflectionRepo {
	return &reflectionRepo{db: db, log: baseLog.With("repo", "ReflectionRepo")}
}

func (r *reflectionRepo) GetByClientOpID(dbc dbctx.Context, clientOpID string) (*types.Reflection, error) {
	if clientOpID == "" {
		return nil, nil
	}
	return findOne[types.Reflection](txOf(dbc, r.db), dbc, "client_op_id = ?", clientOpID)
}

func (r *reflectionRepo) CreateIgnoreDuplicate(dbc dbctx.Context, row *types.Reflection) (bool, error) {
	if row == nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	return insertIgnoringClientOpConflict(txOf(dbc, r.db), dbc, row)
}

func (r *reflectionRepo) ListByAttemptIDs(dbc dbctx.Context, attemptIDs []uuid.UUID) ([]*types.Reflection, error) {
	out := []*types.Reflection{}
	if len(attemptIDs) == 0 {
		return out, nil
	}
	err := txOf(dbc, r.db).WithContext(dbc.Ctx).
		Where("attempt_id IN ?", attemptIDs).
		Order("occurred_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
