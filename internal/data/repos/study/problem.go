package study

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type ProblemRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Problem, error)
	// GetByIDForUpdate row-locks the problem for the rest of the transaction.
	GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Problem, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Problem, error)
	GetByUserAndNormalizedTitle(dbc dbctx.Context, userID uuid.UUID, normalizedTitle string) (*types.Problem, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Problem, error)
	// FindOrCreate returns the owner's problem for row.NormalizedTitle,
	// inserting row when none exists. created reports which happened.
	FindOrCreate(dbc dbctx.Context, row *types.Problem) (*types.Problem, bool, error)
}

type problemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemRepo(db *gorm.DB, baseLog *logger.Logger) ProblemRepo {
	return &problemRepo{db: db, log: baseLog.With("repo", "ProblemRepo")}
}

func (r *problemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Problem, error) {
	t := txOf(dbc, r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Problem
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *problemRepo) GetByIDForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Problem, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := txOf(dbc, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return findOne[types.Problem](t, dbc, "id = ?", id)
}

func (r *problemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Problem, error) {
	t := txOf(dbc, r.db)
	out := []*types.Problem{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) GetByUserAndNormalizedTitle(dbc dbctx.Context, userID uuid.UUID, normalizedTitle string) (*types.Problem, error) {
	t := txOf(dbc, r.db)
	if userID == uuid.Nil || normalizedTitle == "" {
		return nil, nil
	}
	var row types.Problem
	err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND normalized_title = ?", userID, normalizedTitle).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *problemRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Problem, error) {
	t := txOf(dbc, r.db)
	out := []*types.Problem{}
	if userID == uuid.Nil {
		return out, nil
	}
	err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("normalized_title ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *problemRepo) FindOrCreate(dbc dbctx.Context, row *types.Problem) (*types.Problem, bool, error) {
	t := txOf(dbc, r.db)
	if row == nil || row.UserID == uuid.Nil || row.NormalizedTitle == "" {
		return nil, false, nil
	}
	if existing, err := r.GetByUserAndNormalizedTitle(dbc, row.UserID, row.NormalizedTitle); err != nil || existing != nil {
		return existing, false, err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "normalized_title"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil && !IsUniqueViolation(res.Error) {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return row, true, nil
	}
	// Lost a concurrent race for the same title: the winner's row stands.
	existing, err := r.GetByUserAndNormalizedTitle(dbc, row.UserID, row.NormalizedTitle)
	return existing, false, err
}
