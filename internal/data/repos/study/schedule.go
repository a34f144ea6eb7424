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

type ScheduleRepo interface {
	GetByProblemID(dbc dbctx.Context, problemID uuid.UUID) (*types.ScheduleRecord, error)
	// GetByProblemIDForUpdate row-locks the record on Postgres; SQLite
	// already serializes writers.
	GetByProblemIDForUpdate(dbc dbctx.Context, problemID uuid.UUID) (*types.ScheduleRecord, error)
	ListByProblemIDs(dbc dbctx.Context, problemIDs []uuid.UUID) ([]*types.ScheduleRecord, error)
	// Upsert creates the problem's record or overwrites its mutable fields
	// in one statement, then returns the stored row.
	Upsert(dbc dbctx.Context, row *types.ScheduleRecord) (*types.ScheduleRecord, error)
	// ListDue pages through the owner's due records in (next_review_at, id)
	// order. A nil after starts at the beginning; limit 0 returns them all.
	ListDue(dbc dbctx.Context, userID uuid.UUID, asOf time.Time, after *types.DueCursor, limit int) ([]*types.ScheduleRecord, error)
	CountDue(dbc dbctx.Context, userID uuid.UUID, asOf time.Time) (int64, error)
}

type scheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{db: db, log: baseLog.With("repo", "ScheduleRepo")}
}

func (r *scheduleRepo) GetByProblemID(dbc dbctx.Context, problemID uuid.UUID) (*types.ScheduleRecord, error) {
	if problemID == uuid.Nil {
		return nil, nil
	}
	return findOne[types.ScheduleRecord](txOf(dbc, r.db), dbc, "problem_id = ?", problemID)
}

func (r *scheduleRepo) GetByProblemIDForUpdate(dbc dbctx.Context, problemID uuid.UUID) (*types.ScheduleRecord, error) {
	if problemID == uuid.Nil {
		return nil, nil
	}
	t := txOf(dbc, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
	return findOne[types.ScheduleRecord](t, dbc, "problem_id = ?", problemID)
}

func (r *scheduleRepo) ListByProblemIDs(dbc dbctx.Context, problemIDs []uuid.UUID) ([]*types.ScheduleRecord, error) {
	out := []*types.ScheduleRecord{}
	if len(problemIDs) == 0 {
		return out, nil
	}
	if err := txOf(dbc, r.db).WithContext(dbc.Ctx).Where("problem_id IN ?", problemIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduleRepo) Upsert(dbc dbctx.Context, row *types.ScheduleRecord) (*types.ScheduleRecord, error) {
	t := txOf(dbc, r.db)
	if row == nil || row.ProblemID == uuid.Nil {
		return nil, nil
	}
	now := time.Now().UTC()
	insert := *row
	if insert.ID == uuid.Nil {
		insert.ID = uuid.New()
	}
	insert.NextReviewAt = types.StoreTime(insert.NextReviewAt)
	insert.LastReviewedAt = types.StoreTimePtr(insert.LastReviewedAt)
	insert.CreatedAt = now
	insert.UpdatedAt = now

	// On conflict, overwrite every mutable field together; id/created_at stay.
	err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "problem_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"next_review_at",
				"interval_days",
				"ease_factor",
				"review_count",
				"last_reviewed_at",
				"updated_at",
			}),
		}).
		Create(&insert).Error
	if err != nil {
		return nil, err
	}
	return r.GetByProblemID(dbc, row.ProblemID)
}

func (r *scheduleRepo) dueQuery(dbc dbctx.Context, userID uuid.UUID, asOf time.Time) *gorm.DB {
	return txOf(dbc, r.db).WithContext(dbc.Ctx).
		Model(&types.ScheduleRecord{}).
		Joins("JOIN study_problem ON study_problem.id = study_schedule.problem_id").
		Where("study_problem.user_id = ? AND study_schedule.next_review_at <= ?", userID, types.StoreTime(asOf))
}

// ListDue returns the owner's records due at or before asOf, soonest first.
func (r *scheduleRepo) ListDue(dbc dbctx.Context, userID uuid.UUID, asOf time.Time, after *types.DueCursor, limit int) ([]*types.ScheduleRecord, error) {
	out := []*types.ScheduleRecord{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := r.dueQuery(dbc, userID, asOf)
	if after != nil {
		at := types.StoreTime(after.NextReviewAt)
		q = q.Where(
			"(study_schedule.next_review_at > ? OR (study_schedule.next_review_at = ? AND study_schedule.id > ?))",
			at, at, after.ID,
		)
	}
	q = q.Select("study_schedule.*").
		Order("study_schedule.next_review_at ASC, study_schedule.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduleRepo) CountDue(dbc dbctx.Context, userID uuid.UUID, asOf time.Time) (int64, error) {
	var n int64
	if userID == uuid.Nil {
		return 0, nil
	}
	err := r.dueQuery(dbc, userID, asOf).Count(&n).Error
	return n, err
}
