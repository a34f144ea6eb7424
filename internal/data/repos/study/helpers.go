package study

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

func txOf(dbc dbctx.Context, fallback *gorm.DB) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return fallback
}

// IsUniqueViolation reports whether err is a unique-constraint failure on
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// insertIgnoringClientOpConflict inserts row unless a row with the same
// client_op_id exists. created is false when the insert was a no-op.
func insertIgnoringClientOpConflict(t *gorm.DB, dbc dbctx.Context, row any) (bool, error) {
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_op_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func findOne[T any](t *gorm.DB, dbc dbctx.Context, query string, args ...interface{}) (*T, error) {
	var row T
	res := t.WithContext(dbc.Ctx).Where(query, args...).Limit(1).Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}
