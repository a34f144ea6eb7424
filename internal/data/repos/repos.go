package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/data/repos/study"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type ProblemRepo = study.ProblemRepo
type AttemptRepo = study.AttemptRepo
type SnapshotRepo = study.SnapshotRepo
type StuckPointRepo = study.StuckPointRepo
type ReflectionRepo = study.ReflectionRepo
type ScheduleRepo = study.ScheduleRepo

func NewProblemRepo(db *gorm.DB, log *logger.Logger) ProblemRepo {
	return study.NewProblemRepo(db, log)
}

func NewAttemptRepo(db *gorm.DB, log *logger.Logger) AttemptRepo {
	return study.NewAttemptRepo(db, log)
}

func NewSnapshotRepo(db *gorm.DB, log *logger.Logger) SnapshotRepo {
	return study.NewSnapshotRepo(db, log)
}

func NewStuckPointRepo(db *gorm.DB, log *logger.Logger) StuckPointRepo {
	return study.NewStuckPointRepo(db, log)
}

func NewReflectionRepo(db *gorm.DB, log *logger.Logger) ReflectionRepo {
	return study.NewReflectionRepo(db, log)
}

func NewScheduleRepo(db *gorm.DB, log *logger.Logger) ScheduleRepo {
	return study.NewScheduleRepo(db, log)
}

var IsUniqueViolation = study.IsUniqueViolation
