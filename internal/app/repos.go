package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/data/repos"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type Repos struct {
	Problem    repos.ProblemRepo
	Attempt    repos.AttemptRepo
	Snapshot   repos.SnapshotRepo
	StuckPoint repos.StuckPointRepo
	Reflection repos.ReflectionRepo
	Schedule   repos.ScheduleRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Problem:    repos.NewProblemRepo(db, log),
		Attempt:    repos.NewAttemptRepo(db, log),
		Snapshot:   repos.NewSnapshotRepo(db, log),
		StuckPoint: repos.NewStuckPointRepo(db, log),
		Reflection: repos.NewReflectionRepo(db, log),
		Schedule:   repos.NewScheduleRepo(db, log),
	}
}
