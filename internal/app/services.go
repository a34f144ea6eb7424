package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	"github.com/yungbote/lattice-backend/internal/modules/study"
	"github.com/yungbote/lattice-backend/internal/observability"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
	"github.com/yungbote/lattice-backend/internal/services"
)

type Services struct {
	Identity services.IdentityResolver
	Study    study.Usecases
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, catalog *curriculum.Catalog, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	identity, err := services.NewJWTIdentityResolver(log, services.JWTIdentityConfig{
		SecretKey: cfg.JWTSecretKey,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init identity resolver: %w", err)
	}

	return Services{
		Identity: identity,
		Study:    newStudyUsecases(db, log, cfg, r, c, catalog, metrics),
	}, nil
}

func newStudyUsecases(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, catalog *curriculum.Catalog, metrics *observability.Metrics) study.Usecases {
	deps := study.UsecasesDeps{
		DB:          db,
		Log:         log.With("service", "StudyUsecases"),
		Problems:    r.Problem,
		Attempts:    r.Attempt,
		Snapshots:   r.Snapshot,
		StuckPoints: r.StuckPoint,
		Reflections: r.Reflection,
		Schedules:   r.Schedule,
		Catalog:     catalog,
		Location:    cfg.StudyTimezone,
	}
	// Avoid typed-nil interfaces for the optional collaborators.
	if c.Dedup != nil {
		deps.Dedup = c.Dedup
	}
	if metrics != nil {
		deps.Metrics = metrics
	}
	return study.New(deps)
}

// NewStudyUsecases wires the study usecases for offline tooling: no cache,
// no metrics, no curriculum.
func NewStudyUsecases(db *gorm.DB, log *logger.Logger, cfg Config) study.Usecases {
	return newStudyUsecases(db, log, cfg, wireRepos(db, log), Clients{}, nil, nil)
}
