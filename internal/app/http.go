package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	"github.com/yungbote/lattice-backend/internal/http"
	httpH "github.com/yungbote/lattice-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lattice-backend/internal/http/middleware"
	"github.com/yungbote/lattice-backend/internal/observability"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Study      *httpH.StudyHandler
	Schedule   *httpH.ScheduleHandler
	Curriculum *httpH.CurriculumHandler
}

func wireHandlers(log *logger.Logger, sqlDB *sql.DB, services Services, catalog *curriculum.Catalog) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Study:      httpH.NewStudyHandler(services.Study),
		Schedule:   httpH.NewScheduleHandler(services.Study),
		Curriculum: httpH.NewCurriculumHandler(catalog),
	}
	if sqlDB != nil {
		h.Health = httpH.NewHealthHandler(sqlDB)
	} else {
		h.Health = httpH.NewHealthHandler(nil)
	}
	return h
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Identity),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	rc := http.RouterConfig{
		Log:               log,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		StudyHandler:      handlers.Study,
		ScheduleHandler:   handlers.Schedule,
		CurriculumHandler: handlers.Curriculum,
		HealthHandler:     handlers.Health,
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	if metrics != nil {
		rc.Metrics = metrics
	}
	return http.NewRouter(rc)
}
