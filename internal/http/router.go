package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lattice-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lattice-backend/internal/http/middleware"
	"github.com/yungbote/lattice-backend/internal/observability"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// Nil disables /metrics and request metrics.
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	StudyHandler      *httpH.StudyHandler
	ScheduleHandler   *httpH.ScheduleHandler
	CurriculumHandler *httpH.CurriculumHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName, otelgin.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/healthcheck" && req.URL.Path != "/metrics"
		})))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Problems & attempts
		if cfg.StudyHandler != nil {
			protected.POST("/problems", cfg.StudyHandler.EnsureProblem)
			protected.POST("/attempts", cfg.StudyHandler.RecordAttempt)
			protected.PATCH("/attempts/:id", cfg.StudyHandler.UpdateAttempt)
			protected.POST("/attempts/:id/snapshots", cfg.StudyHandler.RecordSnapshot)
			protected.POST("/attempts/:id/stuck-points", cfg.StudyHandler.RecordStuckPoint)
			protected.POST("/attempts/:id/reflections", cfg.StudyHandler.RecordReflection)
			protected.GET("/study-log", cfg.StudyHandler.StudyLog)
		}

		// Spaced repetition
		if cfg.ScheduleHandler != nil {
			protected.PUT("/problems/:id/schedule", cfg.ScheduleHandler.UpsertSchedule)
			protected.POST("/problems/:id/reviews", cfg.ScheduleHandler.Review)
			protected.GET("/reviews/due", cfg.ScheduleHandler.Due)
		}

		// Curriculum
		if cfg.CurriculumHandler != nil {
			protected.GET("/curriculum", cfg.CurriculumHandler.List)
		}
	}

	return r
}
