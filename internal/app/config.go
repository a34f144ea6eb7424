package app

import (
	"strings"
	"time"

	"github.com/yungbote/lattice-backend/internal/data/db"
	"github.com/yungbote/lattice-backend/internal/observability"
	"github.com/yungbote/lattice-backend/internal/platform/envutil"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string

	DBDriver string
	// DSN is built from POSTGRES_* or taken from SQLITE_PATH.
	DSN string

	JWTSecretKey string
	JWTIssuer    string

	// StudyTimezone sets where "today" ends for due reviews.
	StudyTimezone *time.Location

	CurriculumDir      string
	CurriculumWatch    bool
	CurriculumDebounce time.Duration

	RedisAddr     string
	DedupCacheTTL time.Duration

	CORSOrigins     []string
	MetricsEnabled  bool
	ShutdownTimeout time.Duration

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	driver := strings.ToLower(envutil.String("DB_DRIVER", db.DriverPostgres))
	dsn := envutil.String("SQLITE_PATH", "lattice.db")
	if driver == db.DriverPostgres {
		dsn = db.PostgresDSN(
			envutil.String("POSTGRES_HOST", "localhost"),
			envutil.String("POSTGRES_PORT", "5432"),
			envutil.String("POSTGRES_USER", "postgres"),
			envutil.String("POSTGRES_PASSWORD", ""),
			envutil.String("POSTGRES_NAME", "lattice"),
		)
	}

	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DBDriver: driver,
		DSN:      dsn,

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		JWTIssuer:    envutil.String("JWT_ISSUER", ""),

		StudyTimezone: envutil.Location("STUDY_TIMEZONE", "UTC"),

		CurriculumDir:      envutil.String("CURRICULUM_DIR", "curriculum"),
		CurriculumWatch:    envutil.Bool("CURRICULUM_WATCH", false),
		CurriculumDebounce: envutil.Duration("CURRICULUM_DEBOUNCE", 500*time.Millisecond),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		DedupCacheTTL: envutil.Duration("DEDUP_CACHE_TTL", 24*time.Hour),

		CORSOrigins:     splitList(envutil.String("CORS_ORIGINS", "")),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "lattice-api"),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development"),
			Version:     envutil.String("OTEL_SERVICE_VERSION", Version),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
	if log != nil {
		log.Info("config loaded",
			"db_driver", cfg.DBDriver,
			"study_timezone", cfg.StudyTimezone.String(),
			"curriculum_dir", cfg.CurriculumDir,
			"curriculum_watch", cfg.CurriculumWatch,
			"dedup_cache", cfg.RedisAddr != "",
			"metrics", cfg.MetricsEnabled,
			"otel", cfg.Otel.Enabled,
		)
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
