package study

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	"github.com/yungbote/lattice-backend/internal/data/repos"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/yungbote/lattice-backend/internal/modules/study")

// Recorder receives domain counters. Implementations must be safe for
// concurrent use.
type Recorder interface {
	IngestResult(entity string, created bool)
	ReviewOutcome(result string)
}

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Problems    repos.ProblemRepo
	Attempts    repos.AttemptRepo
	Snapshots   repos.SnapshotRepo
	StuckPoints repos.StuckPointRepo
	Reflections repos.ReflectionRepo
	Schedules   repos.ScheduleRepo

	Catalog *curriculum.Catalog

	// Optional.
	Dedup   DedupCache
	Metrics Recorder

	// Location decides where "today" ends for the default due window.
	Location *time.Location
	Now      func() time.Time
}

type Usecases struct {
	deps   UsecasesDeps
	flight *singleflight.Group
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Catalog == nil {
		deps.Catalog = curriculum.FromEntries(nil)
	}
	return Usecases{deps: deps, flight: &singleflight.Group{}}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	u.deps.Log = log
	return u
}

func (u Usecases) Catalog() *curriculum.Catalog { return u.deps.Catalog }

func (u Usecases) now() time.Time { return u.deps.Now() }

func (u Usecases) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "study."+name)
}

func (u Usecases) recordIngest(entity string, created bool) {
	if u.deps.Metrics != nil {
		u.deps.Metrics.IngestResult(entity, created)
	}
}
