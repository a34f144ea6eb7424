package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/lattice-backend/internal/app"
	"github.com/yungbote/lattice-backend/internal/modules/study"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, app.Version+"\n", out)
}

func TestMigrateAndDue(t *testing.T) {
	t.Setenv("LOG_MODE", "test")
	dsn := filepath.Join(t.TempDir(), "lattice.db")

	out, err := run(t, "migrate", "--db-driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	cfg := app.Config{DBDriver: "sqlite", DSN: dsn, StudyTimezone: time.UTC}
	svc, err := app.OpenDB(logger.Nop(), cfg)
	require.NoError(t, err)
	uc := app.NewStudyUsecases(svc.DB(), logger.Nop(), cfg)
	user := uuid.New()
	ctx := context.Background()
	p, err := uc.EnsureProblem(ctx, user, study.ProblemInput{Title: "Two Sum", Difficulty: "easy"})
	require.NoError(t, err)
	_, err = uc.UpsertSchedule(ctx, user, p.ID, study.ScheduleInput{
		NextReviewAt: time.Now().Add(-time.Hour),
		IntervalDays: 1,
		EaseFactor:   2.5,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	out, err = run(t, "due", "--db-driver", "sqlite", "--dsn", dsn, "--user", user.String())
	require.NoError(t, err)
	assert.Contains(t, out, "1 problems due")
	assert.Contains(t, out, "Two Sum")

	out, err = run(t, "due", "--db-driver", "sqlite", "--dsn", dsn, "--user", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "No problems due."))

	_, err = run(t, "due", "--user", "nope")
	assert.Error(t, err)
}
