package study

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lattice-backend/internal/curriculum"
	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

type AttemptLog struct {
	Attempt     *types.Attempt      `json:"attempt"`
	Snapshots   []*types.Snapshot   `json:"snapshots"`
	StuckPoints []*types.StuckPoint `json:"stuck_points"`
	Reflections []*types.Reflection `json:"reflections"`
}

type ProblemLog struct {
	Problem  *types.Problem        `json:"problem"`
	Attempts []AttemptLog          `json:"attempts"`
	Schedule *types.ScheduleRecord `json:"schedule,omitempty"`
	// ColdSolve is for display only; the scheduler never reads it.
	ColdSolve bool `json:"cold_solve"`
	Solved    bool `json:"solved"`
}

type StudyLogEntry struct {
	Curriculum curriculum.Entry `json:"curriculum"`
	Progress   *ProblemLog      `json:"progress,omitempty"`
}

type StudyStats struct {
	Attempted  int   `json:"attempted"`
	Solved     int   `json:"solved"`
	ColdSolves int   `json:"cold_solves"`
	Due        int64 `json:"due"`
}

type StudyLog struct {
	Entries  []StudyLogEntry `json:"entries"`
	Unlisted []*ProblemLog   `json:"unlisted"`
	Stats    StudyStats      `json:"stats"`
}

// QueryStudyLog merges the curriculum with the learner's recorded work. With
// a title, the result narrows to the curriculum entry of that title and to the
// learner's problems matching it (exact normalized title, else prefix); a
// matching problem outside the curriculum is reported as unlisted.
func (u Usecases) QueryStudyLog(ctx context.Context, userID uuid.UUID, title string) (*StudyLog, error) {
	ctx, span := u.startSpan(ctx, "QueryStudyLog")
	defer span.End()

	if userID == uuid.Nil {
		return nil, apierr.Unauthenticated()
	}
	filter := types.NormalizeTitle(title)

	logs, due, err := u.loadProblemLogs(ctx, userID)
	if err != nil {
		u.deps.Log.Error("load study log failed", "op", "QueryStudyLog", "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "load_study_log_failed", err)
	}

	entries := u.deps.Catalog.Entries()
	matched := matchEntries(entries, logs)

	var wanted map[uuid.UUID]bool
	if filter != "" {
		wanted = problemsMatching(logs, filter)
	}
	keep := func(pl *ProblemLog) bool {
		return filter == "" || wanted[pl.Problem.ID]
	}

	out := &StudyLog{Entries: []StudyLogEntry{}, Unlisted: []*ProblemLog{}}
	used := map[uuid.UUID]bool{}
	for i, e := range entries {
		pl := matched[i]
		if pl != nil {
			used[pl.Problem.ID] = true
		}
		if filter != "" && e.NormalizedTitle != filter && (pl == nil || !wanted[pl.Problem.ID]) {
			continue
		}
		out.Entries = append(out.Entries, StudyLogEntry{Curriculum: e, Progress: pl})
	}
	for _, pl := range logs {
		if !used[pl.Problem.ID] && keep(pl) {
			out.Unlisted = append(out.Unlisted, pl)
		}
	}

	for _, pl := range logs {
		if len(pl.Attempts) > 0 {
			out.Stats.Attempted++
		}
		if pl.Solved {
			out.Stats.Solved++
		}
		if pl.ColdSolve {
			out.Stats.ColdSolves++
		}
	}
	out.Stats.Due = due
	return out, nil
}

// matchEntries pairs catalog entries with problems: exact normalized titles
// first, then the first unclaimed problem whose title starts with the
// entry's. The prefix pass is a heuristic for titles stored with a suffix.
func matchEntries(entries []curriculum.Entry, logs []*ProblemLog) []*ProblemLog {
	out := make([]*ProblemLog, len(entries))
	byTitle := make(map[string]*ProblemLog, len(logs))
	for _, pl := range logs {
		byTitle[pl.Problem.NormalizedTitle] = pl
	}
	claimed := map[uuid.UUID]bool{}
	for i, e := range entries {
		if pl, ok := byTitle[e.NormalizedTitle]; ok && !claimed[pl.Problem.ID] {
			out[i] = pl
			claimed[pl.Problem.ID] = true
		}
	}
	for i, e := range entries {
		if out[i] != nil || e.NormalizedTitle == "" {
			continue
		}
		for _, pl := range logs {
			if claimed[pl.Problem.ID] {
				continue
			}
			if strings.HasPrefix(pl.Problem.NormalizedTitle, e.NormalizedTitle) {
				out[i] = pl
				claimed[pl.Problem.ID] = true
				break
			}
		}
	}
	return out
}

// problemsMatching picks the learner's problems titled exactly filter or,
// when none is, those whose title starts with it.
func problemsMatching(logs []*ProblemLog, filter string) map[uuid.UUID]bool {
	out := map[uuid.UUID]bool{}
	for _, pl := range logs {
		if pl.Problem.NormalizedTitle == filter {
			out[pl.Problem.ID] = true
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, pl := range logs {
		if strings.HasPrefix(pl.Problem.NormalizedTitle, filter) {
			out[pl.Problem.ID] = true
		}
	}
	return out
}

func (u Usecases) loadProblemLogs(ctx context.Context, userID uuid.UUID) ([]*ProblemLog, int64, error) {
	dbc := dbctx.Context{Ctx: ctx}
	problems, err := u.deps.Problems.ListByUser(dbc, userID)
	if err != nil {
		return nil, 0, err
	}
	problemIDs := make([]uuid.UUID, 0, len(problems))
	for _, p := range problems {
		problemIDs = append(problemIDs, p.ID)
	}
	attempts, err := u.deps.Attempts.ListByProblemIDs(dbc, problemIDs)
	if err != nil {
		return nil, 0, err
	}
	attemptIDs := make([]uuid.UUID, 0, len(attempts))
	for _, a := range attempts {
		attemptIDs = append(attemptIDs, a.ID)
	}

	var (
		snaps     []*types.Snapshot
		stucks    []*types.StuckPoint
		refls     []*types.Reflection
		schedules []*types.ScheduleRecord
		due       int64
	)
	g, gctx := errgroup.WithContext(ctx)
	gdbc := dbctx.Context{Ctx: gctx}
	g.Go(func() (err error) {
		snaps, err = u.deps.Snapshots.ListByAttemptIDs(gdbc, attemptIDs)
		return err
	})
	g.Go(func() (err error) {
		stucks, err = u.deps.StuckPoints.ListByAttemptIDs(gdbc, attemptIDs)
		return err
	})
	g.Go(func() (err error) {
		refls, err = u.deps.Reflections.ListByAttemptIDs(gdbc, attemptIDs)
		return err
	})
	g.Go(func() (err error) {
		schedules, err = u.deps.Schedules.ListByProblemIDs(gdbc, problemIDs)
		return err
	})
	g.Go(func() (err error) {
		due, err = u.deps.Schedules.CountDue(gdbc, userID, EndOfDay(u.now(), u.deps.Location))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	byAttempt := make(map[uuid.UUID]*AttemptLog, len(attempts))
	byProblem := make(map[uuid.UUID]*ProblemLog, len(problems))
	out := make([]*ProblemLog, 0, len(problems))
	for _, p := range problems {
		pl := &ProblemLog{Problem: p, Attempts: []AttemptLog{}}
		byProblem[p.ID] = pl
		out = append(out, pl)
	}
	for _, s := range schedules {
		if pl := byProblem[s.ProblemID]; pl != nil {
			pl.Schedule = s
		}
	}
	// Attempts arrive ordered by started_at; AttemptLogs are appended in
	// that order and then addressed by index.
	for _, a := range attempts {
		pl := byProblem[a.ProblemID]
		if pl == nil {
			continue
		}
		pl.Attempts = append(pl.Attempts, AttemptLog{
			Attempt:     a,
			Snapshots:   []*types.Snapshot{},
			StuckPoints: []*types.StuckPoint{},
			Reflections: []*types.Reflection{},
		})
	}
	for _, pl := range out {
		for i := range pl.Attempts {
			byAttempt[pl.Attempts[i].Attempt.ID] = &pl.Attempts[i]
		}
	}
	for _, s := range snaps {
		if al := byAttempt[s.AttemptID]; al != nil {
			al.Snapshots = append(al.Snapshots, s)
		}
	}
	for _, s := range stucks {
		if al := byAttempt[s.AttemptID]; al != nil {
			al.StuckPoints = append(al.StuckPoints, s)
		}
	}
	for _, r := range refls {
		if al := byAttempt[r.AttemptID]; al != nil {
			al.Reflections = append(al.Reflections, r)
		}
	}
	for _, pl := range out {
		pl.Solved = isSolved(pl.Attempts)
		pl.ColdSolve = isColdSolve(pl.Attempts)
	}
	return out, due, nil
}

func isSolved(attempts []AttemptLog) bool {
	for _, a := range attempts {
		if a.Attempt.Passed {
			return true
		}
	}
	return false
}

// isColdSolve: the first attempt was completed and passed with at most one
// snapshot.
func isColdSolve(attempts []AttemptLog) bool {
	if len(attempts) == 0 {
		return false
	}
	first := attempts[0].Attempt
	return first.Status == types.AttemptCompleted && first.Passed && first.SnapshotCount <= 1
}
