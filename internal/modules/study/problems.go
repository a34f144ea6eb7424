package study

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/apierr"
	"github.com/yungbote/lattice-backend/internal/platform/dbctx"
)

const maxTitleLen = 300

type ProblemInput struct {
	Title          string   `json:"title"`
	SourcePlatform string   `json:"source_platform,omitempty"`
	SourceURL      string   `json:"source_url,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// EnsureProblem returns the learner's problem for the title, creating it on
// first use. Missing metadata is filled from the curriculum entry with the
// same title.
func (u Usecases) EnsureProblem(ctx context.Context, userID uuid.UUID, in ProblemInput) (*types.Problem, error) {
	ctx, span := u.startSpan(ctx, "EnsureProblem")
	defer span.End()

	if userID == uuid.Nil {
		return nil, apierr.Unauthenticated()
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.Validation("missing_title", "title is required")
	}
	if len(title) > maxTitleLen {
		return nil, apierr.Validation("invalid_title", "title exceeds %d bytes", maxTitleLen)
	}
	norm := types.NormalizeTitle(title)

	pattern := strings.TrimSpace(in.Pattern)
	difficulty := strings.ToLower(strings.TrimSpace(in.Difficulty))
	tags := in.Tags
	if e, ok := u.deps.Catalog.Lookup(norm); ok {
		if pattern == "" {
			pattern = e.Pattern
		}
		if difficulty == "" {
			difficulty = e.Difficulty
		}
		if len(tags) == 0 {
			tags = e.Tags
		}
	}
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return nil, apierr.Validation("invalid_tags", "tags: %v", err)
	}

	row := &types.Problem{
		UserID:          userID,
		Title:           title,
		NormalizedTitle: norm,
		SourcePlatform:  strings.TrimSpace(in.SourcePlatform),
		SourceURL:       strings.TrimSpace(in.SourceURL),
		Pattern:         pattern,
		Difficulty:      difficulty,
		Tags:            datatypes.JSON(rawTags),
	}
	p, created, err := u.deps.Problems.FindOrCreate(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		u.deps.Log.Error("ensure problem failed", "op", "EnsureProblem", "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "ensure_problem_failed", err)
	}
	if p == nil {
		return nil, apierr.New(http.StatusInternalServerError, "ensure_problem_failed", nil)
	}
	if created {
		u.deps.Log.Info("problem created", "problem_id", p.ID, "user_id", userID)
	}
	return p, nil
}
