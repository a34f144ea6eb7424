package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lattice-backend/internal/http/response"
	"github.com/yungbote/lattice-backend/internal/modules/study"
	"github.com/yungbote/lattice-backend/internal/modules/study/srs"
)

type ScheduleHandler struct {
	study study.Usecases
}

func NewScheduleHandler(uc study.Usecases) *ScheduleHandler {
	return &ScheduleHandler{study: uc}
}

type reviewRequest struct {
	Result     srs.Result     `json:"result"`
	Confidence srs.Confidence `json:"confidence"`
	Multiplier float64        `json:"multiplier"`
}

// PUT /api/problems/:id/schedule
func (h *ScheduleHandler) UpsertSchedule(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	problemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in study.ScheduleInput
	if !bindJSON(c, &in) {
		return
	}
	rec, err := h.study.UpsertSchedule(c.Request.Context(), userID, problemID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedule": rec})
}

// POST /api/problems/:id/reviews
func (h *ScheduleHandler) Review(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	problemID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	rec, err := h.study.ReviewProblem(c.Request.Context(), userID, problemID, srs.Outcome{
		Result:     req.Result,
		Confidence: req.Confidence,
		Multiplier: req.Multiplier,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"schedule": rec})
}

// GET /api/reviews/due?as_of=RFC3339&limit=&cursor=
//
// Without limit or cursor every due record is returned. Paging is opt-in and
// answers with next_cursor until the list is exhausted.
func (h *ScheduleHandler) Due(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var asOf *time.Time
	if raw := c.Query("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_as_of", err)
			return
		}
		asOf = &t
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	cursor := c.Query("cursor")
	if limit == 0 && cursor == "" {
		due, err := h.study.QueryDueReviews(c.Request.Context(), userID, asOf, 0)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"reviews": due})
		return
	}
	page, err := h.study.QueryDueReviewsPage(c.Request.Context(), userID, study.DuePageInput{
		AsOf:   asOf,
		Limit:  limit,
		Cursor: cursor,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}
