package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/http/response"
	"github.com/yungbote/lattice-backend/internal/modules/study"
	"github.com/yungbote/lattice-backend/internal/platform/ctxutil"
)

const maxBodyBytes = 512 << 10

type StudyHandler struct {
	study study.Usecases
}

func NewStudyHandler(uc study.Usecases) *StudyHandler {
	return &StudyHandler{study: uc}
}

type recordAttemptRequest struct {
	ProblemID  *uuid.UUID `json:"problem_id"`
	Title      string     `json:"title"`
	ClientOpID string     `json:"client_op_id"`
	StartedAt  *time.Time `json:"started_at"`
}

type recordSnapshotRequest struct {
	ClientOpID  string     `json:"client_op_id"`
	CapturedAt  *time.Time `json:"captured_at"`
	Trigger     string     `json:"trigger"`
	Code        string     `json:"code"`
	TestOutcome *string    `json:"test_outcome"`
}

type recordStuckPointRequest struct {
	ClientOpID     string     `json:"client_op_id"`
	OccurredAt     *time.Time `json:"occurred_at"`
	Description    string     `json:"description"`
	CodeSnapshot   *string    `json:"code_snapshot"`
	IntendedAction *string    `json:"intended_action"`
}

type recordReflectionRequest struct {
	ClientOpID   string     `json:"client_op_id"`
	OccurredAt   *time.Time `json:"occurred_at"`
	Type         string     `json:"type"`
	Content      string     `json:"content"`
	CodeSnapshot *string    `json:"code_snapshot"`
	ColdHint     *string    `json:"cold_hint"`
	Confidence   *string    `json:"confidence"`
}

// POST /api/problems
func (h *StudyHandler) EnsureProblem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req study.ProblemInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.study.EnsureProblem(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"problem": p})
}

// POST /api/attempts
func (h *StudyHandler) RecordAttempt(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req recordAttemptRequest
	if !bindJSON(c, &req) {
		return
	}
	in := study.RecordAttemptInput{
		Title:      req.Title,
		ClientOpID: clientOpID(c, req.ClientOpID),
		StartedAt:  req.StartedAt,
	}
	if req.ProblemID != nil {
		in.ProblemID = *req.ProblemID
	}
	res, err := h.study.RecordAttempt(c.Request.Context(), userID, in)
	respondIngest(c, res, err)
}

// PATCH /api/attempts/:id
func (h *StudyHandler) UpdateAttempt(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var patch types.AttemptPatch
	if !bindJSON(c, &patch) {
		return
	}
	a, err := h.study.UpdateAttempt(c.Request.Context(), userID, attemptID, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt": a})
}

// POST /api/attempts/:id/snapshots
func (h *StudyHandler) RecordSnapshot(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req recordSnapshotRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.study.RecordSnapshot(c.Request.Context(), userID, study.RecordSnapshotInput{
		AttemptID:   attemptID,
		ClientOpID:  clientOpID(c, req.ClientOpID),
		CapturedAt:  req.CapturedAt,
		Trigger:     req.Trigger,
		Code:        req.Code,
		TestOutcome: req.TestOutcome,
	})
	respondIngest(c, res, err)
}

// POST /api/attempts/:id/stuck-points
func (h *StudyHandler) RecordStuckPoint(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req recordStuckPointRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.study.RecordStuckPoint(c.Request.Context(), userID, study.RecordStuckPointInput{
		AttemptID:      attemptID,
		ClientOpID:     clientOpID(c, req.ClientOpID),
		OccurredAt:     req.OccurredAt,
		Description:    req.Description,
		CodeSnapshot:   req.CodeSnapshot,
		IntendedAction: req.IntendedAction,
	})
	respondIngest(c, res, err)
}

// POST /api/attempts/:id/reflections
func (h *StudyHandler) RecordReflection(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req recordReflectionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.study.RecordReflection(c.Request.Context(), userID, study.RecordReflectionInput{
		AttemptID:    attemptID,
		ClientOpID:   clientOpID(c, req.ClientOpID),
		OccurredAt:   req.OccurredAt,
		Type:         req.Type,
		Content:      req.Content,
		CodeSnapshot: req.CodeSnapshot,
		ColdHint:     req.ColdHint,
		Confidence:   req.Confidence,
	})
	respondIngest(c, res, err)
}

// GET /api/study-log?title=
func (h *StudyHandler) StudyLog(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	log, err := h.study.QueryStudyLog(c.Request.Context(), userID, c.Query("title"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, log)
}

// respondIngest answers 201 for a new row and 200 for a replay, with the
// same body either way.
func respondIngest(c *gin.Context, res study.IngestResult, err error) {
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if res.Created {
		response.RespondCreated(c, res)
		return
	}
	response.RespondOK(c, res)
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

// clientOpID takes the body field, falling back to the Idempotency-Key header.
func clientOpID(c *gin.Context, fromBody string) string {
	if strings.TrimSpace(fromBody) != "" {
		return fromBody
	}
	return c.GetHeader("Idempotency-Key")
}
