package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intervia/intervia-backend/internal/interview"
	"github.com/intervia/intervia-backend/internal/middleware"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/intervia/intervia-backend/internal/response"
	"github.com/intervia/intervia-backend/internal/service"
	"github.com/intervia/intervia-backend/internal/validator"
)

// InterviewHandler drives the REST side of the interview lifecycle.
type InterviewHandler struct {
	manager    *interview.Manager
	candidates *service.CandidateService
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(manager *interview.Manager, candidates *service.CandidateService) *InterviewHandler {
	return &InterviewHandler{
		manager:    manager,
		candidates: candidates,
	}
}

// Start godoc
// POST /api/v1/interview/start
// Generates the question list from the candidate profile and starts the
// timed session. Question Source failure is retryable and creates nothing.
func (h *InterviewHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	profile, err := h.candidates.GetProfile(c.Request.Context(), claims.CandidateID)
	if err != nil {
		if errors.Is(err, service.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	ctrl, err := h.manager.StartSession(c.Request.Context(), claims.CandidateID, *profile)
	if err != nil {
		if errors.Is(err, interview.ErrQuestionSource) {
			response.Fail(c, http.StatusBadGateway, response.ErrQuestionSource)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, viewPayload(ctrl.Snapshot()))
}

// State godoc
// GET /api/v1/interview/state
// Returns the live session snapshot: state, current question, countdown.
func (h *InterviewHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ctrl := h.manager.Get(claims.CandidateID)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}

	response.Success(c, http.StatusOK, viewPayload(ctrl.Snapshot()))
}

// Answer godoc
// POST /api/v1/interview/answer
// Submits a manual answer for the current question. A stale index (double
// click, raced by expiry) is rejected without side effects.
func (h *InterviewHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ctrl := h.manager.Get(claims.CandidateID)
	if ctrl == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}

	if err := ctrl.Submit(c.Request.Context(), req.Index, req.Text); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
		return
	}

	response.Success(c, http.StatusOK, viewPayload(ctrl.Snapshot()))
}

// Abandon godoc
// POST /api/v1/interview/abandon
// Tears the session down, optionally archiving the partial transcript.
func (h *InterviewHandler) Abandon(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AbandonRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.manager.Abandon(c.Request.Context(), claims.CandidateID, req.Archive); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"abandoned": true})
}

// Resume godoc
// POST /api/v1/interview/resume
// Restores an interrupted session from its snapshot.
func (h *InterviewHandler) Resume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ctrl, err := h.manager.ResumeSession(c.Request.Context(), claims.CandidateID)
	if err != nil {
		switch {
		case errors.Is(err, interview.ErrNoSnapshot):
			response.Fail(c, http.StatusNotFound, response.ErrNoSnapshot)
		case errors.Is(err, interview.ErrInvalidState):
			response.Fail(c, http.StatusConflict, response.ErrInvalidState)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, viewPayload(ctrl.Snapshot()))
}

// viewPayload shapes a controller view for the REST envelope. The full
// question list stays server-side; clients only ever see the current one.
func viewPayload(v interview.View) gin.H {
	payload := gin.H{
		"state":             v.State,
		"remaining_seconds": v.RemainingSeconds,
		"staged":            v.StagedText != "",
	}
	if v.Session != nil {
		payload["session_id"] = v.Session.ID
		payload["index"] = v.Session.CurrentIndex
		payload["question_count"] = len(v.Session.Questions)
		payload["answered"] = len(v.Session.Answers)
		payload["current_question"] = v.CurrentQuestion
		if v.Session.IsComplete {
			payload["final_score"] = v.Session.FinalScore
			payload["score_source"] = v.Session.ScoreSource
			payload["summary"] = v.Session.ScoringSummary
			payload["per_question"] = v.Session.PerQuestion
		}
	}
	return payload
}
