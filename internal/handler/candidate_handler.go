package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intervia/intervia-backend/internal/middleware"
	"github.com/intervia/intervia-backend/internal/model"
	"github.com/intervia/intervia-backend/internal/response"
	"github.com/intervia/intervia-backend/internal/service"
	"github.com/intervia/intervia-backend/internal/validator"
)

// CandidateHandler handles candidate registration and résumé upload.
type CandidateHandler struct {
	candidates *service.CandidateService
	resumes    *service.ResumeService
	tokens     *service.TokenService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(
	candidates *service.CandidateService,
	resumes *service.ResumeService,
	tokens *service.TokenService,
) *CandidateHandler {
	return &CandidateHandler{
		candidates: candidates,
		resumes:    resumes,
		tokens:     tokens,
	}
}

// Register godoc
// POST /api/v1/candidates
// Creates an anonymous candidate from a manually entered profile and
// returns the candidate token.
func (h *CandidateHandler) Register(c *gin.Context) {
	var req model.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cand, err := h.candidates.Register(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.tokens.GenerateCandidateToken(cand.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"candidate": cand,
		"token":     token,
	})
}

// GetProfile godoc
// GET /api/v1/candidates/me
// Returns the authenticated candidate's current profile.
func (h *CandidateHandler) GetProfile(c *gin.Context) {
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

	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}

// UploadResume godoc
// POST /api/v1/candidates/resume
// Accepts a multipart résumé (pdf/txt/md), extracts a profile via the
// inference API, and stores it on the candidate.
func (h *CandidateHandler) UploadResume(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	profile, storedPath, err := h.resumes.ProcessUpload(c.Request.Context(), claims.CandidateID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		case errors.Is(err, service.ErrExtractionFailed):
			response.Fail(c, http.StatusBadGateway, response.ErrExtractionFailed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"profile":     profile,
		"resume_path": storedPath,
	})
}
