package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/usecase"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	uc     *usecase.JobUsecase
	logger *slog.Logger
}

func NewJobHandler(uc *usecase.JobUsecase, logger *slog.Logger) *JobHandler {
	return &JobHandler{uc: uc, logger: logger.With("component", "job_handler")}
}

func (h *JobHandler) GetByID(c *gin.Context) {
	jobID := c.Param("id")

	job, err := h.uc.GetByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
			return
		}
		h.logger.Error("get job by id", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, job)
}

type cancelJobRequest struct {
	Reason string `json:"reason"`
}

func (h *JobHandler) Cancel(c *gin.Context) {
	jobID := c.Param("id")

	var req cancelJobRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by operator"
	}

	if err := h.uc.Cancel(c.Request.Context(), jobID, req.Reason); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "job is no longer cancellable"})
		default:
			h.logger.Error("cancel job", "job_id", jobID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *JobHandler) ListAttempts(c *gin.Context) {
	jobID := c.Param("id")

	attempts, err := h.uc.ListAttempts(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("list attempts", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": attempts})
}
