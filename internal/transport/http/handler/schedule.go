package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/usecase"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	uc     *usecase.ScheduleUsecase
	logger *slog.Logger
}

func NewScheduleHandler(uc *usecase.ScheduleUsecase, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{uc: uc, logger: logger.With("component", "schedule_handler")}
}

type createScheduleRequest struct {
	TemplateID      string                 `json:"template_id"`
	PostID          string                 `json:"post_id"`
	Name            string                 `json:"name"              binding:"required,max=256"`
	Kind            domain.Kind            `json:"kind"              binding:"required,oneof=one_shot cron rrule"`
	Spec            string                 `json:"spec"              binding:"required"`
	Timezone        string                 `json:"timezone"`
	SelectionPolicy domain.SelectionPolicy `json:"selection_policy"  binding:"omitempty,oneof=RANDOM_UNIFORM RANDOM_WEIGHTED ROUND_ROBIN NO_REPEAT_WINDOW"`
	NoRepeatWindow  int                    `json:"no_repeat_window"`
	NoRepeatScope   domain.NoRepeatScope   `json:"no_repeat_scope"   binding:"omitempty,oneof=template schedule"`
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.CreateSchedule(c.Request.Context(), usecase.CreateScheduleInput{
		AccountID:       c.GetString("userID"),
		TemplateID:      req.TemplateID,
		PostID:          req.PostID,
		Name:            req.Name,
		Kind:            req.Kind,
		Spec:            req.Spec,
		Timezone:        req.Timezone,
		SelectionPolicy: req.SelectionPolicy,
		NoRepeatWindow:  req.NoRepeatWindow,
		NoRepeatScope:   req.NoRepeatScope,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleSpecInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": errScheduleSpecInvalid})
		case errors.Is(err, domain.ErrNoActiveVariants):
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoActiveVariants})
		case errors.Is(err, domain.ErrScheduleContentSource):
			c.JSON(http.StatusBadRequest, gin.H{"error": errScheduleContentSource})
		case errors.Is(err, domain.ErrPostNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": errPostNotFound})
		case errors.Is(err, domain.ErrPostDeleted):
			c.JSON(http.StatusBadRequest, gin.H{"error": errPostDeleted})
		case errors.Is(err, domain.ErrScheduleNameConflict):
			c.JSON(http.StatusConflict, gin.H{"error": errScheduleNameConflict})
		default:
			h.logger.Error("create schedule", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusCreated, s)
}

func (h *ScheduleHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.uc.ListSchedules(c.Request.Context(), usecase.ListSchedulesInput{
		AccountID: c.GetString("userID"),
		Cursor:    c.Query("cursor"),
		Limit:     limit,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCursor) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCursor})
			return
		}
		h.logger.Error("list schedules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedules":   result.Schedules,
		"next_cursor": result.NextCursor,
	})
}

func (h *ScheduleHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	s, err := h.uc.GetSchedule(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("get schedule", "schedule_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, s)
}

func (h *ScheduleHandler) Pause(c *gin.Context) {
	id := c.Param("id")

	err := h.uc.PauseSchedule(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleAlreadyPaused):
			c.JSON(http.StatusConflict, gin.H{"error": errScheduleAlreadyPaused})
		default:
			h.logger.Error("pause schedule", "schedule_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Resume(c *gin.Context) {
	id := c.Param("id")

	err := h.uc.ResumeSchedule(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrScheduleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
		case errors.Is(err, domain.ErrScheduleNotPaused):
			c.JSON(http.StatusConflict, gin.H{"error": errScheduleNotPaused})
		default:
			h.logger.Error("resume schedule", "schedule_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.uc.DeleteSchedule(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("delete schedule", "schedule_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ScheduleHandler) ListJobs(c *gin.Context) {
	id := c.Param("id")
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.uc.ListScheduleJobs(c.Request.Context(), usecase.ListScheduleJobsInput{
		ScheduleID: id,
		AccountID:  c.GetString("userID"),
		Cursor:     c.Query("cursor"),
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrScheduleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errScheduleNotFound})
			return
		}
		h.logger.Error("list schedule jobs", "schedule_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":        result.Jobs,
		"next_cursor": result.NextCursor,
	})
}
