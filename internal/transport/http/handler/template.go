package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/repository"
	"github.com/ancodefactory/postpilot/internal/usecase"
	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	uc     *usecase.TemplateUsecase
	logger *slog.Logger
}

func NewTemplateHandler(uc *usecase.TemplateUsecase, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{uc: uc, logger: logger.With("component", "template_handler")}
}

type createTemplateRequest struct {
	Name string `json:"name" binding:"required,max=256"`
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.uc.CreateTemplate(c.Request.Context(), usecase.CreateTemplateInput{
		AccountID: c.GetString("userID"),
		Name:      req.Name,
	})
	if err != nil {
		h.logger.Error("create template", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, t)
}

func (h *TemplateHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	t, err := h.uc.GetTemplate(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errTemplateNotFound})
			return
		}
		h.logger.Error("get template", "template_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *TemplateHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	templates, err := h.uc.ListTemplates(c.Request.Context(), repository.ListTemplatesInput{
		AccountID: c.GetString("userID"),
		Limit:     limit,
	})
	if err != nil {
		h.logger.Error("list templates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *TemplateHandler) SetActive(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.uc.SetTemplateActive(c.Request.Context(), id, c.GetString("userID"), req.Active); err != nil {
		if errors.Is(err, domain.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errTemplateNotFound})
			return
		}
		h.logger.Error("set template active", "template_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusNoContent)
}

type createVariantRequest struct {
	Text      string   `json:"text"   binding:"required,max=280"`
	MediaURLs []string `json:"media_urls"`
	Weight    float64  `json:"weight"`
}

func (h *TemplateHandler) CreateVariant(c *gin.Context) {
	templateID := c.Param("id")

	var req createVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.uc.CreateVariant(c.Request.Context(), usecase.CreateVariantInput{
		TemplateID: templateID,
		Text:       req.Text,
		MediaURLs:  req.MediaURLs,
		Weight:     req.Weight,
	})
	if err != nil {
		if errors.Is(err, domain.ErrContentTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errContentTooLong})
			return
		}
		h.logger.Error("create variant", "template_id", templateID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, v)
}

func (h *TemplateHandler) ListVariants(c *gin.Context) {
	templateID := c.Param("id")

	variants, err := h.uc.ListActiveVariants(c.Request.Context(), templateID)
	if err != nil {
		h.logger.Error("list variants", "template_id", templateID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

func (h *TemplateHandler) SetVariantActive(c *gin.Context) {
	variantID := c.Param("variant_id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.uc.SetVariantActive(c.Request.Context(), variantID, req.Active); err != nil {
		if errors.Is(err, domain.ErrVariantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errVariantNotFound})
			return
		}
		h.logger.Error("set variant active", "variant_id", variantID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusNoContent)
}
