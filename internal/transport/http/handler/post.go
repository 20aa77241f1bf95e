package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ancodefactory/postpilot/internal/domain"
	"github.com/ancodefactory/postpilot/internal/usecase"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	uc     *usecase.PostUsecase
	logger *slog.Logger
}

func NewPostHandler(uc *usecase.PostUsecase, logger *slog.Logger) *PostHandler {
	return &PostHandler{uc: uc, logger: logger.With("component", "post_handler")}
}

type createPostRequest struct {
	Text      string   `json:"text" binding:"required,max=280"`
	MediaURLs []string `json:"media_urls"`
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.uc.CreatePost(c.Request.Context(), usecase.CreatePostInput{
		AccountID: c.GetString("userID"),
		Text:      req.Text,
		MediaURLs: req.MediaURLs,
	})
	if err != nil {
		if errors.Is(err, domain.ErrContentTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errContentTooLong})
			return
		}
		h.logger.Error("create post", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *PostHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	p, err := h.uc.GetPost(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errPostNotFound})
			return
		}
		h.logger.Error("get post", "post_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.uc.DeletePost(c.Request.Context(), id, c.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": errPostNotFound})
		case errors.Is(err, domain.ErrPostDeleted):
			c.JSON(http.StatusConflict, gin.H{"error": errPostDeleted})
		default:
			h.logger.Error("delete post", "post_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
