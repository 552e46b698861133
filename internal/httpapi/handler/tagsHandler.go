package handler

import (
	"context"
	"time"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/middleware"
	"filmvault/internal/httpapi/response"
	"filmvault/internal/httpapi/service"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	svc service.TagService
	dev bool
}

func NewTagHandler(svc service.TagService, dev bool) *TagHandler {
	return &TagHandler{svc: svc, dev: dev}
}

func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	// only the admin curates the vocabulary
	rg.POST("", middleware.RequireAdmin(), h.Create)
}

func (h *TagHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	list, err := h.svc.GetAll(ctx)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}
	response.OK(c, "tags retrieved", list)
}

func (h *TagHandler) Create(c *gin.Context) {
	var in dto.CreateTagDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, apperr.Validation("%s", err.Error()), h.dev)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.svc.Create(ctx, in.Name)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}
	response.Created(c, "tag created", tag)
}
