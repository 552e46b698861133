package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/middleware"
	"filmvault/internal/httpapi/response"
	"filmvault/internal/httpapi/service"
	"filmvault/internal/storage"

	"github.com/gin-gonic/gin"
)

type MovieHandler struct {
	svc   service.MovieService
	files service.FileStore
	dev   bool
}

func NewMovieHandler(svc service.MovieService, files service.FileStore, dev bool) *MovieHandler {
	return &MovieHandler{svc: svc, files: files, dev: dev}
}

// RegisterRoutes wires the catalog endpoints. The auth gate is applied on
// the parent group; uploads is the multipart boundary for the file routes.
func (h *MovieHandler) RegisterRoutes(rg *gin.RouterGroup, uploads gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.GET("/:movie_id", h.Get)
	rg.POST("", uploads, h.Create)
	rg.PUT("/:movie_id", h.Update)
	rg.DELETE("/:movie_id", h.Delete)
	rg.POST("/:movie_id/images", uploads, h.AddImages)
	rg.DELETE("/:movie_id/images/:image_id", h.DeleteImage)
}

func (h *MovieHandler) Create(c *gin.Context) {
	files := middleware.UploadedFiles(c)

	var in dto.CreateMovieDTO
	if err := c.ShouldBind(&in); err != nil {
		// the boundary already stored the files; don't leave them orphaned
		h.discard(files)
		response.Error(c, apperr.Validation("%s", err.Error()), h.dev)
		return
	}

	input := dto.CreateMovieInput{
		Title:       in.Title,
		MediaType:   in.MediaType,
		Rating:      in.Rating,
		ReleaseYear: in.ReleaseYear,
		Comment:     in.Comment,
	}
	if in.CoverIndex != nil {
		input.CoverIndex = *in.CoverIndex
	}
	if strings.TrimSpace(in.TagIDs) != "" {
		if err := json.Unmarshal([]byte(in.TagIDs), &input.TagIDs); err != nil {
			h.discard(files)
			response.Error(c, apperr.Validation("tag_ids must be a JSON array of integers"), h.dev)
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	detail, err := h.svc.Create(ctx, input, files)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.Created(c, "movie created", detail)
}

func (h *MovieHandler) List(c *gin.Context) {
	filters, err := parseMovieFilters(c)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	list, pagination, err := h.svc.GetAll(ctx, filters)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.Paginated(c, "movies retrieved", list, pagination)
}

func (h *MovieHandler) Get(c *gin.Context) {
	id, err := pathID(c, "movie_id")
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	detail, err := h.svc.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.OK(c, "movie retrieved", detail)
}

func (h *MovieHandler) Update(c *gin.Context) {
	id, err := pathID(c, "movie_id")
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	var in dto.UpdateMovieDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, apperr.Validation("%s", err.Error()), h.dev)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	detail, err := h.svc.Update(ctx, id, in)
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.OK(c, "movie updated", detail)
}

func (h *MovieHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "movie_id")
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.OK(c, "movie deleted", nil)
}

func (h *MovieHandler) AddImages(c *gin.Context) {
	id, err := pathID(c, "movie_id")
	if err != nil {
		h.discard(middleware.UploadedFiles(c))
		response.Error(c, err, h.dev)
		return
	}

	var setCover bool
	if v := c.PostForm("set_cover"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.discard(middleware.UploadedFiles(c))
			response.Error(c, apperr.Validation("set_cover must be a boolean"), h.dev)
			return
		}
		setCover = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.AddImages(ctx, id, middleware.UploadedFiles(c), setCover); err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.OK(c, "images added", nil)
}

func (h *MovieHandler) DeleteImage(c *gin.Context) {
	movieID, err := pathID(c, "movie_id")
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}
	imageID, err := pathID(c, "image_id")
	if err != nil {
		response.Error(c, err, h.dev)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.DeleteImage(ctx, movieID, imageID); err != nil {
		response.Error(c, err, h.dev)
		return
	}

	response.OK(c, "image deleted", nil)
}

// discard drops files the upload boundary stored for a request that failed
// before reaching the service.
func (h *MovieHandler) discard(files []storage.StoredFile) {
	rels := make([]string, 0, len(files))
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	h.files.DeleteMany(rels)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// parseMovieFilters reads the list query parameters; omitted filters stay at
// their zero values and impose no constraint.
func parseMovieFilters(c *gin.Context) (dto.MovieFilters, error) {
	var f dto.MovieFilters

	if p := c.Query("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			return f, apperr.Validation("page must be a positive integer")
		}
		f.Page = parsed
	}
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			return f, apperr.Validation("limit must be a positive integer")
		}
		f.Limit = parsed
	}

	f.MediaType = strings.TrimSpace(c.Query("media_type"))
	f.Keyword = strings.TrimSpace(c.Query("keyword"))
	f.SortBy = strings.TrimSpace(c.Query("sort_by"))
	f.Order = strings.TrimSpace(c.Query("order"))

	if csv := strings.TrimSpace(c.Query("tag_ids")); csv != "" {
		for _, part := range strings.Split(csv, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return f, apperr.Validation("tag_ids must be a comma-separated list of integers")
			}
			f.TagIDs = append(f.TagIDs, id)
		}
	}

	var err error
	if f.MinRating, err = queryFloat(c, "min_rating"); err != nil {
		return f, err
	}
	if f.MaxRating, err = queryFloat(c, "max_rating"); err != nil {
		return f, err
	}
	if f.MinYear, err = queryInt(c, "min_year"); err != nil {
		return f, err
	}
	if f.MaxYear, err = queryInt(c, "max_year"); err != nil {
		return f, err
	}

	return f, nil
}

func queryFloat(c *gin.Context, name string) (*float64, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperr.Validation("%s must be a number", name)
	}
	return &parsed, nil
}

func queryInt(c *gin.Context, name string) (*int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", name)
	}
	return &parsed, nil
}
