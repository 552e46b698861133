package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tagCacheKey = "tags:all"

// TagVocabulary is the repository surface of the tag store.
type TagVocabulary interface {
	GetAll(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, t *models.Tag) error
	FindByName(ctx context.Context, name string) (*models.Tag, error)
}

type TagService interface {
	GetAll(ctx context.Context) ([]dto.TagResponse, error)
	Create(ctx context.Context, name string) (*dto.TagResponse, error)
}

type tagService struct {
	repo     TagVocabulary
	cache    *redis.Client // optional; nil disables caching
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewTagService(repo TagVocabulary, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) TagService {
	return &tagService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// GetAll returns the vocabulary ordered by creation time. The read-mostly
// list is cached in Redis; any cache failure falls through to the database.
func (s *tagService) GetAll(ctx context.Context) ([]dto.TagResponse, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	list, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list tags", err)
	}

	resp := make([]dto.TagResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, dto.TagFromModel(t))
	}

	s.toCache(ctx, resp)
	return resp, nil
}

// Create inserts a new uniquely-named tag. Names are trimmed; an existing
// name is a conflict, not a silent merge.
func (s *tagService) Create(ctx context.Context, name string) (*dto.TagResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("tag name must not be empty")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, apperr.Conflict("tag %q already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("failed to check tag name", err)
	}

	t := models.Tag{Name: name}
	if err := s.repo.Create(ctx, &t); err != nil {
		// unique index still guards the race between check and insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("tag %q already exists", name)
		}
		return nil, apperr.Internal("failed to create tag", err)
	}

	s.invalidateCache(ctx)

	resp := dto.TagFromModel(t)
	return &resp, nil
}

func (s *tagService) fromCache(ctx context.Context) []dto.TagResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, tagCacheKey).Bytes()
	if err != nil {
		return nil // miss or cache down, read the database
	}
	var resp []dto.TagResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	return resp
}

func (s *tagService) toCache(ctx context.Context, resp []dto.TagResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, tagCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("tag cache write failed", "error", err)
	}
}

func (s *tagService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, tagCacheKey).Err(); err != nil {
		s.logger.Debug("tag cache invalidation failed", "error", err)
	}
}
