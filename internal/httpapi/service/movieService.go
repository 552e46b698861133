package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/models"
	"filmvault/internal/storage"

	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// MovieRepository is the slice of the catalog repository the movie service
// consumes.
type MovieRepository interface {
	Create(ctx context.Context, m *models.Movie, images []models.Image, tagIDs []int64) error
	GetAll(ctx context.Context, f dto.MovieFilters) ([]models.Movie, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Movie, error)
	Update(ctx context.Context, id int64, fields map[string]any, tagIDs *[]int64) error
	Delete(ctx context.Context, id int64) error
	AddImages(ctx context.Context, movieID int64, images []models.Image, clearCovers bool) error
	GetImage(ctx context.Context, movieID, imageID int64) (*models.Image, error)
	DeleteImage(ctx context.Context, movieID, imageID int64) error
}

// TagRepository is the batch-lookup surface used for tag-id validation.
type TagRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.Tag, error)
}

// FileStore is the best-effort file cleanup surface of the media file
// manager.
type FileStore interface {
	Delete(rel string)
	DeleteMany(rels []string)
}

type MovieService interface {
	Create(ctx context.Context, in dto.CreateMovieInput, files []storage.StoredFile) (*dto.MovieDetailResponse, error)
	GetAll(ctx context.Context, f dto.MovieFilters) ([]dto.MovieListItemResponse, dto.Pagination, error)
	GetByID(ctx context.Context, id int64) (*dto.MovieDetailResponse, error)
	Update(ctx context.Context, id int64, in dto.UpdateMovieDTO) (*dto.MovieDetailResponse, error)
	Delete(ctx context.Context, id int64) error
	AddImages(ctx context.Context, movieID int64, files []storage.StoredFile, setCover bool) error
	DeleteImage(ctx context.Context, movieID, imageID int64) error
}

type movieService struct {
	repo   MovieRepository
	tags   TagRepository
	files  FileStore
	logger *slog.Logger
}

func NewMovieService(repo MovieRepository, tags TagRepository, files FileStore, logger *slog.Logger) MovieService {
	return &movieService{repo: repo, tags: tags, files: files, logger: logger}
}

// Create validates the input, then delegates a single atomic insert of the
// movie, its images and its tag links. Files were already written to storage
// by the upload boundary, so every failure path deletes them before
// returning — a failed create leaves neither rows nor files behind.
func (s *movieService) Create(ctx context.Context, in dto.CreateMovieInput, files []storage.StoredFile) (*dto.MovieDetailResponse, error) {
	cleanup := func() {
		s.files.DeleteMany(relPaths(files))
	}

	if err := s.validateCreate(in, len(files)); err != nil {
		cleanup()
		return nil, err
	}
	tagIDs, err := s.normalizeTagIDs(ctx, in.TagIDs)
	if err != nil {
		cleanup()
		return nil, err
	}

	m := models.Movie{
		Title:       strings.TrimSpace(in.Title),
		MediaType:   in.MediaType,
		Rating:      in.Rating,
		ReleaseYear: in.ReleaseYear,
		Comment:     in.Comment,
	}

	images := make([]models.Image, 0, len(files))
	for i, f := range files {
		images = append(images, models.Image{
			Path:    f.RelPath,
			IsCover: i == in.CoverIndex,
		})
	}

	if err := s.repo.Create(ctx, &m, images, tagIDs); err != nil {
		s.logger.Error("movie create failed, cleaning up stored files",
			"title", in.Title, "files", len(files), "error", err)
		cleanup()
		return nil, apperr.Internal("failed to create movie", err)
	}

	return s.GetByID(ctx, m.ID)
}

func (s *movieService) validateCreate(in dto.CreateMovieInput, fileCount int) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title is required")
	}
	if !models.ValidMediaType(in.MediaType) {
		return apperr.Validation("invalid media_type %q", in.MediaType)
	}
	if err := validateRating(in.Rating); err != nil {
		return err
	}
	if fileCount > 0 && (in.CoverIndex < 0 || in.CoverIndex >= fileCount) {
		return apperr.Validation("cover_index %d out of range for %d images", in.CoverIndex, fileCount)
	}
	return nil
}

// normalizeTagIDs batch-resolves the requested ids so any missing id fails
// the whole operation before a single write happens. The returned set has
// duplicates removed (first-seen order); repeating an id must not trip the
// link table's composite key.
func (s *movieService) normalizeTagIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return ids, nil
	}
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	found, err := s.tags.FindByIDs(ctx, unique)
	if err != nil {
		return nil, apperr.Internal("failed to resolve tags", err)
	}
	if len(found) != len(unique) {
		return nil, apperr.Validation("one or more tag ids do not exist")
	}
	return unique, nil
}

func validateRating(r *float64) error {
	if r != nil && (*r < 0 || *r > 10) {
		return apperr.Validation("rating must be between 0 and 10")
	}
	return nil
}

// GetAll applies paging defaults, clamps the page size at 100 and returns
// list projections with pagination metadata.
func (s *movieService) GetAll(ctx context.Context, f dto.MovieFilters) ([]dto.MovieListItemResponse, dto.Pagination, error) {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if _, ok := map[string]bool{"createdAt": true, "rating": true, "releaseYear": true}[f.SortBy]; !ok {
		f.SortBy = "createdAt"
	}
	if f.Order != "asc" && f.Order != "desc" {
		f.Order = "desc"
	}
	if f.MediaType != "" && !models.ValidMediaType(f.MediaType) {
		return nil, dto.Pagination{}, apperr.Validation("invalid media_type %q", f.MediaType)
	}

	list, total, err := s.repo.GetAll(ctx, f)
	if err != nil {
		return nil, dto.Pagination{}, apperr.Internal("failed to list movies", err)
	}

	items := make([]dto.MovieListItemResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.MovieToListItem(m))
	}

	p := dto.Pagination{
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: int64(math.Ceil(float64(total) / float64(f.Limit))),
	}
	return items, p, nil
}

func (s *movieService) GetByID(ctx context.Context, id int64) (*dto.MovieDetailResponse, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("movie %d not found", id)
		}
		return nil, apperr.Internal("failed to load movie", err)
	}
	detail := dto.MovieToDetail(*m)
	return &detail, nil
}

// Update validates only the supplied fields and applies them, together with
// a full tag-set replacement when TagIDs is present, as one atomic write.
func (s *movieService) Update(ctx context.Context, id int64, in dto.UpdateMovieDTO) (*dto.MovieDetailResponse, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.MediaType != nil {
		if !models.ValidMediaType(*in.MediaType) {
			return nil, apperr.Validation("invalid media_type %q", *in.MediaType)
		}
		fields["media_type"] = *in.MediaType
	}
	if in.Rating != nil {
		if err := validateRating(in.Rating); err != nil {
			return nil, err
		}
		fields["rating"] = *in.Rating
	}
	if in.ReleaseYear != nil {
		fields["release_year"] = *in.ReleaseYear
	}
	if in.Comment != nil {
		fields["comment"] = *in.Comment
	}

	var tagIDs *[]int64
	if in.TagIDs != nil {
		normalized, err := s.normalizeTagIDs(ctx, *in.TagIDs)
		if err != nil {
			return nil, err
		}
		tagIDs = &normalized
	}

	if len(fields) == 0 && tagIDs == nil {
		// nothing to change, return current state
		return s.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, fields, tagIDs); err != nil {
		return nil, apperr.Internal("failed to update movie", err)
	}

	return s.GetByID(ctx, id)
}

// Delete removes the movie's files from storage best-effort, then deletes the
// row; images and tag links cascade at the storage layer.
func (s *movieService) Delete(ctx context.Context, id int64) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("movie %d not found", id)
		}
		return apperr.Internal("failed to load movie", err)
	}

	paths := make([]string, 0, len(m.Images))
	for _, img := range m.Images {
		paths = append(paths, img.Path)
	}
	s.files.DeleteMany(paths)

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Internal("failed to delete movie", err)
	}
	return nil
}

// AddImages appends gallery files to an existing movie. With setCover the
// first file becomes the new cover and existing covers are cleared in the
// same transaction. A movie that had no images gets a cover regardless.
func (s *movieService) AddImages(ctx context.Context, movieID int64, files []storage.StoredFile, setCover bool) error {
	cleanup := func() {
		s.files.DeleteMany(relPaths(files))
	}

	if len(files) == 0 {
		return apperr.Validation("at least one image file is required")
	}

	m, err := s.repo.GetByID(ctx, movieID)
	if err != nil {
		cleanup()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("movie %d not found", movieID)
		}
		return apperr.Internal("failed to load movie", err)
	}

	// keep the exactly-one-cover invariant: the first image a movie ever
	// gets is its cover even without the explicit flag
	makeCover := setCover || len(m.Images) == 0

	images := make([]models.Image, 0, len(files))
	for i, f := range files {
		images = append(images, models.Image{
			Path:    f.RelPath,
			IsCover: makeCover && i == 0,
		})
	}

	if err := s.repo.AddImages(ctx, movieID, images, setCover); err != nil {
		s.logger.Error("image insert failed, cleaning up stored files",
			"movie_id", movieID, "files", len(files), "error", err)
		cleanup()
		return apperr.Internal("failed to add images", err)
	}
	return nil
}

// DeleteImage rejects image ids that exist but belong to another movie the
// same way as nonexistent ones. Cover promotion happens inside the
// repository transaction.
func (s *movieService) DeleteImage(ctx context.Context, movieID, imageID int64) error {
	img, err := s.repo.GetImage(ctx, movieID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("image %d not found for movie %d", imageID, movieID)
		}
		return apperr.Internal("failed to load image", err)
	}

	s.files.Delete(img.Path)

	if err := s.repo.DeleteImage(ctx, movieID, imageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("image %d not found for movie %d", imageID, movieID)
		}
		return apperr.Internal("failed to delete image", err)
	}
	return nil
}

func relPaths(files []storage.StoredFile) []string {
	rels := make([]string, 0, len(files))
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	return rels
}
