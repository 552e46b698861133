package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filmvault/internal/httpapi/dto"
	"filmvault/internal/httpapi/models"

	"gorm.io/gorm"
)

type MovieRepo struct {
	db *gorm.DB
}

func NewMovieRepo(db *gorm.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// sortColumns maps the API sort keys to real columns. Anything not listed
// falls back to created_at.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"rating":      "rating",
	"releaseYear": "release_year",
}

// Create inserts the movie, its images and its tag links as one transaction.
// If any part fails nothing is persisted.
func (r *MovieRepo) Create(ctx context.Context, m *models.Movie, images []models.Image, tagIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images", "Tags").Create(m).Error; err != nil {
			return fmt.Errorf("create movie: %w", err)
		}
		if len(images) > 0 {
			for i := range images {
				images[i].MovieID = m.ID
			}
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("create images: %w", err)
			}
		}
		if len(tagIDs) > 0 {
			links := make([]models.MovieTag, 0, len(tagIDs))
			for _, tid := range tagIDs {
				links = append(links, models.MovieTag{MovieID: m.ID, TagID: tid})
			}
			if err := tx.Create(&links).Error; err != nil {
				return fmt.Errorf("create tag links: %w", err)
			}
		}
		return nil
	})
}

// applyFilters composes the predicate conjunction shared by the count and the
// page fetch, so pagination metadata always matches the fetched page.
func applyFilters(db *gorm.DB, f dto.MovieFilters) *gorm.DB {
	if f.MediaType != "" {
		db = db.Where("media_type = ?", f.MediaType)
	}
	if f.MinRating != nil {
		db = db.Where("rating >= ?", *f.MinRating)
	}
	if f.MaxRating != nil {
		db = db.Where("rating <= ?", *f.MaxRating)
	}
	if f.MinYear != nil {
		db = db.Where("release_year >= ?", *f.MinYear)
	}
	if f.MaxYear != nil {
		db = db.Where("release_year <= ?", *f.MaxYear)
	}
	if f.Keyword != "" {
		p := "%" + f.Keyword + "%"
		db = db.Where("title ILIKE ? OR COALESCE(comment, '') ILIKE ?", p, p)
	}
	if len(f.TagIDs) > 0 {
		// "any of" semantics; the subquery keeps multi-tag matches from
		// duplicating rows
		db = db.Where("id IN (SELECT movie_id FROM movie_tags WHERE tag_id IN ?)", f.TagIDs)
	}
	return db
}

// GetAll runs the count and the page fetch as two independent reads over the
// same predicate. Under concurrent writes total can drift from the page by a
// row; accepted for a read-mostly admin tool.
func (r *MovieRepo) GetAll(ctx context.Context, f dto.MovieFilters) ([]models.Movie, int64, error) {
	var total int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&models.Movie{}), f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "desc"
	if f.Order == "asc" {
		direction = "asc"
	}

	offset := (f.Page - 1) * f.Limit

	var list []models.Movie
	if err := applyFilters(r.db.WithContext(ctx).Model(&models.Movie{}), f).
		Preload("Images", "is_cover = ?", true).
		Preload("Tags").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Limit(f.Limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}

	return list, total, nil
}

// GetByID loads the full detail graph: all images cover-first then by
// creation order, plus tags.
func (r *MovieRepo) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	var m models.Movie
	if err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_cover desc, created_at asc, id asc")
		}).
		Preload("Tags").
		First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Update applies the supplied field changes and, when tagIDs is non-nil,
// replaces the movie's tag set, all inside one transaction. tagIDs == nil
// leaves the links untouched; an empty slice clears them.
func (r *MovieRepo) Update(ctx context.Context, id int64, fields map[string]any, tagIDs *[]int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Movie{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return fmt.Errorf("update movie: %w", err)
			}
		}
		if tagIDs != nil {
			if err := tx.Where("movie_id = ?", id).Delete(&models.MovieTag{}).Error; err != nil {
				return fmt.Errorf("clear tag links: %w", err)
			}
			if len(*tagIDs) > 0 {
				links := make([]models.MovieTag, 0, len(*tagIDs))
				for _, tid := range *tagIDs {
					links = append(links, models.MovieTag{MovieID: id, TagID: tid})
				}
				if err := tx.Create(&links).Error; err != nil {
					return fmt.Errorf("insert tag links: %w", err)
				}
			}
			if len(fields) == 0 {
				// a pure tag replacement still touches updated_at
				if err := tx.Model(&models.Movie{}).Where("id = ?", id).
					Update("updated_at", time.Now()).Error; err != nil {
					return fmt.Errorf("touch movie: %w", err)
				}
			}
		}
		return nil
	})
}

// Delete removes the movie row; images and tag links go with it via the
// storage-layer cascade.
func (r *MovieRepo) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Movie{}, id).Error; err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}

// AddImages bulk-inserts image rows. When clearCovers is set the movie's
// existing covers are cleared in the same transaction, so no reader observes
// two covers.
func (r *MovieRepo) AddImages(ctx context.Context, movieID int64, images []models.Image, clearCovers bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clearCovers {
			if err := tx.Model(&models.Image{}).Where("movie_id = ?", movieID).
				Update("is_cover", false).Error; err != nil {
				return fmt.Errorf("clear covers: %w", err)
			}
		}
		for i := range images {
			images[i].MovieID = movieID
		}
		if err := tx.Create(&images).Error; err != nil {
			return fmt.Errorf("create images: %w", err)
		}
		return nil
	})
}

// GetImage looks an image up by id scoped to its owning movie, so an id that
// belongs to a different movie behaves like a missing one.
func (r *MovieRepo) GetImage(ctx context.Context, movieID, imageID int64) (*models.Image, error) {
	var img models.Image
	if err := r.db.WithContext(ctx).
		Where("id = ? AND movie_id = ?", imageID, movieID).
		First(&img).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteImage removes the row and, when it was the cover, promotes the
// chronologically first remaining image of the movie in the same transaction.
// A movie with images is never left without a cover.
func (r *MovieRepo) DeleteImage(ctx context.Context, movieID, imageID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img models.Image
		if err := tx.Where("id = ? AND movie_id = ?", imageID, movieID).First(&img).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Image{}, img.ID).Error; err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		if img.IsCover {
			var next models.Image
			err := tx.Where("movie_id = ?", movieID).
				Order("created_at asc, id asc").
				First(&next).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // last image removed, nothing to promote
			}
			if err != nil {
				return fmt.Errorf("find replacement cover: %w", err)
			}
			if err := tx.Model(&models.Image{}).Where("id = ?", next.ID).
				Update("is_cover", true).Error; err != nil {
				return fmt.Errorf("promote cover: %w", err)
			}
		}
		return nil
	})
}
