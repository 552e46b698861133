package repository

import (
	"context"
	"fmt"

	"filmvault/internal/httpapi/models"

	"gorm.io/gorm"
)

type TagRepo struct {
	db *gorm.DB
}

func NewTagRepo(db *gorm.DB) *TagRepo {
	return &TagRepo{db: db}
}

func (r *TagRepo) GetAll(ctx context.Context) ([]models.Tag, error) {
	var list []models.Tag
	if err := r.db.WithContext(ctx).Order("created_at asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	return list, nil
}

func (r *TagRepo) Create(ctx context.Context, t *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		// keep gorm.ErrDuplicatedKey visible for the service's conflict mapping
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *TagRepo) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByIDs is the batch existence lookup used for tag-id validation. The
// caller compares the result size against the requested id count; a missing
// id simply yields a smaller set.
func (r *TagRepo) FindByIDs(ctx context.Context, ids []int64) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Tag
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find tags by ids: %w", err)
	}
	return list, nil
}
