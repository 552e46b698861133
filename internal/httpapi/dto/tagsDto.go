package dto

import (
	"time"

	"filmvault/internal/httpapi/models"
)

// CreateTagDTO for POST /api/tags
type CreateTagDTO struct {
	Name string `json:"name" binding:"required"`
}

type TagResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func TagFromModel(t models.Tag) TagResponse {
	return TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
	}
}
