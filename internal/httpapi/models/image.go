package models

import "time"

// Image is a stored cover/gallery file owned by exactly one movie.
// Path is the relative storage path, opaque to clients.
type Image struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	MovieID   int64     `json:"movie_id" gorm:"index;not null"`
	Path      string    `json:"path" gorm:"not null"`
	IsCover   bool      `json:"is_cover" gorm:"default:false;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Image) TableName() string {
	return "movie_images"
}
