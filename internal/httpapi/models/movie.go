package models

import "time"

// MediaType is the closed set of catalog entry kinds.
const (
	MediaTypeMovie      = "movie"
	MediaTypeTV         = "tv"
	MediaTypeAnime      = "anime"
	MediaTypeAnimeMovie = "anime_movie"
)

// ValidMediaType reports whether t is one of the four accepted media types.
func ValidMediaType(t string) bool {
	switch t {
	case MediaTypeMovie, MediaTypeTV, MediaTypeAnime, MediaTypeAnimeMovie:
		return true
	}
	return false
}

type Movie struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"not null"`
	MediaType   string    `json:"media_type" gorm:"not null;index"`
	Rating      *float64  `json:"rating,omitempty" gorm:"type:decimal(3,1)"`
	ReleaseYear *int      `json:"release_year,omitempty"`
	Comment     *string   `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// associations
	Images []Image `json:"images,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Tags   []Tag   `json:"tags,omitempty" gorm:"many2many:movie_tags;constraint:OnDelete:CASCADE;"`
}

func (Movie) TableName() string {
	return "movies"
}
