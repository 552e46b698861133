package dto

import (
	"time"

	"filmvault/internal/httpapi/models"
)

// MovieFilters carries the normalized query parameters for GET /api/movies.
// Zero values / nil pointers mean "no constraint".
type MovieFilters struct {
	Page      int
	Limit     int
	MediaType string
	TagIDs    []int64
	MinRating *float64
	MaxRating *float64
	MinYear   *int
	MaxYear   *int
	Keyword   string
	SortBy    string // createdAt | rating | releaseYear
	Order     string // asc | desc
}

// CreateMovieDTO is the multipart form for POST /api/movies. tag_ids arrives
// as a JSON array encoded in a string field, e.g. "[1,2]".
type CreateMovieDTO struct {
	Title       string   `form:"title" binding:"required"`
	MediaType   string   `form:"media_type" binding:"required"`
	Rating      *float64 `form:"rating"`
	ReleaseYear *int     `form:"release_year"`
	Comment     *string  `form:"comment"`
	TagIDs      string   `form:"tag_ids"`
	CoverIndex  *int     `form:"cover_index"`
}

// CreateMovieInput is the parsed form the service consumes.
type CreateMovieInput struct {
	Title       string
	MediaType   string
	Rating      *float64
	ReleaseYear *int
	Comment     *string
	TagIDs      []int64
	CoverIndex  int
}

// UpdateMovieDTO is the JSON body for PUT /api/movies/:id. Every field is
// independently optional; nil means "leave unchanged". A non-nil TagIDs
// (even empty) fully replaces the movie's tag set.
type UpdateMovieDTO struct {
	Title       *string  `json:"title,omitempty"`
	MediaType   *string  `json:"media_type,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ReleaseYear *int     `json:"release_year,omitempty"`
	Comment     *string  `json:"comment,omitempty"`
	TagIDs      *[]int64 `json:"tag_ids,omitempty"`
}

type ImageResponse struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	IsCover   bool      `json:"is_cover"`
	CreatedAt time.Time `json:"created_at"`
}

// MovieDetailResponse is the full projection: all images (cover first), all
// tags, comment included.
type MovieDetailResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	MediaType   string          `json:"media_type"`
	Rating      *float64        `json:"rating,omitempty"`
	ReleaseYear *int            `json:"release_year,omitempty"`
	Comment     *string         `json:"comment,omitempty"`
	Images      []ImageResponse `json:"images"`
	Tags        []TagResponse   `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MovieListItemResponse is the reduced projection for paginated lists: the
// declared cover plus resolved tag names only.
type MovieListItemResponse struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	MediaType   string         `json:"media_type"`
	Rating      *float64       `json:"rating,omitempty"`
	ReleaseYear *int           `json:"release_year,omitempty"`
	Cover       *ImageResponse `json:"cover,omitempty"`
	Tags        []string       `json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Converters

func ImageFromModel(img models.Image) ImageResponse {
	return ImageResponse{
		ID:        img.ID,
		Path:      img.Path,
		IsCover:   img.IsCover,
		CreatedAt: img.CreatedAt,
	}
}

func MovieToDetail(m models.Movie) MovieDetailResponse {
	images := make([]ImageResponse, 0, len(m.Images))
	for _, img := range m.Images {
		images = append(images, ImageFromModel(img))
	}
	tags := make([]TagResponse, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, TagFromModel(t))
	}
	return MovieDetailResponse{
		ID:          m.ID,
		Title:       m.Title,
		MediaType:   m.MediaType,
		Rating:      m.Rating,
		ReleaseYear: m.ReleaseYear,
		Comment:     m.Comment,
		Images:      images,
		Tags:        tags,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func MovieToListItem(m models.Movie) MovieListItemResponse {
	var cover *ImageResponse
	for _, img := range m.Images {
		if img.IsCover {
			c := ImageFromModel(img)
			cover = &c
			break
		}
	}
	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		tags = append(tags, t.Name)
	}
	return MovieListItemResponse{
		ID:          m.ID,
		Title:       m.Title,
		MediaType:   m.MediaType,
		Rating:      m.Rating,
		ReleaseYear: m.ReleaseYear,
		Cover:       cover,
		Tags:        tags,
		CreatedAt:   m.CreatedAt,
	}
}
