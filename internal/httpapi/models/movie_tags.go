package models

// explicit join model: composite primary key, no duplicate links per pair
type MovieTag struct {
	MovieID int64 `json:"movie_id" gorm:"primaryKey"`
	TagID   int64 `json:"tag_id" gorm:"primaryKey"`
}

func (MovieTag) TableName() string {
	return "movie_tags"
}
