package models

import "time"

type GalleryImage struct {
	ID        int       `json:"id" db:"id"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	ImageKey string  `json:"-" db:"image_key"`
	ImageURL *string `json:"image,omitempty" db:"-"`
}
