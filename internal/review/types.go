package review

import (
	"time"

	"github.com/google/uuid"

	"github.com/blakestevenson/marquee/internal/catalog"
)

// Review is one user's rating of one title
type Review struct {
	ID        uuid.UUID         `json:"id"`
	MediaID   int               `json:"mediaId"`
	MediaType catalog.MediaType `json:"mediaType"`
	Rating    int               `json:"rating"`
	Comment   *string           `json:"comment"`
	UserID    int64             `json:"userId"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	User      Author            `json:"user"`
}

// Author is the public projection of the reviewing user
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Key identifies the single review a user may hold for a title
type Key struct {
	MediaID   int
	MediaType catalog.MediaType
	UserID    int64
}

// SubmitParams is the body of a review submission
type SubmitParams struct {
	MediaID   int     `json:"mediaId" validate:"gt=0"`
	MediaType string  `json:"mediaType" validate:"required,oneof=movie tv"`
	Rating    int     `json:"rating" validate:"min=1,max=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=1000"`
}
