package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating           = 1
	MaxRating           = 5
	MaxReviewTextLength = 2000
	MaxReplyTextLength  = 1000
)

// Review is buyer feedback on a product with at most one seller reply.
// ReplyText and RepliedAt are always set together.
type Review struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ProductID uuid.UUID  `json:"product_id" db:"product_id"`
	AuthorID  uuid.UUID  `json:"author_id" db:"author_id"`
	Rating    int        `json:"rating" db:"rating"`
	Text      string     `json:"text" db:"text"`
	ReplyText *string    `json:"reply_text" db:"reply_text"`
	RepliedAt *time.Time `json:"replied_at" db:"replied_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Replied reports whether the seller has answered
func (r *Review) Replied() bool {
	return r.ReplyText != nil && r.RepliedAt != nil
}
