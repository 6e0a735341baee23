package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a user's rating of a tour. A user can review a tour at most once,
// enforced by the composite unique index.
type Review struct {
	ID     uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Review string    `json:"review" gorm:"type:text;not null"`
	Rating float64   `json:"rating" gorm:"not null"`

	TourID uuid.UUID `json:"tour" gorm:"type:char(36);not null;uniqueIndex:idx_review_tour_user"`
	UserID uuid.UUID `json:"-" gorm:"type:char(36);not null;uniqueIndex:idx_review_tour_user"`
	User   *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate sets the UUID before creating the record.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
