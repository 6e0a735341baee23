package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Difficulty is the closed set of tour difficulties.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Location is a GeoJSON-style point attached to a tour.
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

// Tour represents a bookable tour.
type Tour struct {
	ID              uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Name            string          `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Slug            string          `json:"slug" gorm:"uniqueIndex;size:255"`
	Duration        int             `json:"duration" gorm:"not null"`
	DurationWeeks   float64         `json:"durationWeeks" gorm:"-"`
	MaxGroupSize    int             `json:"maxGroupSize" gorm:"not null"`
	Difficulty      Difficulty      `json:"difficulty" gorm:"size:20;not null"`
	RatingsAverage  float64         `json:"ratingsAverage" gorm:"default:4.5;index"`
	RatingsQuantity int             `json:"ratingsQuantity" gorm:"default:0"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;index"`
	PriceDiscount   decimal.Decimal `json:"priceDiscount,omitempty" gorm:"type:decimal(10,2)"`
	Summary         string          `json:"summary" gorm:"size:1024;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	ImageCover      string          `json:"imageCover" gorm:"size:255;not null"`
	Images          []string        `json:"images" gorm:"serializer:json"`
	StartDates      []time.Time     `json:"startDates" gorm:"serializer:json"`

	// Secret tours are offered privately and excluded from all read paths.
	Secret bool `json:"-" gorm:"default:false;index"`

	StartLocation *Location  `json:"startLocation,omitempty" gorm:"serializer:json"`
	Locations     []Location `json:"locations,omitempty" gorm:"serializer:json"`

	// Scalar copies of the start coordinates, kept in sync on save so the
	// radius and distance queries can run against plain indexed columns.
	StartLat float64 `json:"-" gorm:"index"`
	StartLng float64 `json:"-"`

	// Relations
	Guides  []User   `json:"guides,omitempty" gorm:"many2many:tour_guides"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:TourID"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeSave sets the UUID and derives the slug from the name.
func (t *Tour) BeforeSave(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Name != "" {
		t.Slug = Slugify(t.Name)
	}
	if t.StartLocation != nil && len(t.StartLocation.Coordinates) >= 2 {
		t.StartLng = t.StartLocation.Coordinates[0]
		t.StartLat = t.StartLocation.Coordinates[1]
	}
	return nil
}

// AfterFind derives computed fields after loading the record.
func (t *Tour) AfterFind(tx *gorm.DB) error {
	if t.Duration > 0 {
		t.DurationWeeks = float64(t.Duration) / 7
	}
	return nil
}

// Slugify lowercases the name and replaces non-alphanumeric runs with a
// single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := true // avoid a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
