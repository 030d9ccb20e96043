package listing

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go-market/internal/apperr"
	"go-market/internal/geo"
)

const maxTitleLength = 200

type Listing struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"`
	PhotoURL    *string   `json:"photo_url,omitempty" db:"photo_url"`
	Sold        bool      `json:"sold" db:"sold"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Location reports the listing's coordinate, if it has one.
func (l Listing) Location() (geo.Point, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *l.Latitude, Lng: *l.Longitude}, true
}

// Query is what the gateway can filter on; everything else happens in Apply.
type Query struct {
	OwnerID     string
	ExcludeSold bool
}

type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	PhotoURL    *string  `json:"photo_url"`
}

func (r *CreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)

	if r.Title == "" {
		return apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(r.Title) > maxTitleLength {
		return apperr.Validation("title must be at most %d characters", maxTitleLength)
	}
	if r.Price == nil {
		return apperr.Validation("price is required")
	}
	if math.IsNaN(*r.Price) || math.IsInf(*r.Price, 0) || *r.Price < 0 {
		return apperr.Validation("price must be a number >= 0")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return apperr.Validation("latitude and longitude must be given together")
	}
	if r.Latitude != nil {
		if err := (geo.Point{Lat: *r.Latitude, Lng: *r.Longitude}).Validate(); err != nil {
			return apperr.Validation("%v", err)
		}
	}
	if r.PhotoURL != nil && strings.TrimSpace(*r.PhotoURL) == "" {
		r.PhotoURL = nil
	}
	return nil
}

func (r CreateRequest) toListing(ownerID string) *Listing {
	return &Listing{
		OwnerID:     ownerID,
		Title:       r.Title,
		Description: r.Description,
		Price:       *r.Price,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		PhotoURL:    r.PhotoURL,
	}
}

// Detail is a listing as seen by one caller.
type Detail struct {
	*Listing
	Favorited bool `json:"favorited"`
}
