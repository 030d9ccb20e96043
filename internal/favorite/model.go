package favorite

import "time"

type Favorite struct {
	UserID    string    `json:"user_id" db:"user_id"`
	ListingID int64     `json:"listing_id" db:"listing_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Request struct {
	ListingID int64 `json:"listing_id"`
}

// State is the favorite state of one listing for the caller.
type State struct {
	ListingID int64 `json:"listing_id"`
	Favorited bool  `json:"favorited"`
}
