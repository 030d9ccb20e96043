package listing

import (
	"math"
	"strings"

	"go-market/internal/apperr"
	"go-market/internal/geo"
)

// Filter is a discovery request. Nil fields impose no constraint. A non-empty
// OwnerID selects "mine" mode: sold listings are kept and only that owner's
// listings match.
type Filter struct {
	Text        string
	MinPrice    *float64
	MaxPrice    *float64
	Origin      *geo.Point
	RadiusMiles *float64
	OwnerID     string
}

func (f Filter) Mine() bool {
	return f.OwnerID != ""
}

func (f Filter) distanceActive() bool {
	return f.Origin != nil && f.RadiusMiles != nil
}

func (f Filter) Validate() error {
	if invalidBound(f.MinPrice) {
		return apperr.Validation("min_price must be a number >= 0")
	}
	if invalidBound(f.MaxPrice) {
		return apperr.Validation("max_price must be a number >= 0")
	}
	if invalidBound(f.RadiusMiles) {
		return apperr.Validation("radius must be a number >= 0")
	}
	if f.Origin != nil {
		if err := f.Origin.Validate(); err != nil {
			return apperr.Validation("%v", err)
		}
	}
	return nil
}

// invalidBound reports a set bound that is NaN or negative.
func invalidBound(v *float64) bool {
	return v != nil && (math.IsNaN(*v) || *v < 0)
}

// Apply returns the listings matching every predicate in f, in input order.
func Apply(listings []Listing, f Filter) []Listing {
	out := make([]Listing, 0, len(listings))
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MaxPrice < *f.MinPrice {
		return out
	}

	text := strings.ToLower(strings.TrimSpace(f.Text))
	for _, l := range listings {
		if f.matches(l, text) {
			out = append(out, l)
		}
	}
	return out
}

func (f Filter) matches(l Listing, text string) bool {
	if f.Mine() {
		if l.OwnerID != f.OwnerID {
			return false
		}
	} else if l.Sold {
		return false
	}

	if text != "" &&
		!strings.Contains(strings.ToLower(l.Title), text) &&
		!strings.Contains(strings.ToLower(l.Description), text) {
		return false
	}

	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}

	if f.distanceActive() {
		loc, ok := l.Location()
		if !ok {
			return false
		}
		if geo.DistanceMiles(*f.Origin, loc) > *f.RadiusMiles {
			return false
		}
	}
	return true
}
