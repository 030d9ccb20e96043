package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMiles(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{name: "same point", a: Point{40, -74}, b: Point{40, -74}, want: 0, tol: 1e-9},
		{name: "nyc to la", a: Point{40.7128, -74.0060}, b: Point{34.0522, -118.2437}, want: 2445.6, tol: 5},
		{name: "one degree of latitude", a: Point{0, 0}, b: Point{1, 0}, want: EarthRadiusMiles * math.Pi / 180, tol: 1e-6},
		{name: "antipodes", a: Point{0, 0}, b: Point{0, 180}, want: EarthRadiusMiles * math.Pi, tol: 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceMiles(tt.a, tt.b), tt.tol)
		})
	}
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	a := Point{40.7128, -74.0060}
	b := Point{40.7306, -73.9352}
	assert.InDelta(t, DistanceMiles(a, b), DistanceMiles(b, a), 1e-9)
}

func TestPoint_Validate(t *testing.T) {
	assert.NoError(t, Point{90, 180}.Validate())
	assert.NoError(t, Point{-90, -180}.Validate())
	assert.Error(t, Point{90.1, 0}.Validate())
	assert.Error(t, Point{0, -180.5}.Validate())
	assert.Error(t, Point{math.NaN(), 0}.Validate())
}
