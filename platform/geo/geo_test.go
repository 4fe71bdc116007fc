package geo

import (
	"math"
	"testing"

	"fixmarket_backend/platform/apperr"
)

func TestDistance_KnownPairs(t *testing.T) {
	cases := []struct {
		name   string
		a, b   Point
		wantKm float64
		tolKm  float64
	}{
		{"same point", Point{40.0, -75.0}, Point{40.0, -75.0}, 0, 0.001},
		// One degree of latitude is ~111.19 km on a 6371 km sphere.
		{"one degree latitude", Point{0, 0}, Point{1, 0}, 111.19, 0.1},
		{"philly suburbs", Point{40.0, -75.0}, Point{40.05, -75.0}, 5.56, 0.05},
		{"new york to london", Point{40.7128, -74.0060}, Point{51.5074, -0.1278}, 5570, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Distance(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tc.wantKm) > tc.tolKm {
				t.Fatalf("expected ~%.2f km, got %.2f km", tc.wantKm, got)
			}
		})
	}
}

func TestWithinRadius_Containment(t *testing.T) {
	origin := Point{40.0, -75.0}
	point := Point{40.05, -75.0} // ~5.56 km north

	within, err := WithinRadius(origin, point, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !within {
		t.Fatal("expected point ~5.56km away to be within a 10km radius")
	}

	within, err = WithinRadius(origin, point, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if within {
		t.Fatal("expected point ~5.56km away to be outside a 5km radius")
	}
}

func TestWithinRadius_BoundaryEpsilon(t *testing.T) {
	origin := Point{40.0, -75.0}
	point := Point{40.05, -75.0}

	dist, err := Distance(origin, point)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	within, err := WithinRadius(origin, point, dist+0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !within {
		t.Fatal("expected point at radius+epsilon containment to be within")
	}

	within, err = WithinRadius(origin, point, dist-0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if within {
		t.Fatal("expected point just past the radius to be outside")
	}
}

func TestDistance_RejectsOutOfRangeCoordinates(t *testing.T) {
	cases := []struct {
		name string
		a, b Point
	}{
		{"latitude too high", Point{91, 0}, Point{0, 0}},
		{"latitude too low", Point{-90.5, 0}, Point{0, 0}},
		{"longitude too high", Point{0, 181}, Point{0, 0}},
		{"longitude too low", Point{0, 0}, Point{0, -180.1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Distance(tc.a, tc.b)
			if err == nil {
				t.Fatal("expected an error for out-of-range coordinate")
			}
			if !apperr.HasCode(err, apperr.CodeInvalidCoordinate) {
				t.Fatalf("expected invalid_coordinate code, got %q", apperr.GetCode(err))
			}
		})
	}
}

func TestWithinRadius_RejectsNegativeRadius(t *testing.T) {
	if _, err := WithinRadius(Point{0, 0}, Point{0, 0}, -1); err == nil {
		t.Fatal("expected an error for negative radius")
	}
}
