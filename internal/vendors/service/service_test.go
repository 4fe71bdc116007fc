package service

import (
	"testing"

	"fixmarket_backend/internal/vendors/repository"
	"fixmarket_backend/platform/geo"
)

func TestNormalizePhone(t *testing.T) {
	svc := &Service{defaultRegion: "US"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"national format", "(215) 555-0123", "+12155550123", false},
		{"already e164", "+12155550123", "+12155550123", false},
		{"with spaces", " 215 555 0123 ", "+12155550123", false},
		{"garbage", "not a phone", "", true},
		{"too short", "12345", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.normalizePhone(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizePhone(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("normalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterByServiceRadius(t *testing.T) {
	near := repository.Vendor{Name: "near", Lat: 40.0, Lon: -75.0, RadiusKm: 10}
	tight := repository.Vendor{Name: "tight", Lat: 40.0, Lon: -75.0, RadiusKm: 2}
	far := repository.Vendor{Name: "far", Lat: 41.0, Lon: -75.0, RadiusKm: 10}

	// roughly 5.5km from the shared vendor location
	origin := geo.Point{Lat: 40.05, Lon: -75.0}

	got, err := filterByServiceRadius([]repository.Vendor{near, tight, far}, origin)
	if err != nil {
		t.Fatalf("filterByServiceRadius() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "near" {
		t.Fatalf("expected only the near vendor, got %+v", got)
	}
}

func TestFilterByServiceRadiusRejectsBadOrigin(t *testing.T) {
	vendors := []repository.Vendor{{Lat: 40.0, Lon: -75.0, RadiusKm: 10}}

	if _, err := filterByServiceRadius(vendors, geo.Point{Lat: 95.0, Lon: 0}); err == nil {
		t.Fatal("expected out-of-range origin to error")
	}
}
