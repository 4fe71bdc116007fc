package service

import (
	"testing"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		name  string
		cents *int64
		want  string
		wantNil bool
	}{
		{"whole dollars", ptr(10000), "100.00", false},
		{"with cents", ptr(12550), "125.50", false},
		{"sub dollar", ptr(99), "0.99", false},
		{"average of 100 and 150", ptr(12500), "125.00", false},
		{"missing data", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCents(tt.cents)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("FormatCents(nil) = %q, want nil", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Fatalf("FormatCents(%d) = %v, want %q", *tt.cents, got, tt.want)
			}
		})
	}
}

func ptr(v int64) *int64 { return &v }
