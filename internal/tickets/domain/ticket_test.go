package domain

import (
	"testing"
	"time"
)

func TestExpiryFor(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		severity Severity
		want     time.Duration
	}{
		{"high gets twenty minutes", SeverityHigh, 20 * time.Minute},
		{"medium gets twenty four hours", SeverityMedium, 24 * time.Hour},
		{"low gets forty eight hours", SeverityLow, 48 * time.Hour},
		{"unset gets forty eight hours", "", 48 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpiryFor(tt.severity, now)
			if got.Sub(now) != tt.want {
				t.Fatalf("ExpiryFor(%q) window = %v, want %v", tt.severity, got.Sub(now), tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusOpen, StatusDispatched},
		{StatusOpen, StatusQuoted},
		{StatusOpen, StatusExpired},
		{StatusDispatched, StatusQuoted},
		{StatusDispatched, StatusExpired},
		{StatusDispatched, StatusOpen},
		{StatusQuoted, StatusAccepted},
		{StatusQuoted, StatusExpired},
		{StatusAccepted, StatusCompleted},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusQuoted, StatusOpen},
		{StatusAccepted, StatusExpired},
		{StatusAccepted, StatusOpen},
		{StatusCompleted, StatusOpen},
		{StatusCompleted, StatusExpired},
		{StatusExpired, StatusOpen},
		{StatusExpired, StatusDispatched},
		{StatusOpen, StatusAccepted},
		{StatusOpen, StatusCompleted},
	}
	for _, tr := range denied {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be denied", tr.from, tr.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusCompleted) || !IsTerminal(StatusExpired) {
		t.Fatal("expected completed and expired to be terminal")
	}
	for _, s := range []Status{StatusOpen, StatusDispatched, StatusQuoted, StatusAccepted} {
		if IsTerminal(s) {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestExpirable(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusDispatched, StatusQuoted} {
		if !Expirable(s) {
			t.Errorf("expected %s to be expirable", s)
		}
	}
	for _, s := range []Status{StatusAccepted, StatusCompleted, StatusExpired} {
		if Expirable(s) {
			t.Errorf("expected %s to not be expirable", s)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	if got := ParseSeverity("high"); got != SeverityHigh {
		t.Fatalf("ParseSeverity(high) = %q", got)
	}
	if got := ParseSeverity("critical"); got != "" {
		t.Fatalf("ParseSeverity(critical) = %q, want empty", got)
	}
	if got := ParseSeverity(""); got != "" {
		t.Fatalf("ParseSeverity(empty) = %q, want empty", got)
	}
}
