package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixmarket_backend/platform/logger"
)

func TestKeywordClassifier_OrderedRules(t *testing.T) {
	k := NewKeywordClassifier()

	cases := []struct {
		transcript string
		want       Category
	}{
		{"water leak under my sink", CategoryPlumbing},
		{"the toilet keeps running", CategoryPlumbing},
		{"breaker trips every morning", CategoryElectrical},
		{"sparking outlet in the kitchen", CategoryElectrical},
		{"the furnace will not start", CategoryHVAC},
		{"my dishwasher floods the floor", CategoryAppliance},
		{"dryer makes a grinding noise", CategoryAppliance},
		{"squeaky door hinge", CategoryGeneral},
		{"", CategoryGeneral},
	}

	for _, tc := range cases {
		if got := k.Classify(tc.transcript); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.transcript, got, tc.want)
		}
	}
}

func TestKeywordClassifier_FirstRuleWins(t *testing.T) {
	k := NewKeywordClassifier()
	// Mentions both a leak and wiring; plumbing rules run first.
	if got := k.Classify("leak near the wiring panel"); got != CategoryPlumbing {
		t.Fatalf("expected plumbing for mixed-keyword input, got %q", got)
	}
}

func TestParse_UnknownMapsToGeneral(t *testing.T) {
	if got := Parse("Plumbing"); got != CategoryPlumbing {
		t.Fatalf("expected case-insensitive parse, got %q", got)
	}
	if got := Parse("landscaping"); got != CategoryGeneral {
		t.Fatalf("expected unknown category to map to general, got %q", got)
	}
	if got := Parse(""); got != CategoryGeneral {
		t.Fatalf("expected empty category to map to general, got %q", got)
	}
}

type stubSummarizer struct {
	summary Summary
	err     error
	delay   time.Duration
}

func (s *stubSummarizer) Summarize(ctx context.Context, transcript string) (Summary, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Summary{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Summary{}, s.err
	}
	return s.summary, nil
}

func TestService_PrefersSummarizerCategory(t *testing.T) {
	svc := New(&stubSummarizer{
		summary: Summary{Text: "broken thermostat", SuggestedCategory: CategoryHVAC, Confidence: 0.9},
	}, time.Second, logger.New("development"))

	if got := svc.Classify(context.Background(), "nothing keyword-ish here"); got != CategoryHVAC {
		t.Fatalf("expected summarizer category hvac, got %q", got)
	}
}

func TestService_FallsBackOnUnknownCategory(t *testing.T) {
	svc := New(&stubSummarizer{
		summary: Summary{Text: "pipe burst", SuggestedCategory: Category("handyman"), Confidence: 0.9},
	}, time.Second, logger.New("development"))

	if got := svc.Classify(context.Background(), "water leak under sink"); got != CategoryPlumbing {
		t.Fatalf("expected keyword fallback plumbing for unknown model category, got %q", got)
	}

	summary, external := svc.Summarize(context.Background(), "water leak under sink")
	if !external {
		t.Fatalf("expected the external summarizer to produce the summary")
	}
	if summary.SuggestedCategory != CategoryPlumbing {
		t.Fatalf("expected unknown model category replaced with plumbing, got %q", summary.SuggestedCategory)
	}
}

func TestService_FallsBackOnError(t *testing.T) {
	svc := New(&stubSummarizer{err: errors.New("upstream unavailable")}, time.Second, logger.New("development"))

	if got := svc.Classify(context.Background(), "water leak under sink"); got != CategoryPlumbing {
		t.Fatalf("expected keyword fallback plumbing, got %q", got)
	}
}

func TestService_FallsBackOnTimeout(t *testing.T) {
	svc := New(&stubSummarizer{
		summary: Summary{SuggestedCategory: CategoryElectrical},
		delay:   200 * time.Millisecond,
	}, 10*time.Millisecond, logger.New("development"))

	start := time.Now()
	got := svc.Classify(context.Background(), "fuse blew in the garage")
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Fatalf("classify took %v, expected the timeout to bound it", elapsed)
	}
	if got != CategoryElectrical {
		t.Fatalf("expected keyword fallback electrical, got %q", got)
	}
}

func TestService_NilSummarizerUsesKeywords(t *testing.T) {
	svc := New(nil, time.Second, logger.New("development"))
	if got := svc.Classify(context.Background(), "clogged drain"); got != CategoryPlumbing {
		t.Fatalf("expected plumbing, got %q", got)
	}
}
