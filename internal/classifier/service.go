package classifier

import (
	"context"
	"time"

	"fixmarket_backend/platform/logger"
)

// Service classifies transcripts, preferring the external summarizer when
// one is configured and falling back to the keyword matcher on any failure
// or timeout. Classify never fails and never blocks past the timeout.
type Service struct {
	keyword    *KeywordClassifier
	summarizer Summarizer // nil when no external classifier is configured
	timeout    time.Duration
	log        *logger.Logger
}

// New creates a classifier service. summarizer may be nil.
func New(summarizer Summarizer, timeout time.Duration, log *logger.Logger) *Service {
	return &Service{
		keyword:    NewKeywordClassifier(),
		summarizer: summarizer,
		timeout:    timeout,
		log:        log,
	}
}

// Classify returns a category for the transcript. Total: always returns a
// taxonomy member, never an error.
func (s *Service) Classify(ctx context.Context, transcript string) Category {
	summary, ok := s.trySummarize(ctx, transcript)
	if ok && Known(summary.SuggestedCategory) {
		return summary.SuggestedCategory
	}
	return s.keyword.Classify(transcript)
}

// Summarize returns the external collaborator's summary when available, and
// a keyword-derived stand-in otherwise. The bool reports whether the
// external path produced the result.
func (s *Service) Summarize(ctx context.Context, transcript string) (Summary, bool) {
	if summary, ok := s.trySummarize(ctx, transcript); ok {
		if !Known(summary.SuggestedCategory) {
			summary.SuggestedCategory = s.keyword.Classify(transcript)
		}
		return summary, true
	}
	return Summary{
		Text:              transcript,
		SuggestedCategory: s.keyword.Classify(transcript),
	}, false
}

func (s *Service) trySummarize(ctx context.Context, transcript string) (Summary, bool) {
	if s.summarizer == nil {
		return Summary{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.summarizer.Summarize(ctx, transcript)
	if err != nil {
		if ctx.Err() != nil {
			s.log.ClassifierFallback("timeout", err)
		} else {
			s.log.ClassifierFallback("error", err)
		}
		return Summary{}, false
	}
	return summary, true
}
