package chat

import (
	"context"
	"time"

	"fixmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Service owns conversation session lifecycle: create, append, read,
// terminate. The core never mutates a transcript, only appends to it.
type Service struct {
	store *Store
	log   *logger.Logger
}

// NewService creates the chat session service.
func NewService(store *Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// SessionState is the read model for a session.
type SessionState struct {
	ID         string    `json:"id"`
	Messages   []Message `json:"messages"`
	Transcript string    `json:"transcript"`
	Ready      bool      `json:"ready"`
}

// Create starts a new empty session and returns its identifier.
func (s *Service) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if err := s.store.Create(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Append validates and stores a turn, then reports whether the session has
// accumulated enough signal for ticket creation.
func (s *Service) Append(ctx context.Context, id string, msg Message) (*SessionState, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, id, msg); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Get returns the full session state.
func (s *Service) Get(ctx context.Context, id string) (*SessionState, error) {
	msgs, err := s.store.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionState{
		ID:         id,
		Messages:   msgs,
		Transcript: Transcript(msgs),
		Ready:      ReadyForTicket(msgs),
	}, nil
}

// Transcript returns the session transcript without the message detail.
func (s *Service) Transcript(ctx context.Context, id string) (string, error) {
	msgs, err := s.store.Messages(ctx, id)
	if err != nil {
		return "", err
	}
	return Transcript(msgs), nil
}

// Terminate deletes a session once a ticket has been created from it.
func (s *Service) Terminate(ctx context.Context, id string) {
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Error("failed to terminate chat session", "session_id", id, "error", err)
	}
}
