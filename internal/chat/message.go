// Package chat holds conversation session state for the customer intake
// flow. Sessions are append-only while alive and are terminated when a
// ticket is created from them.
package chat

import (
	"fmt"
	"strings"
	"time"

	"fixmarket_backend/platform/apperr"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind identifies the content type of a conversation turn.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Message is a single conversation turn. The shape is fixed; malformed
// turns are rejected at the boundary instead of being stored.
type Message struct {
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate rejects turns that would corrupt the transcript.
func (m Message) Validate() error {
	if m.Role != RoleUser && m.Role != RoleAssistant {
		return apperr.Validation(fmt.Sprintf("unknown message role %q", m.Role))
	}
	if m.Kind != KindText && m.Kind != KindImage {
		return apperr.Validation(fmt.Sprintf("unknown message kind %q", m.Kind))
	}
	if strings.TrimSpace(m.Content) == "" {
		return apperr.Validation("message content must not be empty")
	}
	return nil
}

// Transcript renders the ordered turns as the text handed to the
// classifier and to ticket creation. Image turns are marked rather than
// inlined.
func Transcript(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		if m.Kind == KindImage {
			fmt.Fprintf(&b, "%s: [image] %s", m.Role, m.Content)
		} else {
			fmt.Fprintf(&b, "%s: %s", m.Role, m.Content)
		}
	}
	return b.String()
}

// ReadyForTicket reports whether the conversation carries enough signal to
// create a ticket: an assistant turn announcing high confidence, a long
// enough back-and-forth, or a photo the assistant has already reacted to.
func ReadyForTicket(msgs []Message) bool {
	userTurns := 0
	photoAt := -1
	for i, m := range msgs {
		switch m.Role {
		case RoleUser:
			userTurns++
			if m.Kind == KindImage && photoAt == -1 {
				photoAt = i
			}
		case RoleAssistant:
			lower := strings.ToLower(m.Content)
			if strings.Contains(lower, "confidence: 85") || strings.Contains(lower, "high confidence") {
				return true
			}
			if photoAt >= 0 && i > photoAt {
				return true
			}
		}
	}
	return userTurns >= 4
}
