package chat

import (
	"strings"
	"testing"
	"time"
)

func msg(role Role, kind Kind, content string) Message {
	return Message{Role: role, Kind: kind, Content: content, CreatedAt: time.Now()}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		wantErr bool
	}{
		{"valid user text", msg(RoleUser, KindText, "my sink is leaking"), false},
		{"valid assistant text", msg(RoleAssistant, KindText, "how long has it leaked?"), false},
		{"valid image", msg(RoleUser, KindImage, "https://example.com/leak.jpg"), false},
		{"unknown role", msg("system", KindText, "hello"), true},
		{"unknown kind", msg(RoleUser, "video", "clip"), true},
		{"empty content", msg(RoleUser, KindText, "  "), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.message.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTranscriptRendersImageMarker(t *testing.T) {
	msgs := []Message{
		msg(RoleUser, KindText, "breaker keeps tripping"),
		msg(RoleUser, KindImage, "https://example.com/panel.jpg"),
		msg(RoleAssistant, KindText, "does it trip on one circuit?"),
	}
	got := Transcript(msgs)
	if !strings.Contains(got, "user: breaker keeps tripping") {
		t.Fatalf("transcript missing user line: %q", got)
	}
	if !strings.Contains(got, "[image] https://example.com/panel.jpg") {
		t.Fatalf("transcript missing image marker: %q", got)
	}
}

func TestReadyForTicket(t *testing.T) {
	t.Run("empty session is not ready", func(t *testing.T) {
		if ReadyForTicket(nil) {
			t.Fatal("expected empty session to not be ready")
		}
	})

	t.Run("confidence marker triggers readiness", func(t *testing.T) {
		msgs := []Message{
			msg(RoleUser, KindText, "no hot water"),
			msg(RoleAssistant, KindText, "Diagnosis: water heater failure. Confidence: 85"),
		}
		if !ReadyForTicket(msgs) {
			t.Fatal("expected confidence marker to trigger readiness")
		}
	})

	t.Run("high confidence phrase triggers readiness", func(t *testing.T) {
		msgs := []Message{
			msg(RoleUser, KindText, "no hot water"),
			msg(RoleAssistant, KindText, "I can say with high confidence this is the heating element."),
		}
		if !ReadyForTicket(msgs) {
			t.Fatal("expected high confidence phrase to trigger readiness")
		}
	})

	t.Run("assistant turn after photo triggers readiness", func(t *testing.T) {
		msgs := []Message{
			msg(RoleUser, KindText, "something is sparking"),
			msg(RoleUser, KindImage, "https://example.com/outlet.jpg"),
			msg(RoleAssistant, KindText, "that outlet looks scorched"),
		}
		if !ReadyForTicket(msgs) {
			t.Fatal("expected photo followed by assistant turn to trigger readiness")
		}
	})

	t.Run("four user turns trigger readiness", func(t *testing.T) {
		msgs := []Message{
			msg(RoleUser, KindText, "my dryer stopped"),
			msg(RoleAssistant, KindText, "does the drum turn?"),
			msg(RoleUser, KindText, "no"),
			msg(RoleAssistant, KindText, "any noise?"),
			msg(RoleUser, KindText, "a hum"),
			msg(RoleAssistant, KindText, "lights on the panel?"),
			msg(RoleUser, KindText, "yes"),
		}
		if !ReadyForTicket(msgs) {
			t.Fatal("expected four user turns to trigger readiness")
		}
	})

	t.Run("short exchange is not ready", func(t *testing.T) {
		msgs := []Message{
			msg(RoleUser, KindText, "my dryer stopped"),
			msg(RoleAssistant, KindText, "does the drum turn?"),
		}
		if ReadyForTicket(msgs) {
			t.Fatal("expected short exchange to not be ready")
		}
	})
}
