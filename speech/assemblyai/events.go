package assemblyai

import (
	"encoding/json"
	"fmt"

	"github.com/outsquaremd/medidash/speech"
)

// wireEvent is the inbound JSON envelope of the v3 streaming protocol.
// Fields beyond the type discriminator are populated per event type.
type wireEvent struct {
	Type                 string  `json:"type"`
	ID                   string  `json:"id,omitempty"`
	ExpiresAt            int64   `json:"expires_at,omitempty"`
	Transcript           string  `json:"transcript,omitempty"`
	TurnIsFormatted      bool    `json:"turn_is_formatted,omitempty"`
	EndOfTurn            bool    `json:"end_of_turn,omitempty"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds,omitempty"`
}

// parseEvent decodes one inbound text frame.
func parseEvent(data []byte) (speech.Event, error) {
	var ev wireEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return speech.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return speech.Event{
		Type:          speech.EventType(ev.Type),
		SessionID:     ev.ID,
		ExpiresAt:     ev.ExpiresAt,
		Transcript:    ev.Transcript,
		Formatted:     ev.TurnIsFormatted,
		EndOfTurn:     ev.EndOfTurn,
		AudioDuration: ev.AudioDurationSeconds,
	}, nil
}

// terminateMessage is the graceful-shutdown control frame, sent as text
// before closing the socket.
var terminateMessage = []byte(`{"type":"Terminate"}`)
