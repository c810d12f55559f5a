package assemblyai

import (
	"testing"

	"github.com/outsquaremd/medidash/speech"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want speech.Event
	}{
		{
			name: "begin",
			data: `{"type":"Begin","id":"session-1","expires_at":1700000000}`,
			want: speech.Event{Type: speech.EventBegin, SessionID: "session-1", ExpiresAt: 1700000000},
		},
		{
			name: "partial turn",
			data: `{"type":"Turn","transcript":"hel","turn_is_formatted":false}`,
			want: speech.Event{Type: speech.EventTurn, Transcript: "hel"},
		},
		{
			name: "formatted turn",
			data: `{"type":"Turn","transcript":"hello world","turn_is_formatted":true,"end_of_turn":true}`,
			want: speech.Event{Type: speech.EventTurn, Transcript: "hello world", Formatted: true, EndOfTurn: true},
		},
		{
			name: "termination",
			data: `{"type":"Termination","audio_duration_seconds":12.5}`,
			want: speech.Event{Type: speech.EventTermination, AudioDuration: 12.5},
		},
		{
			name: "unknown type passes through",
			data: `{"type":"SomethingNew"}`,
			want: speech.Event{Type: speech.EventType("SomethingNew")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("parseEvent: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseEvent = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	if _, err := parseEvent([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}
