// Package speech turns captured audio into transcribed text, either by
// streaming frames to a realtime recognition service or by recording a blob
// and uploading it for batch transcription.
package speech

import (
	"context"
	"sync"
)

// EventType discriminates inbound realtime protocol events.
type EventType string

const (
	// EventBegin acknowledges session start. Informational only.
	EventBegin EventType = "Begin"
	// EventTurn carries one incremental recognition result.
	EventTurn EventType = "Turn"
	// EventTermination ends the session.
	EventTermination EventType = "Termination"
)

// Event is one inbound message from the recognition service, already decoded
// from the wire.
type Event struct {
	Type EventType

	// Begin fields
	SessionID string
	ExpiresAt int64

	// Turn fields
	Transcript string
	Formatted  bool
	EndOfTurn  bool

	// Termination fields
	AudioDuration float64
}

// StreamClient is a duplex connection to a realtime recognition service:
// binary audio frames out, decoded events in.
type StreamClient interface {
	// Connect establishes the connection.
	Connect(ctx context.Context) error

	// SendAudio transmits one binary audio frame.
	SendAudio(ctx context.Context, frame []byte) error

	// Terminate sends the graceful-shutdown control message.
	Terminate(ctx context.Context) error

	// Events returns the inbound event channel. Closed when the connection
	// ends.
	Events() <-chan Event

	// Errors returns the connection error channel.
	Errors() <-chan error

	// Close tears the connection down. Safe to call multiple times.
	Close() error
}

// DialFunc creates a fresh StreamClient for one recording session.
type DialFunc func(ctx context.Context) (StreamClient, error)

// AudioSource produces float32 sample frames. *capture.Capture satisfies it.
type AudioSource interface {
	Start() error
	Stop() error
	OnAudio(callback func(samples []float32))
	SampleRate() int
}

// TranscribeResult is the outcome of a batch transcription.
type TranscribeResult struct {
	Text string `json:"transcript"`
	// Raw holds the unparsed response body when the endpoint returned no
	// transcript field, so the caller still has something to surface.
	Raw string `json:"-"`
}

// Transcriber converts a complete recording to text in one call.
type Transcriber interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts mono float32 samples at the given rate to text.
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (*TranscribeResult, error)
}

// Registry holds registered batch transcribers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Transcriber
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Transcriber)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(t Transcriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[t.Name()] = t
}

// Get returns a provider by name, or nil.
func (r *Registry) Get(name string) Transcriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered providers.
func (r *Registry) List() []Transcriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Transcriber, 0, len(r.providers))
	for _, t := range r.providers {
		out = append(out, t)
	}
	return out
}
