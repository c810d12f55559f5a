package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the recording session state.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StateConnecting means the socket is being established; audio does not
	// flow yet.
	StateConnecting
	// StateStreaming means frames are being transmitted as captured.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// ErrAlreadyRecording is returned by Start while a session is active. Exactly
// one recording session is permitted at a time.
var ErrAlreadyRecording = errors.New("speech: recording already in progress")

// TurnUpdate is emitted after each inbound turn is folded into the
// transcript.
type TurnUpdate struct {
	Transcript string `json:"transcript"` // full accumulated text
	Turn       string `json:"turn"`       // this fragment
	Formatted  bool   `json:"formatted"`
}

// SessionConfig configures a live recording session.
type SessionConfig struct {
	Dial    DialFunc
	Source  AudioSource
	Encoder FrameEncoder // default: raw PCM frames
}

// Session drives one microphone through a realtime recognition service:
// Idle → Connecting → Streaming → Idle. A fresh connection is dialed per
// recording; failures end the session and are never retried automatically.
type Session struct {
	mu      sync.Mutex
	state   State
	client  StreamClient
	ctx     context.Context
	cancel  context.CancelFunc
	lastErr string

	dial    DialFunc
	source  AudioSource
	encoder FrameEncoder

	transcript Transcript
	turns      chan TurnUpdate
}

// NewSession creates a session over the given dialer and audio source.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Dial == nil {
		return nil, errors.New("speech: dial function required")
	}
	if cfg.Source == nil {
		return nil, errors.New("speech: audio source required")
	}
	if cfg.Encoder == nil {
		cfg.Encoder = PCMFrames{}
	}

	s := &Session{
		dial:    cfg.Dial,
		source:  cfg.Source,
		encoder: cfg.Encoder,
		turns:   make(chan TurnUpdate, 16),
	}
	cfg.Source.OnAudio(s.handleAudio)
	return s, nil
}

// Start opens the socket, then the audio source, and begins streaming.
// Starting while a session is active returns ErrAlreadyRecording.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.state = StateConnecting
	s.lastErr = ""
	s.mu.Unlock()

	client, err := s.dial(ctx)
	if err == nil {
		err = client.Connect(ctx)
	}
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.lastErr = "connection failed"
		s.mu.Unlock()
		return fmt.Errorf("connect recognition service: %w", err)
	}

	// Session-scoped context: frames keep flowing after Start returns, so
	// the lifetime is the session's, not the caller's.
	sctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.client = client
	s.ctx = sctx
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.source.Start(); err != nil {
		// Never reaches Streaming: record the error and drop the socket.
		_ = client.Close()
		cancel()
		s.mu.Lock()
		s.client = nil
		s.ctx = nil
		s.cancel = nil
		s.state = StateIdle
		s.lastErr = "microphone unavailable"
		s.mu.Unlock()
		return fmt.Errorf("start audio source: %w", err)
	}

	s.mu.Lock()
	s.state = StateStreaming
	s.mu.Unlock()

	go s.eventLoop(client)

	slog.Info("recording session started", "framing", s.encoder.Name())
	return nil
}

// Stop sends the termination message if the socket is open, closes it, stops
// the audio source, and returns the session to Idle. Safe to call multiple
// times and from any state.
func (s *Session) Stop() {
	s.mu.Lock()
	client := s.client
	cancel := s.cancel
	s.client = nil
	s.ctx = nil
	s.cancel = nil
	s.state = StateIdle
	s.mu.Unlock()

	if client != nil {
		ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Terminate(ctx); err != nil {
			slog.Debug("terminate message not delivered", "error", err)
		}
		done()
		if err := client.Close(); err != nil {
			slog.Debug("close recognition socket", "error", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if err := s.source.Stop(); err != nil {
		slog.Error("stop audio source", "error", err)
	}
}

// ClearTranscript resets the accumulated transcript. Independent of
// recording state.
func (s *Session) ClearTranscript() {
	s.transcript.Clear()
}

// TranscriptText returns the accumulated transcript so far.
func (s *Session) TranscriptText() string {
	return s.transcript.String()
}

// IsRecording reports whether audio frames are currently being streamed.
func (s *Session) IsRecording() bool {
	return s.State() == StateStreaming
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the short user-visible error from the last session, or "".
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Turns returns the channel of transcript updates. Updates are dropped
// rather than blocking when the consumer falls behind.
func (s *Session) Turns() <-chan TurnUpdate {
	return s.turns
}

// handleAudio runs on the capture delivery path: encode and transmit one
// frame, in capture order.
func (s *Session) handleAudio(samples []float32) {
	s.mu.Lock()
	if s.state != StateStreaming || s.client == nil {
		s.mu.Unlock()
		return
	}
	client := s.client
	ctx := s.ctx
	s.mu.Unlock()

	if err := client.SendAudio(ctx, s.encoder.Encode(samples)); err != nil {
		s.fail("connection lost", err)
	}
}

// eventLoop consumes inbound events until the connection ends.
func (s *Session) eventLoop(client StreamClient) {
	events := client.Events()
	errs := client.Errors()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Remote closed; late messages after our own Stop land here
				// too and the second Stop is a no-op.
				s.Stop()
				return
			}
			s.handleEvent(ev)
			if ev.Type == EventTermination {
				s.Stop()
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.fail("connection lost", err)
			return
		}
	}
}

func (s *Session) handleEvent(ev Event) {
	switch ev.Type {
	case EventBegin:
		slog.Debug("recognition session acknowledged", "session_id", ev.SessionID)
	case EventTurn:
		s.transcript.ApplyTurn(ev.Transcript, ev.Formatted)
		s.emit(TurnUpdate{
			Transcript: s.transcript.String(),
			Turn:       ev.Transcript,
			Formatted:  ev.Formatted,
		})
	case EventTermination:
		slog.Debug("recognition session terminated", "audio_seconds", ev.AudioDuration)
	default:
		slog.Debug("ignoring unknown recognition event", "type", string(ev.Type))
	}
}

// fail records a user-visible error and tears the session down. No automatic
// retry; the user restarts explicitly.
func (s *Session) fail(msg string, err error) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	s.lastErr = msg
	s.mu.Unlock()

	slog.Error("recording session failed", "error", err)
	s.Stop()
}

// emit delivers a transcript update without blocking.
func (s *Session) emit(update TurnUpdate) {
	select {
	case s.turns <- update:
	default:
	}
}
