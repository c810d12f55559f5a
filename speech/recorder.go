package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoRecording is returned by Upload when there is nothing to transcribe.
var ErrNoRecording = errors.New("speech: no recorded audio")

// Recorder is the batch alternative to Session: record the whole utterance
// locally, then upload the blob in one call. Idle → Recording → Idle(blob) →
// Uploading → Idle(transcript); no incremental state machine.
type Recorder struct {
	mu         sync.Mutex
	source     AudioSource
	recording  bool
	uploading  bool
	samples    []float32
	transcript string
	lastErr    string
}

// NewRecorder creates a recorder over the audio source.
func NewRecorder(source AudioSource) (*Recorder, error) {
	if source == nil {
		return nil, errors.New("speech: audio source required")
	}
	r := &Recorder{source: source}
	source.OnAudio(r.handleAudio)
	return r, nil
}

// Start begins accumulating audio, discarding any previous recording.
// Starting while recording returns ErrAlreadyRecording.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.samples = r.samples[:0]
	r.lastErr = ""
	r.recording = true
	r.mu.Unlock()

	if err := r.source.Start(); err != nil {
		r.mu.Lock()
		r.recording = false
		r.lastErr = "microphone unavailable"
		r.mu.Unlock()
		return fmt.Errorf("start audio source: %w", err)
	}
	return nil
}

// Stop ends the recording, keeping the accumulated blob. Safe to call
// multiple times and when never started.
func (r *Recorder) Stop() {
	r.mu.Lock()
	wasRecording := r.recording
	r.recording = false
	r.mu.Unlock()

	if err := r.source.Stop(); err != nil {
		slog.Error("stop audio source", "error", err)
	}
	if wasRecording {
		slog.Info("recording finished", "samples", r.SampleCount())
	}
}

// Upload transcribes the recorded blob through the given provider and stores
// the resulting text. Fails when nothing was recorded or recording is still
// in progress.
func (r *Recorder) Upload(ctx context.Context, provider Transcriber) (string, error) {
	r.mu.Lock()
	if r.recording || r.uploading {
		r.mu.Unlock()
		return "", ErrAlreadyRecording
	}
	if len(r.samples) == 0 {
		r.mu.Unlock()
		return "", ErrNoRecording
	}
	samples := make([]float32, len(r.samples))
	copy(samples, r.samples)
	r.uploading = true
	r.mu.Unlock()

	result, err := provider.Transcribe(ctx, samples, r.source.SampleRate())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploading = false

	if err != nil {
		r.lastErr = "upload failed"
		return "", fmt.Errorf("transcribe recording: %w", err)
	}

	text := result.Text
	if text == "" {
		// The endpoint returned no transcript field; surface what it did say.
		text = result.Raw
	}
	r.transcript = text
	return text, nil
}

// Blob returns the recording as a WAV container, or nil when empty.
func (r *Recorder) Blob() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == 0 {
		return nil
	}
	return EncodeWAV(r.samples, r.source.SampleRate())
}

// Clear discards the recorded blob and transcript.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = r.samples[:0]
	r.transcript = ""
	r.lastErr = ""
}

// IsRecording reports whether audio is being accumulated.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// SampleCount returns the number of accumulated samples.
func (r *Recorder) SampleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// TranscriptText returns the last uploaded transcript.
func (r *Recorder) TranscriptText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript
}

// Err returns the short user-visible error from the last operation, or "".
func (r *Recorder) Err() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Recorder) handleAudio(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.samples = append(r.samples, samples...)
	}
}
