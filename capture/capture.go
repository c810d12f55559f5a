// Package capture provides microphone-style audio capture over a pluggable
// sample source, with a ring buffer for recent-audio context.
package capture

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyCapturing is returned when trying to start capture while already capturing.
var ErrAlreadyCapturing = errors.New("already capturing audio")

// ErrNoSource is returned when no sample source was configured.
var ErrNoSource = errors.New("no audio source configured")

// Source produces mono float32 samples in [-1, 1] at the requested rate and
// delivers them through emit until stopped. Implementations wrap whatever
// actually owns the device: a platform capture API, a network ingest, a file.
type Source interface {
	Start(sampleRate int, emit func(samples []float32)) error
	Stop() error
}

// Capture owns one audio source and fans its frames out to registered
// callbacks, keeping a rolling buffer of recent samples.
type Capture struct {
	mu sync.RWMutex

	capturing  bool
	startTime  time.Time
	sampleRate int

	buffer  *RingBuffer
	onAudio []func(samples []float32)

	source Source
}

// Config holds configuration for audio capture.
type Config struct {
	SampleRate int           // default 16000 Hz, the rate recognition services expect
	BufferSize time.Duration // rolling buffer duration, default 30 seconds
	Source     Source
}

// DefaultConfig returns the default capture configuration (source must still
// be supplied).
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		BufferSize: 30 * time.Second,
	}
}

// New creates a new capture instance over cfg.Source.
func New(cfg Config) (*Capture, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 30 * time.Second
	}

	bufferSamples := int(cfg.BufferSize.Seconds()) * cfg.SampleRate

	return &Capture{
		sampleRate: cfg.SampleRate,
		buffer:     NewRingBuffer(bufferSamples),
		source:     cfg.Source,
	}, nil
}

// Start begins capturing audio. Starting while capturing returns
// ErrAlreadyCapturing.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return ErrAlreadyCapturing
	}

	if err := c.source.Start(c.sampleRate, c.handleAudio); err != nil {
		return err
	}

	c.capturing = true
	c.startTime = time.Now()
	return nil
}

// Stop stops capturing audio. Stopping when not capturing is a no-op.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil
	}

	err := c.source.Stop()
	c.capturing = false
	return err
}

// IsCapturing returns true if currently capturing audio.
func (c *Capture) IsCapturing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capturing
}

// Duration returns how long capture has been running.
func (c *Capture) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.capturing {
		return 0
	}
	return time.Since(c.startTime)
}

// OnAudio registers a callback for audio frames. Callbacks run on the
// source's delivery goroutine and must not block.
func (c *Capture) OnAudio(callback func(samples []float32)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAudio = append(c.onAudio, callback)
}

// GetBufferedAudio returns the last duration of buffered audio.
func (c *Capture) GetBufferedAudio(duration time.Duration) []float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples := int(duration.Seconds() * float64(c.sampleRate))
	return c.buffer.Read(samples)
}

// SampleRate returns the configured sample rate.
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

func (c *Capture) handleAudio(samples []float32) {
	c.mu.RLock()
	callbacks := c.onAudio
	c.mu.RUnlock()

	c.buffer.Write(samples)

	for _, cb := range callbacks {
		cb(samples)
	}
}
