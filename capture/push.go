package capture

import "sync"

// PushSource is a Source fed by explicit Push calls. It backs the WebSocket
// ingest path, where the browser delivers the frames, and tests.
type PushSource struct {
	mu      sync.RWMutex
	emit    func(samples []float32)
	started bool
}

// NewPushSource creates an idle push source.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Start begins accepting pushed frames.
func (p *PushSource) Start(sampleRate int, emit func(samples []float32)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emit = emit
	p.started = true
	return nil
}

// Stop discards further pushed frames.
func (p *PushSource) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emit = nil
	p.started = false
	return nil
}

// Push delivers one frame of samples. Frames pushed while stopped are
// silently dropped.
func (p *PushSource) Push(samples []float32) {
	p.mu.RLock()
	emit := p.emit
	p.mu.RUnlock()

	if emit != nil {
		emit(samples)
	}
}
