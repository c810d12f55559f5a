package speech

import (
	"strings"
	"sync"
)

// Transcript accumulates recognition turns for one recording session.
// Formatted turns are committed permanently with a trailing separator;
// unformatted turns are provisional and replace only the trailing uncommitted
// segment, so repeated partials for the same utterance overwrite each other
// instead of accumulating.
type Transcript struct {
	mu        sync.Mutex
	committed strings.Builder
	pending   string
}

// ApplyTurn folds one recognition turn into the transcript.
func (t *Transcript) ApplyTurn(text string, formatted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if formatted {
		t.committed.WriteString(text)
		t.committed.WriteString(" ")
		t.pending = ""
		return
	}
	t.pending = text
}

// String returns the accumulated transcript: all committed turns followed by
// the current provisional segment.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed.String() + t.pending
}

// Clear resets the transcript to empty. Independent of recording state.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed.Reset()
	t.pending = ""
}
