package speech

import "testing"

func TestTranscript_PartialsAreReplaced(t *testing.T) {
	var tr Transcript

	tr.ApplyTurn("hel", false)
	tr.ApplyTurn("hello", false)
	if got := tr.String(); got != "hello" {
		t.Errorf("after partials: %q, want %q", got, "hello")
	}

	tr.ApplyTurn("hello world", true)
	if got := tr.String(); got != "hello world " {
		t.Errorf("after formatted turn: %q, want %q", got, "hello world ")
	}
}

func TestTranscript_CommittedTurnsAccumulate(t *testing.T) {
	var tr Transcript

	tr.ApplyTurn("first sentence.", true)
	tr.ApplyTurn("second", false)
	tr.ApplyTurn("second sentence.", true)

	if got := tr.String(); got != "first sentence. second sentence. " {
		t.Errorf("transcript = %q", got)
	}
}

func TestTranscript_PendingShownAfterCommit(t *testing.T) {
	var tr Transcript

	tr.ApplyTurn("done.", true)
	tr.ApplyTurn("in progr", false)

	if got := tr.String(); got != "done. in progr" {
		t.Errorf("transcript = %q", got)
	}
}

func TestTranscript_Clear(t *testing.T) {
	var tr Transcript

	tr.ApplyTurn("something", true)
	tr.ApplyTurn("partial", false)
	tr.Clear()

	if got := tr.String(); got != "" {
		t.Errorf("after clear: %q, want empty", got)
	}

	tr.ApplyTurn("fresh", false)
	if got := tr.String(); got != "fresh" {
		t.Errorf("after clear and new turn: %q", got)
	}
}
