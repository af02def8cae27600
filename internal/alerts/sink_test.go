package alerts

import (
	"testing"
)

func TestRaiseAndDrain(t *testing.T) {
	sink := NewSink()

	sink.RaiseQuotaWarning()
	sink.Raise(LevelError, "falha ao sincronizar")

	buffered := sink.Peek()
	if len(buffered) != 2 {
		t.Fatalf("Peek returned %d alerts, want 2", len(buffered))
	}

	drained := sink.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain returned %d alerts, want 2", len(drained))
	}
	if drained[0].Level != LevelWarning || drained[0].Message != QuotaMessage {
		t.Fatalf("first alert = %+v, want quota warning", drained[0])
	}
	if drained[1].Level != LevelError {
		t.Fatalf("second alert level = %q, want ERROR", drained[1].Level)
	}

	if rest := sink.Drain(); len(rest) != 0 {
		t.Fatalf("second Drain returned %d alerts, want 0", len(rest))
	}
}
