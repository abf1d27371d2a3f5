package event

import (
	"testing"

	"firestige.xyz/strix/internal/core"
)

func TestCodeNames(t *testing.T) {
	for _, c := range Codes() {
		if c.String() == "" {
			t.Errorf("code %d has no name", c)
		}
		if c.Message() == "" {
			t.Errorf("code %d (%s) has no message", c, c)
		}
	}
	if len(Codes()) != 20 {
		t.Errorf("expected 20 event codes, got %d", len(Codes()))
	}
}

func TestCodeOutOfRange(t *testing.T) {
	bad := Code(200)
	if bad.String() != "unknown-event-200" {
		t.Errorf("unexpected name for out-of-range code: %s", bad)
	}
	if bad.Message() != "unknown decoder event" {
		t.Errorf("unexpected message for out-of-range code: %s", bad.Message())
	}
}

func TestMultiSink(t *testing.T) {
	var a, b int
	s := Multi(
		SinkFunc(func(*core.Packet, Code) { a++ }),
		SinkFunc(func(*core.Packet, Code) { b++ }),
	)
	p := &core.Packet{}
	s.Raise(p, XmasAttack)
	s.Raise(p, PortZero)
	if a != 2 || b != 2 {
		t.Errorf("expected both sinks to see 2 events, got %d and %d", a, b)
	}
}

func TestNopSink(t *testing.T) {
	// Must not panic on nil packet.
	Nop.Raise(nil, SynWithFin)
}
