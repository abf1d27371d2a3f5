package tcp

import (
	"slices"
	"testing"

	"firestige.xyz/strix/internal/core"
	"firestige.xyz/strix/internal/event"
)

// walkSpan runs the option walker over span the way Decode reaches it, with
// the header view already set.
func walkSpan(t *testing.T, span []byte) (*core.Packet, *recordingSink) {
	t.Helper()
	c, sink := newTestCodec(t, Config{})
	p := &core.Packet{}
	p.SetTCPHeader(core.TCPHeader{OffRes: 0x50})
	c.walkOptions(span, p)
	return p, sink
}

// ---------------------------------------------------------------------------
// Well-formed walks
// ---------------------------------------------------------------------------

func TestWalkOptionsWellFormed(t *testing.T) {
	span := []byte{
		0x02, 0x04, 0x05, 0xb4, // MSS 1460
		0x04, 0x02, // SACK permitted
		0x08, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2, // timestamps
		0x01,             // NOP
		0x03, 0x03, 0x07, // window scale 7
	}
	p, sink := walkSpan(t, span)

	if p.OptionCount != 5 {
		t.Fatalf("OptionCount = %d; want 5", p.OptionCount)
	}
	want := []struct {
		code, length uint8
	}{
		{OptMaxSeg, 2},
		{OptSackOK, 0},
		{OptTimestamp, 8},
		{OptNOP, 0},
		{OptWScale, 1},
	}
	for i, w := range want {
		rec := p.Options[i]
		if rec.Code != w.code || rec.Len != w.length {
			t.Errorf("option %d = code %d len %d; want code %d len %d",
				i, rec.Code, rec.Len, w.code, w.length)
		}
	}
	if p.Options[0].Data[0] != 0x05 || p.Options[0].Data[1] != 0xb4 {
		t.Errorf("mss data = %v; want [5 180]", p.Options[0].Data)
	}
	if p.Options[1].Data != nil {
		t.Error("sack-permitted should carry no data")
	}
	if len(sink.codes) != 0 {
		t.Errorf("events = %v; want none", sink.codes)
	}
}

func TestWalkOptionsEOLStops(t *testing.T) {
	// the MSS bytes after EOL would be invalid if the walk continued
	span := []byte{0x01, 0x00, 0x02, 0x04}
	p, sink := walkSpan(t, span)

	if p.OptionCount != 2 {
		t.Fatalf("OptionCount = %d; want 2 (NOP then EOL)", p.OptionCount)
	}
	if p.Options[0].Code != OptNOP || p.Options[1].Code != OptEOL {
		t.Errorf("codes = %d,%d; want NOP,EOL", p.Options[0].Code, p.Options[1].Code)
	}
	if len(sink.codes) != 0 {
		t.Errorf("events = %v; want none", sink.codes)
	}
}

func TestWalkOptionsDataAliasesSpan(t *testing.T) {
	span := []byte{0x02, 0x04, 0x05, 0xb4}
	p, _ := walkSpan(t, span)

	if p.OptionCount != 1 {
		t.Fatalf("OptionCount = %d; want 1", p.OptionCount)
	}
	span[2] = 0x23
	if p.Options[0].Data[0] != 0x23 {
		t.Error("option data should borrow from the span, not copy")
	}
}

// ---------------------------------------------------------------------------
// Malformed options
// ---------------------------------------------------------------------------

func TestWalkOptionsMalformed(t *testing.T) {
	tests := []struct {
		name      string
		span      []byte
		wantCount int
		wantEvent event.Code
	}{
		{
			name:      "fixed option truncated",
			span:      []byte{0x02, 0x04, 0x05}, // MSS needs 4 bytes, 3 remain
			wantCount: 0,
			wantEvent: event.OptionTruncated,
		},
		{
			name: "variable option truncated",
			// SACK declares 10 bytes with 9 in the region
			span:      []byte{0x05, 0x0a, 0, 0, 0, 0, 0, 0, 0},
			wantCount: 0,
			wantEvent: event.OptionTruncated,
		},
		{
			name:      "missing length byte",
			span:      []byte{0x01, 0x02}, // NOP then MSS cut before its length
			wantCount: 1,
			wantEvent: event.OptionTruncated,
		},
		{
			name:      "fixed option wrong length",
			span:      []byte{0x02, 0x03, 0x05, 0xb4},
			wantCount: 0,
			wantEvent: event.OptionBadLength,
		},
		{
			name:      "zero length byte",
			span:      []byte{0x02, 0x00, 0x05, 0xb4},
			wantCount: 0,
			wantEvent: event.OptionBadLength,
		},
		{
			name:      "variable length below two",
			span:      []byte{0x63, 0x01, 0x00},
			wantCount: 0,
			wantEvent: event.OptionBadLength,
		},
		{
			name:      "sack without data",
			span:      []byte{0x05, 0x02},
			wantCount: 0,
			wantEvent: event.OptionBadLength,
		},
		{
			name:      "auth below rfc floor",
			span:      []byte{0x1d, 0x03, 0x00},
			wantCount: 0,
			wantEvent: event.OptionBadLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, sink := walkSpan(t, tt.span)
			if p.OptionCount != tt.wantCount {
				t.Errorf("OptionCount = %d; want %d", p.OptionCount, tt.wantCount)
			}
			if !slices.Equal(sink.codes, []event.Code{tt.wantEvent}) {
				t.Errorf("events = %v; want [%v]", sink.codes, tt.wantEvent)
			}
			if p.TCP == nil {
				t.Error("a bad option must not clear the header view")
			}
		})
	}
}

func TestWalkOptionsPartialPreserved(t *testing.T) {
	span := []byte{
		0x01,                   // NOP
		0x02, 0x04, 0x05, 0xb4, // MSS, valid
		0x03, 0x05, 0x07, // window scale with a wrong length byte
	}
	p, sink := walkSpan(t, span)

	if p.OptionCount != 2 {
		t.Fatalf("OptionCount = %d; want the 2 records before the bad option", p.OptionCount)
	}
	if p.Options[0].Code != OptNOP || p.Options[1].Code != OptMaxSeg {
		t.Errorf("kept codes = %d,%d; want NOP,MSS", p.Options[0].Code, p.Options[1].Code)
	}
	if !slices.Equal(sink.codes, []event.Code{event.OptionBadLength}) {
		t.Errorf("events = %v; want exactly one bad-length", sink.codes)
	}
}

// ---------------------------------------------------------------------------
// Window scale boundary
// ---------------------------------------------------------------------------

func TestWalkOptionsWindowScaleBoundary(t *testing.T) {
	p, sink := walkSpan(t, []byte{0x03, 0x03, 0x0e}) // shift 14
	if p.OptionCount != 1 || sink.has(event.OptionWindowScaleInvalid) {
		t.Errorf("shift 14: count %d events %v; want 1 and none", p.OptionCount, sink.codes)
	}

	p, sink = walkSpan(t, []byte{0x03, 0x03, 0x0f}) // shift 15
	if !sink.has(event.OptionWindowScaleInvalid) {
		t.Errorf("shift 15: events = %v; want invalid-window-scale", sink.codes)
	}
	if p.OptionCount != 1 {
		t.Errorf("shift 15: OptionCount = %d; the record still parses", p.OptionCount)
	}
}

// ---------------------------------------------------------------------------
// Summary events
// ---------------------------------------------------------------------------

func TestWalkOptionsSummaryEvents(t *testing.T) {
	tests := []struct {
		name string
		span []byte
		want []event.Code
	}{
		{
			name: "echo is obsolete",
			span: []byte{0x06, 0x06, 1, 2, 3, 4},
			want: []event.Code{event.OptionObsolete},
		},
		{
			name: "md5 signature is obsolete",
			span: []byte{0x13, 0x12, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
			want: []event.Code{event.OptionObsolete},
		},
		{
			name: "scps is experimental",
			span: []byte{0x14, 0x04, 0, 0},
			want: []event.Code{event.OptionExperimental},
		},
		{
			name: "trailer checksum is experimental",
			span: []byte{0x12, 0x03, 0x00},
			want: []event.Code{event.OptionExperimental},
		},
		{
			name: "unknown code is experimental",
			span: []byte{0x63, 0x04, 0, 0},
			want: []event.Code{event.OptionExperimental},
		},
		{
			name: "cc echo flags ttcp",
			span: []byte{0x0d, 0x06, 0, 0, 0, 0},
			want: []event.Code{event.OptionTTCPDetected},
		},
		{
			name: "plain cc raises nothing",
			span: []byte{0x0b, 0x06, 0, 0, 0, 0},
			want: nil,
		},
		{
			name: "timestamp raises nothing",
			span: []byte{0x08, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2},
			want: nil,
		},
		{
			name: "auth raises nothing",
			span: []byte{0x1d, 0x06, 0, 0, 0, 0},
			want: nil,
		},
		{
			name: "experimental beats obsolete",
			span: []byte{0x06, 0x06, 1, 2, 3, 4, 0x14, 0x04, 0, 0},
			want: []event.Code{event.OptionExperimental},
		},
		{
			name: "obsolete beats ttcp",
			span: []byte{0x0d, 0x06, 0, 0, 0, 0, 0x10, 0x04, 0, 0},
			want: []event.Code{event.OptionObsolete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sink := walkSpan(t, tt.span)
			if !slices.Equal(sink.codes, tt.want) {
				t.Errorf("events = %v; want %v", sink.codes, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Walk limits and idempotence
// ---------------------------------------------------------------------------

func TestWalkOptionsRegionTooLarge(t *testing.T) {
	span := make([]byte, core.TCPMaxOptions+1)
	for i := range span {
		span[i] = 0x01
	}
	p, sink := walkSpan(t, span)

	if p.TCP != nil {
		t.Error("an oversized region should clear the header view")
	}
	if len(sink.codes) != 0 {
		t.Errorf("events = %v; want none", sink.codes)
	}
}

func TestWalkOptionsFullRegionOfNops(t *testing.T) {
	span := make([]byte, core.TCPMaxOptions)
	for i := range span {
		span[i] = 0x01
	}
	p, sink := walkSpan(t, span)

	if p.OptionCount != core.TCPMaxOptions {
		t.Errorf("OptionCount = %d; want %d", p.OptionCount, core.TCPMaxOptions)
	}
	if p.TCP == nil {
		t.Error("a full region of NOPs is legal")
	}
	if len(sink.codes) != 0 {
		t.Errorf("events = %v; want none", sink.codes)
	}
}

func TestWalkOptionsIdempotent(t *testing.T) {
	span := []byte{
		0x02, 0x04, 0x05, 0xb4,
		0x04, 0x02,
		0x14, 0x04, 0, 0, // SCPS, so a summary event fires
	}

	c, sink := newTestCodec(t, Config{})

	run := func() ([]core.TCPOption, []event.Code) {
		p := &core.Packet{}
		p.SetTCPHeader(core.TCPHeader{OffRes: 0x50})
		c.walkOptions(span, p)
		recs := make([]core.TCPOption, p.OptionCount)
		copy(recs, p.Options[:p.OptionCount])
		codes := slices.Clone(sink.codes)
		sink.reset()
		return recs, codes
	}

	recs1, codes1 := run()
	recs2, codes2 := run()

	if len(recs1) != len(recs2) {
		t.Fatalf("record counts differ: %d vs %d", len(recs1), len(recs2))
	}
	for i := range recs1 {
		if recs1[i].Code != recs2[i].Code || recs1[i].Len != recs2[i].Len ||
			!slices.Equal(recs1[i].Data, recs2[i].Data) {
			t.Errorf("record %d differs between runs: %+v vs %+v", i, recs1[i], recs2[i])
		}
	}
	if !slices.Equal(codes1, codes2) {
		t.Errorf("events differ between runs: %v vs %v", codes1, codes2)
	}
}

func BenchmarkWalkOptions(b *testing.B) {
	span := []byte{
		0x02, 0x04, 0x05, 0xb4,
		0x04, 0x02,
		0x08, 0x0a, 0, 0, 0, 1, 0, 0, 0, 2,
		0x01,
		0x03, 0x03, 0x07,
	}
	c, err := New(Config{}, event.Nop)
	if err != nil {
		b.Fatalf("New() error: %v", err)
	}
	p := &core.Packet{}
	p.SetTCPHeader(core.TCPHeader{OffRes: 0x50})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.walkOptions(span, p)
	}
}
