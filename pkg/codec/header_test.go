package codec

import (
	"testing"

	"github.com/ssargent/fixedrec/pkg/buffer"
)

func TestHeader_EncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		offset int
		header Header
	}{
		{
			name:   "instrument at start",
			offset: 0,
			header: Header{TypeID: 6001, GroupID: 3, RecordLength: 30},
		},
		{
			name:   "instrument at offset",
			offset: 30,
			header: Header{TypeID: 6001, GroupID: 3, RecordLength: 30},
		},
		{
			name:   "negative ids",
			offset: 4,
			header: Header{TypeID: -1, GroupID: -32768, RecordLength: 8},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := buffer.Allocate(64)
			EncodeHeader(buf, tc.offset, tc.header)

			got := DecodeHeader(buf, tc.offset)
			if got != tc.header {
				t.Errorf("Header mismatch: got %v, want %v", got, tc.header)
			}
			if !got.Matches(tc.header) {
				t.Errorf("Matches returned false for identical headers")
			}
		})
	}
}

func TestHeader_WireLayout(t *testing.T) {
	buf := buffer.Allocate(HeaderLength)
	EncodeHeader(buf, 0, Header{TypeID: 6001, GroupID: 3, RecordLength: 30})

	// 6001 = 0x1771, 3 = 0x0003, 30 = 0x0000001E
	want := []byte{0x71, 0x17, 0x03, 0x00, 0x1E, 0x00, 0x00, 0x00}
	got := buf.Bytes(0, HeaderLength)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x, want %#x (full %v)", i, got[i], want[i], got)
		}
	}
}

func TestHeader_Matches(t *testing.T) {
	want := Header{TypeID: 6001, GroupID: 3, RecordLength: 30}

	mismatches := map[string]Header{
		"type":   {TypeID: 6002, GroupID: 3, RecordLength: 30},
		"group":  {TypeID: 6001, GroupID: 4, RecordLength: 30},
		"length": {TypeID: 6001, GroupID: 3, RecordLength: 31},
	}
	for name, h := range mismatches {
		t.Run(name, func(t *testing.T) {
			if h.Matches(want) {
				t.Errorf("expected %v not to match %v", h, want)
			}
		})
	}
}

func TestPeekHeader(t *testing.T) {
	buf := buffer.Allocate(20)
	EncodeHeader(buf, 10, Header{TypeID: 7, GroupID: 1, RecordLength: 10})

	h, ok := PeekHeader(buf, 10)
	if !ok {
		t.Fatal("PeekHeader failed for in-range header")
	}
	if h.TypeID != 7 {
		t.Errorf("TypeID mismatch: got %d, want 7", h.TypeID)
	}

	if _, ok := PeekHeader(buf, 13); ok {
		t.Error("PeekHeader should fail when fewer than 8 bytes remain")
	}
	if _, ok := PeekHeader(buf, -1); ok {
		t.Error("PeekHeader should fail for negative offsets")
	}
}

func TestParseHeader(t *testing.T) {
	if _, err := ParseHeader([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short data")
	}

	h, err := ParseHeader([]byte{0x71, 0x17, 0x03, 0x00, 0x1E, 0x00, 0x00, 0x00, 0xFF})
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h != (Header{TypeID: 6001, GroupID: 3, RecordLength: 30}) {
		t.Errorf("unexpected header %v", h)
	}
}
