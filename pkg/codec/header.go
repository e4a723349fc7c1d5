package codec

import (
	"fmt"

	"github.com/ssargent/fixedrec/pkg/buffer"
)

// Header layout offsets, relative to the start of a record region
const (
	TypeIDOffset  = 0
	GroupIDOffset = 2
	LengthOffset  = 4

	// HeaderLength is the number of bytes occupied by the header
	HeaderLength = 8
)

// Header identifies the record stored in a region
// Format: [TypeID(2)][GroupID(2)][RecordLength(4)], little-endian
type Header struct {
	TypeID       int16 // Record type within its group
	GroupID      int16 // Group the record type belongs to
	RecordLength int32 // Total bytes of the record, header included
}

// Matches reports whether h equals want on all three values
func (h Header) Matches(want Header) bool {
	return h.TypeID == want.TypeID &&
		h.GroupID == want.GroupID &&
		h.RecordLength == want.RecordLength
}

func (h Header) String() string {
	return fmt.Sprintf("type=%d group=%d length=%d", h.TypeID, h.GroupID, h.RecordLength)
}

// EncodeHeader writes h at offset
func EncodeHeader(w buffer.Writer, offset int, h Header) {
	w.PutInt16(offset+TypeIDOffset, h.TypeID)
	w.PutInt16(offset+GroupIDOffset, h.GroupID)
	w.PutInt32(offset+LengthOffset, h.RecordLength)
}

// DecodeHeader reads the header at offset. The caller guarantees that
// offset+HeaderLength is within the buffer.
func DecodeHeader(r buffer.Reader, offset int) Header {
	return Header{
		TypeID:       r.Int16(offset + TypeIDOffset),
		GroupID:      r.Int16(offset + GroupIDOffset),
		RecordLength: r.Int32(offset + LengthOffset),
	}
}

// PeekHeader reads the header at offset if the buffer holds one there.
// It is used to dispatch on record type while scanning a buffer of mixed
// records.
func PeekHeader(r buffer.Reader, offset int) (Header, bool) {
	if offset < 0 || r.CheckLimit(offset+HeaderLength) != nil {
		return Header{}, false
	}
	return DecodeHeader(r, offset), true
}

// ParseHeader decodes a header from the start of a raw byte slice
func ParseHeader(p []byte) (Header, error) {
	if len(p) < HeaderLength {
		return Header{}, fmt.Errorf("data too short for record header: %d < %d", len(p), HeaderLength)
	}
	return DecodeHeader(buffer.NewReadOnly(p), 0), nil
}
