// Package codec implements the byte-level layout shared by every
// fixed-layout record.
//
// # Record Format
//
// Each record region begins with an 8-byte header followed by the record's
// fields at fixed offsets:
//
//	offset 0 : TypeID        int16  little-endian
//	offset 2 : GroupID       int16  little-endian
//	offset 4 : RecordLength  int32  little-endian
//	offset 8+: field bytes at their schema-declared offsets, no padding between fields
//
// A region is only trusted when all three header values match the values
// expected for the record type. Partial matches are treated as foreign or
// corrupt data.
//
// # Strings
//
// String fields are fixed-width ASCII with no length prefix. Runes outside
// the ASCII range are stored as '?'. Reads strip leading and trailing
// padding (spaces, NUL and other control bytes). PadLeft produces the
// right-justified form used by padded writes.
//
// # Usage
//
//	buf := buffer.Allocate(30)
//	codec.EncodeHeader(buf, 0, codec.Header{TypeID: 6001, GroupID: 3, RecordLength: 30})
//
//	h, ok := codec.PeekHeader(buf, 0)
//	if ok && h.TypeID == 6001 {
//	    // bind the matching flyweight
//	}
package codec
