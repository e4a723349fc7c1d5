package flyweight

import (
	"github.com/cockroachdb/errors"
	"github.com/ssargent/fixedrec/pkg/codec"
)

// Typed field accessors. Reads are side-effect free and valid on both
// mutable and immutable bindings; an unbound record reads zero values.
// Writes check mutability, the key lock and string width, then notify
// index hooks for indexed fields, then store the bytes.

// Int16 reads an int16 field
func (r *Record) Int16(f Field) int16 {
	if r.state == Unbound {
		return 0
	}
	return r.buf.Int16(r.offset + f.Offset)
}

// Int32 reads an int32 field
func (r *Record) Int32(f Field) int32 {
	if r.state == Unbound {
		return 0
	}
	return r.buf.Int32(r.offset + f.Offset)
}

// Int64 reads an int64 field
func (r *Record) Int64(f Field) int64 {
	if r.state == Unbound {
		return 0
	}
	return r.buf.Int64(r.offset + f.Offset)
}

// Bool reads a boolean field. Only the byte 1 is true.
func (r *Record) Bool(f Field) bool {
	if r.state == Unbound {
		return false
	}
	return r.buf.Byte(r.offset+f.Offset) == 1
}

// ASCII reads a fixed-width ASCII field with padding stripped
func (r *Record) ASCII(f Field) string {
	if r.state == Unbound {
		return ""
	}
	return codec.TrimASCII(r.buf.ASCII(r.offset+f.Offset, f.Length))
}

// PutInt16 writes an int16 field
func (r *Record) PutInt16(f Field, value int16, hook Hook[int16]) error {
	if err := r.checkWrite(f); err != nil {
		return err
	}
	notify(r, f, hook, value)
	r.mut.PutInt16(r.offset+f.Offset, value)
	return nil
}

// PutInt32 writes an int32 field
func (r *Record) PutInt32(f Field, value int32, hook Hook[int32]) error {
	if err := r.checkWrite(f); err != nil {
		return err
	}
	notify(r, f, hook, value)
	r.mut.PutInt32(r.offset+f.Offset, value)
	return nil
}

// PutInt64 writes an int64 field
func (r *Record) PutInt64(f Field, value int64, hook Hook[int64]) error {
	if err := r.checkWrite(f); err != nil {
		return err
	}
	notify(r, f, hook, value)
	r.mut.PutInt64(r.offset+f.Offset, value)
	return nil
}

// PutBool writes a boolean field as a single byte, 1 or 0
func (r *Record) PutBool(f Field, value bool, hook Hook[bool]) error {
	if err := r.checkWrite(f); err != nil {
		return err
	}
	notify(r, f, hook, value)
	var b byte
	if value {
		b = 1
	}
	r.mut.PutByte(r.offset+f.Offset, b)
	return nil
}

// PutASCII writes a fixed-width ASCII field. Values longer than the field
// fail with ErrValueTooLong; nothing is truncated. Bytes past a shorter
// value are cleared to NUL so no stale characters survive.
func (r *Record) PutASCII(f Field, value string, hook Hook[string]) error {
	if err := r.checkWrite(f); err != nil {
		return err
	}
	n := codec.ASCIILength(value)
	if n > f.Length {
		return errors.Wrapf(fieldError(ErrValueTooLong, r.schema, f), "length %d exceeds %d", n, f.Length)
	}
	notify(r, f, hook, value)
	written := r.mut.PutASCII(r.offset+f.Offset, value)
	if written < f.Length {
		r.mut.Fill(r.offset+f.Offset+written, f.Length-written, 0)
	}
	return nil
}

// PutASCIIPadded right-justifies value with spaces to the field width and
// writes it with PutASCII
func (r *Record) PutASCIIPadded(f Field, value string, hook Hook[string]) error {
	return r.PutASCII(f, codec.PadLeft(value, f.Length, codec.DefaultPad), hook)
}
