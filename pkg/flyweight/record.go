package flyweight

import (
	"github.com/cockroachdb/errors"
	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/codec"
)

// Record is a flyweight view of one fixed-layout record inside a
// caller-owned buffer. It holds no record data of its own: every read and
// write goes straight to the buffer at the bound offset.
//
// A Record is not safe for concurrent use. Writers to the same byte range
// must be coordinated by the caller.
type Record struct {
	schema   *Schema
	buf      buffer.Reader
	mut      buffer.Writer // nil unless buf supports mutation
	offset   int
	state    State
	observer Observer
}

// New returns an unbound record view for schema
func New(schema *Schema) *Record {
	return &Record{schema: schema}
}

// Schema returns the record's layout
func (r *Record) Schema() *Schema {
	return r.schema
}

// Bind points the view at buf starting at offset. Mutability is detected
// from the buffer's capabilities. The key lock is always cleared. If the
// record does not fit, Bind fails with ErrOutOfBounds and the view is left
// unbound.
func (r *Record) Bind(buf buffer.Reader, offset int) error {
	r.buf, r.mut, r.offset, r.state = nil, nil, 0, Unbound

	if buf == nil {
		return errors.Wrapf(ErrOutOfBounds, "%s: nil buffer", r.schema.Name)
	}
	limit := offset + r.schema.TotalLength()
	if offset < 0 || limit < offset {
		return errors.Wrapf(ErrOutOfBounds, "%s: invalid offset %d", r.schema.Name, offset)
	}
	if err := buf.CheckLimit(limit); err != nil {
		return errors.Wrapf(ErrOutOfBounds, "%s at offset %d: %v", r.schema.Name, offset, err)
	}

	r.buf = buf
	r.mut, _ = buf.(buffer.Writer)
	r.offset = offset
	r.state = Bound
	return nil
}

// BindAndInitialize binds the view and writes the schema header
func (r *Record) BindAndInitialize(buf buffer.Reader, offset int) error {
	if err := r.Bind(buf, offset); err != nil {
		return err
	}
	return r.WriteHeader()
}

// WriteHeader writes the schema's type ID, group ID and length at the bound offset
func (r *Record) WriteHeader() error {
	if r.mut == nil {
		return errors.Wrapf(ErrImmutableBuffer, "%s: write header", r.schema.Name)
	}
	codec.EncodeHeader(r.mut, r.offset, r.schema.Header())
	return nil
}

// ValidateHeader reports whether the bound region carries exactly this
// schema's header. A mismatch is an expected outcome when scanning mixed or
// foreign data, so it is not an error.
func (r *Record) ValidateHeader() bool {
	if r.state == Unbound {
		return false
	}
	return codec.DecodeHeader(r.buf, r.offset).Matches(r.schema.Header())
}

// Header decodes the header currently stored at the bound offset
func (r *Record) Header() codec.Header {
	if r.state == Unbound {
		return codec.Header{}
	}
	return codec.DecodeHeader(r.buf, r.offset)
}

// LockKey prevents further writes to key fields until the next Bind
func (r *Record) LockKey() {
	if r.state == Bound {
		r.state = KeyLocked
	}
}

// State returns the binding state
func (r *Record) State() State {
	return r.state
}

// IsBound reports whether the view is bound to a buffer
func (r *Record) IsBound() bool {
	return r.state != Unbound
}

// IsMutable reports whether the bound buffer accepts writes
func (r *Record) IsMutable() bool {
	return r.mut != nil
}

// KeyLocked reports whether key fields are locked
func (r *Record) KeyLocked() bool {
	return r.state == KeyLocked
}

// Offset returns the bound offset
func (r *Record) Offset() int {
	return r.offset
}

// Buffer returns the bound buffer, nil when unbound
func (r *Record) Buffer() buffer.Reader {
	return r.buf
}

// Region returns the bytes of the bound record. Data is NOT copied.
func (r *Record) Region() []byte {
	if r.state == Unbound {
		return nil
	}
	return r.buf.Bytes(r.offset, r.schema.TotalLength())
}

// SetObserver registers an observer notified of every indexed-field write.
// Passing nil removes it.
func (r *Record) SetObserver(obs Observer) {
	r.observer = obs
}

// checkWrite runs the gates shared by every write, before any byte or
// notification is produced
func (r *Record) checkWrite(f Field) error {
	if r.mut == nil {
		return fieldError(ErrImmutableBuffer, r.schema, f)
	}
	if f.Key && r.state == KeyLocked {
		return fieldError(ErrKeyLocked, r.schema, f)
	}
	return nil
}
