package instrument

import (
	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/codec"
	"github.com/ssargent/fixedrec/pkg/flyweight"
)

// View is a read-only Instrument flyweight. It has no write methods, and
// binding it to a mutable buffer still yields a read-only view.
type View struct {
	rec *flyweight.Record
}

// NewView returns an unbound View
func NewView() View {
	return View{rec: flyweight.New(Schema)}
}

// Bind points the view at buf starting at offset
func (v View) Bind(buf buffer.Reader, offset int) error {
	if buf == nil {
		return v.rec.Bind(nil, offset)
	}
	return v.rec.Bind(buffer.Freeze(buf), offset)
}

// IsBound reports whether the view is bound
func (v View) IsBound() bool { return v.rec != nil && v.rec.IsBound() }

// ValidateHeader reports whether the bound region holds an Instrument header
func (v View) ValidateHeader() bool { return v.rec.ValidateHeader() }

// Header decodes the stored header
func (v View) Header() codec.Header { return v.rec.Header() }

// Offset returns the bound offset
func (v View) Offset() int { return v.rec.Offset() }

// ReadID reads the id key
func (v View) ReadID() int32 { return v.rec.Int32(fieldID) }

// ReadSecurityID reads securityId
func (v View) ReadSecurityID() int32 { return v.rec.Int32(fieldSecurityID) }

// ReadCusip reads cusip with padding trimmed
func (v View) ReadCusip() string { return v.rec.ASCII(fieldCusip) }

// ReadEnabled reads enabled
func (v View) ReadEnabled() bool { return v.rec.Bool(fieldEnabled) }

// ReadMinSize reads minSize
func (v View) ReadMinSize() int32 { return v.rec.Int32(fieldMinSize) }

// Region returns the raw bytes of the record. Data is NOT copied.
func (v View) Region() []byte { return v.rec.Region() }

// Snapshot copies every field out of the buffer
func (v View) Snapshot() Snapshot { return snapshotOf(v.rec) }
