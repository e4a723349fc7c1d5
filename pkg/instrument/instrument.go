// Package instrument is the Instrument record: a 30-byte fixed layout
// identified by type 6001 in group 3.
//
//	offset  len  field
//	0       2    typeId (6001)
//	2       2    groupId (3)
//	4       4    recordLength (30)
//	8       4    id          key
//	12      4    securityId  indexed
//	16      9    cusip       indexed, ASCII
//	25      1    enabled     indexed
//	26      4    minSize
//
// Instrument reads and writes a bound region; View only reads it.
package instrument

import (
	"github.com/ssargent/fixedrec/pkg/buffer"
	"github.com/ssargent/fixedrec/pkg/flyweight"
)

// Layout constants
const (
	TypeID       int16 = 6001
	GroupID      int16 = 3
	BufferLength       = 30
	FixedLength        = true

	IDOffset         = 8
	SecurityIDOffset = 12
	CusipOffset      = 16
	CusipLength      = 9
	EnabledOffset    = 25
	MinSizeOffset    = 26
)

// Schema is the Instrument layout
var Schema = flyweight.MustSchema("Instrument", TypeID, GroupID,
	flyweight.Field{Name: "id", Kind: flyweight.KindInt32, Offset: IDOffset, Length: 4, Key: true},
	flyweight.Field{Name: "securityId", Kind: flyweight.KindInt32, Offset: SecurityIDOffset, Length: 4, Indexed: true},
	flyweight.Field{Name: "cusip", Kind: flyweight.KindASCII, Offset: CusipOffset, Length: CusipLength, Indexed: true},
	flyweight.Field{Name: "enabled", Kind: flyweight.KindBool, Offset: EnabledOffset, Length: 1, Indexed: true},
	flyweight.Field{Name: "minSize", Kind: flyweight.KindInt32, Offset: MinSizeOffset, Length: 4},
)

var (
	fieldID         = Schema.FieldByID(0)
	fieldSecurityID = Schema.FieldByID(1)
	fieldCusip      = Schema.FieldByID(2)
	fieldEnabled    = Schema.FieldByID(3)
	fieldMinSize    = Schema.FieldByID(4)
)

// Errors returned by Instrument operations
var (
	ErrOutOfBounds     = flyweight.ErrOutOfBounds
	ErrImmutableBuffer = flyweight.ErrImmutableBuffer
	ErrKeyLocked       = flyweight.ErrKeyLocked
	ErrValueTooLong    = flyweight.ErrValueTooLong
)

// Instrument is a mutable flyweight over one Instrument region. Binding a
// read-only buffer is allowed; writes then fail with ErrImmutableBuffer.
type Instrument struct {
	rec *flyweight.Record

	securityIDHook flyweight.Hook[int32]
	cusipHook      flyweight.Hook[string]
	enabledHook    flyweight.Hook[bool]
}

// New returns an unbound Instrument
func New() *Instrument {
	return &Instrument{rec: flyweight.New(Schema)}
}

// Bind points the flyweight at buf starting at offset and clears the key lock
func (i *Instrument) Bind(buf buffer.Reader, offset int) error {
	return i.rec.Bind(buf, offset)
}

// BindAndInitialize binds and writes the Instrument header
func (i *Instrument) BindAndInitialize(buf buffer.Reader, offset int) error {
	return i.rec.BindAndInitialize(buf, offset)
}

// WriteHeader writes typeId, groupId and recordLength at the bound offset
func (i *Instrument) WriteHeader() error {
	return i.rec.WriteHeader()
}

// ValidateHeader reports whether the bound region holds an Instrument header
func (i *Instrument) ValidateHeader() bool {
	return i.rec.ValidateHeader()
}

// TypeID returns the Instrument type identifier
func (i *Instrument) TypeID() int16 { return TypeID }

// GroupID returns the Instrument group identifier
func (i *Instrument) GroupID() int16 { return GroupID }

// BufferLength returns the encoded record length
func (i *Instrument) BufferLength() int { return BufferLength }

// SupportsTransactions is always false: writes land directly in the buffer
func (i *Instrument) SupportsTransactions() bool { return false }

// Offset returns the bound offset
func (i *Instrument) Offset() int { return i.rec.Offset() }

// State returns the binding state
func (i *Instrument) State() flyweight.State { return i.rec.State() }

// IsMutable reports whether the bound buffer accepts writes
func (i *Instrument) IsMutable() bool { return i.rec.IsMutable() }

// Record exposes the underlying generic flyweight
func (i *Instrument) Record() *flyweight.Record { return i.rec }

// LockKey prevents further writes to id until the next Bind
func (i *Instrument) LockKey() { i.rec.LockKey() }

// LockKeyID is an alias of LockKey
func (i *Instrument) LockKeyID() { i.rec.LockKey() }

// ReadID reads the id key
func (i *Instrument) ReadID() int32 { return i.rec.Int32(fieldID) }

// WriteID writes the id key
func (i *Instrument) WriteID(value int32) error {
	return i.rec.PutInt32(fieldID, value, nil)
}

// ReadSecurityID reads securityId
func (i *Instrument) ReadSecurityID() int32 { return i.rec.Int32(fieldSecurityID) }

// WriteSecurityID writes securityId, notifying its index first
func (i *Instrument) WriteSecurityID(value int32) error {
	return i.rec.PutInt32(fieldSecurityID, value, i.securityIDHook)
}

// ReadCusip reads cusip with padding trimmed
func (i *Instrument) ReadCusip() string { return i.rec.ASCII(fieldCusip) }

// WriteCusip writes cusip. Values longer than 9 characters fail with
// ErrValueTooLong and leave the buffer untouched.
func (i *Instrument) WriteCusip(value string) error {
	return i.rec.PutASCII(fieldCusip, value, i.cusipHook)
}

// WriteCusipWithPadding right-justifies value in a 9 character field
func (i *Instrument) WriteCusipWithPadding(value string) error {
	return i.rec.PutASCIIPadded(fieldCusip, value, i.cusipHook)
}

// ReadEnabled reads enabled
func (i *Instrument) ReadEnabled() bool { return i.rec.Bool(fieldEnabled) }

// WriteEnabled writes enabled
func (i *Instrument) WriteEnabled(value bool) error {
	return i.rec.PutBool(fieldEnabled, value, i.enabledHook)
}

// ReadMinSize reads minSize
func (i *Instrument) ReadMinSize() int32 { return i.rec.Int32(fieldMinSize) }

// WriteMinSize writes minSize
func (i *Instrument) WriteMinSize(value int32) error {
	return i.rec.PutInt32(fieldMinSize, value, nil)
}

// SetIndexNotifierForSecurityID registers the securityId hook. nil removes it.
func (i *Instrument) SetIndexNotifierForSecurityID(hook flyweight.Hook[int32]) {
	i.securityIDHook = hook
}

// SetIndexNotifierForCusip registers the cusip hook. nil removes it.
func (i *Instrument) SetIndexNotifierForCusip(hook flyweight.Hook[string]) {
	i.cusipHook = hook
}

// SetIndexNotifierForEnabled registers the enabled hook. nil removes it.
func (i *Instrument) SetIndexNotifierForEnabled(hook flyweight.Hook[bool]) {
	i.enabledHook = hook
}

// SetObserver registers an observer for every indexed field
func (i *Instrument) SetObserver(obs flyweight.Observer) {
	i.rec.SetObserver(obs)
}

// View returns a read-only view of the same region
func (i *Instrument) View() View {
	v := NewView()
	if i.rec.IsBound() {
		// cannot fail: the region already fits
		_ = v.Bind(i.rec.Buffer(), i.rec.Offset())
	}
	return v
}

// Snapshot copies every field out of the buffer
func (i *Instrument) Snapshot() Snapshot {
	return snapshotOf(i.rec)
}

// CopyFrom writes every field of s. When the key is locked, s.ID must match
// the stored id and only the other fields are written.
func (i *Instrument) CopyFrom(s Snapshot) error {
	if !i.rec.KeyLocked() || i.ReadID() != s.ID {
		if err := i.WriteID(s.ID); err != nil {
			return err
		}
	}
	return i.UpdateFrom(s)
}

// UpdateFrom writes every non-key field of s
func (i *Instrument) UpdateFrom(s Snapshot) error {
	if err := i.WriteSecurityID(s.SecurityID); err != nil {
		return err
	}
	if err := i.WriteCusip(s.Cusip); err != nil {
		return err
	}
	if err := i.WriteEnabled(s.Enabled); err != nil {
		return err
	}
	return i.WriteMinSize(s.MinSize)
}
