package flyweight

import (
	"math"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/ssargent/fixedrec/pkg/codec"
)

// Kind is the semantic type of a field
type Kind uint8

// Supported field kinds
const (
	KindInt16 Kind = iota + 1
	KindInt32
	KindInt64
	KindBool
	KindASCII
)

// Width returns the encoded width of fixed-width kinds, 0 for ASCII
func (k Kind) Width() int {
	switch k {
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	case KindInt64:
		return 8
	case KindBool:
		return 1
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindInt16:
		return "INT16"
	case KindInt32:
		return "INT"
	case KindInt64:
		return "LONG"
	case KindBool:
		return "BOOLEAN"
	case KindASCII:
		return "FIXED_STRING"
	default:
		return "UNKNOWN"
	}
}

// FieldID is the position of a field within its schema
type FieldID int

// Field describes one fixed-offset field of a record
type Field struct {
	ID      FieldID
	Name    string
	Kind    Kind
	Offset  int  // Byte offset from the start of the record region
	Length  int  // Byte length; must equal Kind.Width for fixed-width kinds
	Key     bool // Identity field, lockable with LockKey
	Indexed bool // Writes notify index hooks before persisting
}

// End returns the offset just past the field
func (f Field) End() int {
	return f.Offset + f.Length
}

// Schema is the immutable layout of one record type
type Schema struct {
	Name    string
	TypeID  int16
	GroupID int16

	fields      []Field
	byName      map[string]int
	totalLength int
}

// NewSchema validates a field layout and computes the record length.
// Fields must start right after the header and follow each other with no
// gaps. Field IDs are assigned in declaration order.
func NewSchema(name string, typeID, groupID int16, fields ...Field) (*Schema, error) {
	if name == "" {
		return nil, errors.Wrap(ErrInvalidSchema, "schema name cannot be empty")
	}
	if len(fields) == 0 {
		return nil, errors.Wrapf(ErrInvalidSchema, "%s: no fields", name)
	}

	s := &Schema{
		Name:    name,
		TypeID:  typeID,
		GroupID: groupID,
		fields:  make([]Field, len(fields)),
		byName:  make(map[string]int, len(fields)),
	}

	next := codec.HeaderLength
	for i, f := range fields {
		if f.Name == "" {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s: field %d has no name", name, i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s: duplicate field %s", name, f.Name)
		}
		switch {
		case f.Kind == KindASCII && f.Length <= 0:
			return nil, errors.Wrapf(ErrInvalidSchema, "%s.%s: string length must be positive", name, f.Name)
		case f.Kind != KindASCII && f.Kind.Width() == 0:
			return nil, errors.Wrapf(ErrInvalidSchema, "%s.%s: unknown kind %d", name, f.Name, f.Kind)
		case f.Kind != KindASCII && f.Length != f.Kind.Width():
			return nil, errors.Wrapf(ErrInvalidSchema, "%s.%s: %s must be %d bytes, got %d",
				name, f.Name, f.Kind, f.Kind.Width(), f.Length)
		}
		if f.Offset != next {
			return nil, errors.Wrapf(ErrInvalidSchema, "%s.%s: offset %d, expected %d", name, f.Name, f.Offset, next)
		}

		f.ID = FieldID(i)
		s.fields[i] = f
		s.byName[f.Name] = i
		next = f.End()
	}
	if !slices.ContainsFunc(s.fields, func(f Field) bool { return f.Key }) {
		return nil, errors.Wrapf(ErrInvalidSchema, "%s: no key field", name)
	}
	if next > math.MaxInt32 {
		return nil, errors.Wrapf(ErrInvalidSchema, "%s: record length %d overflows int32", name, next)
	}
	s.totalLength = next

	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid layout. It is meant
// for package-level schema declarations.
func MustSchema(name string, typeID, groupID int16, fields ...Field) *Schema {
	s, err := NewSchema(name, typeID, groupID, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the schema's fields in layout order
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// FieldByID returns the field with the given ID
func (s *Schema) FieldByID(id FieldID) Field {
	return s.fields[id]
}

// KeyFields returns the fields marked as key
func (s *Schema) KeyFields() []Field {
	var keys []Field
	for _, f := range s.fields {
		if f.Key {
			keys = append(keys, f)
		}
	}
	return keys
}

// IndexedFields returns the fields marked as indexed
func (s *Schema) IndexedFields() []Field {
	var indexed []Field
	for _, f := range s.fields {
		if f.Indexed {
			indexed = append(indexed, f)
		}
	}
	return indexed
}

// TotalLength returns the header length plus the sum of field lengths
func (s *Schema) TotalLength() int {
	return s.totalLength
}

// FixedLength reports whether records of this schema have a fixed length.
// Variable-length records are not supported.
func (s *Schema) FixedLength() bool {
	return true
}

// Header returns the header every valid region of this schema carries
func (s *Schema) Header() codec.Header {
	return codec.Header{
		TypeID:       s.TypeID,
		GroupID:      s.GroupID,
		RecordLength: int32(s.totalLength),
	}
}
