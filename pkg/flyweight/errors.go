package flyweight

import "github.com/cockroachdb/errors"

// Errors reported by bound records. Callers match them with errors.Is;
// returned errors carry the record and field context.
var (
	ErrOutOfBounds     = errors.New("record out of buffer bounds")
	ErrImmutableBuffer = errors.New("cannot write to immutable buffer")
	ErrKeyLocked       = errors.New("cannot write key after locking")
	ErrValueTooLong    = errors.New("value longer than field width")
	ErrUnknownField    = errors.New("unknown field")
	ErrKindMismatch    = errors.New("value does not match field kind")
	ErrInvalidSchema   = errors.New("invalid schema")
)

func fieldError(err error, s *Schema, f Field) error {
	return errors.Wrapf(err, "%s.%s", s.Name, f.Name)
}
