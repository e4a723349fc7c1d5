// Package flyweight implements the runtime contract of fixed-layout record
// flyweights: binding a view to (buffer, offset), header management, typed
// field access, the key lock and index-update notification.
//
// # Binding
//
// A Record is created unbound for a Schema and bound with Bind or
// BindAndInitialize. Binding checks that offset+TotalLength fits in the
// buffer (ErrOutOfBounds otherwise), detects whether the buffer implements
// buffer.Writer, and clears the key lock. A record may be rebound at any
// time; nothing is released when it is discarded.
//
// # States
//
//	Unbound --Bind--> Bound --LockKey--> KeyLocked
//	   any  --Bind--> Bound
//
// Mutability is orthogonal to these states.
//
// # Writes
//
// Every write checks, in order: mutability (ErrImmutableBuffer), the key
// lock for key fields (ErrKeyLocked) and the width of string values
// (ErrValueTooLong). A failed write touches neither the buffer nor any hook.
// For indexed fields the typed Hook and then the Observer are called with
// the new value before the bytes are stored, so an index can still read the
// previous value from the buffer.
//
// # Errors
//
// Errors wrap the package sentinels with record and field context; match
// them with errors.Is. A header mismatch is not an error: ValidateHeader
// returns false.
package flyweight
