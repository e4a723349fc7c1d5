// Package buffer provides the byte-buffer views that record flyweights bind to.
//
// A buffer never owns a copy of the data it exposes: ReadOnly and Mutable
// are thin views over a caller-supplied []byte, and Mapped exposes the
// pages of a memory-mapped file. Multi-byte integers are little-endian.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrOutOfBounds is returned when a requested limit exceeds the buffer capacity
var ErrOutOfBounds = errors.New("buffer: index out of bounds")

// Reader is the read side of a buffer
type Reader interface {
	Capacity() int
	CheckLimit(limit int) error
	Byte(index int) byte
	Int16(index int) int16
	Int32(index int) int32
	Int64(index int) int64
	ASCII(index, length int) string
	Bytes(index, length int) []byte
}

// Writer is a buffer that supports mutation. Flyweights detect mutability
// by asserting a Reader to Writer.
type Writer interface {
	Reader
	PutByte(index int, value byte)
	PutInt16(index int, value int16)
	PutInt32(index int, value int32)
	PutInt64(index int, value int64)
	PutASCII(index int, value string) int
	PutBytes(index int, src []byte)
	Fill(index, length int, value byte)
}

// IsMutable reports whether r supports mutation
func IsMutable(r Reader) bool {
	_, ok := r.(Writer)
	return ok
}

// ReadOnly is a read-only view over a byte slice
type ReadOnly struct {
	data []byte
}

// NewReadOnly wraps data without copying it
func NewReadOnly(data []byte) *ReadOnly {
	return &ReadOnly{data: data}
}

// Capacity returns the number of addressable bytes
func (b *ReadOnly) Capacity() int {
	return len(b.data)
}

// CheckLimit verifies that limit does not exceed the capacity
func (b *ReadOnly) CheckLimit(limit int) error {
	return checkLimit(limit, len(b.data))
}

// Byte returns the byte at index
func (b *ReadOnly) Byte(index int) byte {
	return b.data[index]
}

// Int16 decodes a little-endian int16 at index
func (b *ReadOnly) Int16(index int) int16 {
	return int16(binary.LittleEndian.Uint16(b.data[index : index+2]))
}

// Int32 decodes a little-endian int32 at index
func (b *ReadOnly) Int32(index int) int32 {
	return int32(binary.LittleEndian.Uint32(b.data[index : index+4]))
}

// Int64 decodes a little-endian int64 at index
func (b *ReadOnly) Int64(index int) int64 {
	return int64(binary.LittleEndian.Uint64(b.data[index : index+8]))
}

// ASCII returns length raw bytes at index as a string, padding included
func (b *ReadOnly) ASCII(index, length int) string {
	return string(b.data[index : index+length])
}

// Bytes returns a sub-slice of the underlying storage. Data is NOT copied.
func (b *ReadOnly) Bytes(index, length int) []byte {
	return b.data[index : index+length : index+length]
}

// Mutable is a read-write view over a byte slice
type Mutable struct {
	ReadOnly
}

// NewMutable wraps data without copying it
func NewMutable(data []byte) *Mutable {
	return &Mutable{ReadOnly: ReadOnly{data: data}}
}

// Allocate returns a zeroed mutable buffer of the given capacity
func Allocate(capacity int) *Mutable {
	return NewMutable(make([]byte, capacity))
}

// View returns a read-only view over the same storage
func (b *Mutable) View() *ReadOnly {
	return &ReadOnly{data: b.data}
}

// PutByte stores value at index
func (b *Mutable) PutByte(index int, value byte) {
	b.data[index] = value
}

// PutInt16 encodes value little-endian at index
func (b *Mutable) PutInt16(index int, value int16) {
	binary.LittleEndian.PutUint16(b.data[index:index+2], uint16(value))
}

// PutInt32 encodes value little-endian at index
func (b *Mutable) PutInt32(index int, value int32) {
	binary.LittleEndian.PutUint32(b.data[index:index+4], uint32(value))
}

// PutInt64 encodes value little-endian at index
func (b *Mutable) PutInt64(index int, value int64) {
	binary.LittleEndian.PutUint64(b.data[index:index+8], uint64(value))
}

// PutASCII writes value one byte per rune without a length prefix.
// Runes outside the ASCII range are written as '?'. It returns the number
// of bytes written.
func (b *Mutable) PutASCII(index int, value string) int {
	n := 0
	for _, r := range value {
		if r >= utf8.RuneSelf {
			r = '?'
		}
		b.data[index+n] = byte(r)
		n++
	}
	return n
}

// PutBytes copies src into the buffer at index
func (b *Mutable) PutBytes(index int, src []byte) {
	copy(b.data[index:index+len(src)], src)
}

// Fill sets length bytes starting at index to value
func (b *Mutable) Fill(index, length int, value byte) {
	region := b.data[index : index+length]
	for i := range region {
		region[i] = value
	}
}

func checkLimit(limit, capacity int) error {
	if limit < 0 || limit > capacity {
		return fmt.Errorf("%w: limit=%d capacity=%d", ErrOutOfBounds, limit, capacity)
	}
	return nil
}

type frozen struct {
	Reader
}

// Freeze returns a read-only view of r. Writer capabilities of r are hidden,
// so flyweights bound to the result detect an immutable buffer.
func Freeze(r Reader) Reader {
	switch b := r.(type) {
	case *Mutable:
		return b.View()
	case Writer:
		return frozen{Reader: b}
	default:
		return r
	}
}
