package events

import (
	"encoding"
	"fmt"
)

// Register window tags. The first byte of the window says whether a record
// follows; everything after it belongs to the record's own encoding.
const (
	registerUninitialized byte = 0
	registerInitialized   byte = 1
)

// recordPtr ties a record type to its pointer so ReadRegister can decode
// into a fresh value without reflection.
type recordPtr[T any] interface {
	*T
	encoding.BinaryUnmarshaler
}

// Register is the decoded state of a queue's register window: either empty or
// holding one record of type T. The register is how a privileged caller
// receives the outcome of the operation it just invoked, since the queue's
// storage is the only channel both sides share.
type Register[T any] struct {
	value T
	ok    bool
}

// Initialized reports whether the register holds a record.
func (r Register[T]) Initialized() bool {
	return r.ok
}

// Value returns the held record. Reading an empty register is a calling
// contract violation and returns ErrRegisterUninitialized.
func (r Register[T]) Value() (T, error) {
	if !r.ok {
		var zero T
		return zero, ErrRegisterUninitialized
	}
	return r.value, nil
}

// Must returns the held record or panics. Use it where an empty register
// is impossible by construction, such as directly after a successful
// operation that always writes one.
func (r Register[T]) Must() T {
	if !r.ok {
		panic(ErrRegisterUninitialized)
	}
	return r.value
}

// ReadRegister decodes the queue's register window. An empty window decodes
// to an uninitialized Register, not an error; a tag that is neither empty nor
// present means the window no longer holds what this module wrote.
func ReadRegister[T any, PT recordPtr[T]](q *Queue) (Register[T], error) {
	win := q.registerWindow()
	switch win[0] {
	case registerUninitialized:
		return Register[T]{}, nil
	case registerInitialized:
		var v T
		if err := PT(&v).UnmarshalBinary(win[1:]); err != nil {
			return Register[T]{}, fmt.Errorf("%w: %v", ErrCorruptedRegister, err)
		}
		return Register[T]{value: v, ok: true}, nil
	default:
		return Register[T]{}, fmt.Errorf("%w: bad tag 0x%02x", ErrCorruptedRegister, win[0])
	}
}
