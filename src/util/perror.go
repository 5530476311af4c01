package util

import (
	"errors"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Perror collects the errors of batch compilation workers. Err joins them once every worker is done.
type Perror struct {
	errors     []error // Buffer of error messages.
	sync.Mutex         // For synchronising writes and reads.
}

// ----------------------
// ----- Constants ------
// ----------------------

// defaultBufferSize defines the fallback buffer size of the error array.
const defaultBufferSize = 16

// ---------------------
// ----- functions -----
// ---------------------

// NewPerror returns a pointer to a Perror with n number of pre-allocated slots for errors in the buffer.
func NewPerror(n int) *Perror {
	if n < 1 {
		n = defaultBufferSize
	}
	return &Perror{errors: make([]error, 0, n)}
}

// Append buffers the error err. <nil> errors are ignored.
func (pe *Perror) Append(err error) {
	if err == nil {
		return
	}
	pe.Lock()
	defer pe.Unlock()
	pe.errors = append(pe.errors, err)
}

// Len returns the number of buffered errors.
func (pe *Perror) Len() int {
	pe.Lock()
	defer pe.Unlock()
	return len(pe.errors)
}

// Errors returns a copy of the buffered errors in order of arrival.
func (pe *Perror) Errors() []error {
	pe.Lock()
	defer pe.Unlock()
	return append([]error(nil), pe.errors...)
}

// Err joins every buffered error into one, or returns <nil> if none were reported.
func (pe *Perror) Err() error {
	return errors.Join(pe.Errors()...)
}
