package monitor

import (
	"fmt"
	"runtime/debug"
)

// PanicError is a recovered panic together with the stack where it happened.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace returns the captured stack.
func (e *PanicError) StackTrace() string { return string(e.Stack) }

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Go runs fn on a new goroutine. A returned error is recorded as
// [TypeUnhandledRejection]; a panic is recovered and recorded as
// [TypeUncaughtError].
func (m *Monitor) Go(fn func() error) {
	go func() {
		defer m.Recover()
		if err := fn(); err != nil {
			m.RecordError(TypeUnhandledRejection, err)
		}
	}()
}

// Recover must be deferred directly. It records a panic in progress as
// [TypeUncaughtError] and stops it.
//
//	go func() {
//	    defer mon.Recover()
//	    ...
//	}()
func (m *Monitor) Recover() {
	if v := recover(); v != nil {
		m.RecordPanic(v, debug.Stack())
	}
}

// RecordPanic records an already recovered panic value.
func (m *Monitor) RecordPanic(v any, stack []byte) {
	m.RecordError(TypeUncaughtError, &PanicError{Value: v, Stack: stack})
}
