package panicerr

import "errors"

// Recover runs f in a new goroutine wrapped in defer logic to recover any
// abnormal exits or panics as non-nil error returns. Errors passed to Halt
// come back unwrapped, as if f had returned them.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverAbort(name, errch)
		errch <- f()
	}()
	err := <-errch
	var he haltError
	if errors.As(err, &he) {
		return he.error
	}
	return err
}

// Halt aborts the work of a function running under Recover, which then
// returns err. A nil err halts normally.
func Halt(err error) {
	panic(haltError{err})
}

// HaltIf calls Halt with any non-nil error.
func HaltIf(err error) {
	if err != nil {
		Halt(err)
	}
}

type haltError struct{ error }

func (he haltError) Error() string {
	if he.error != nil {
		return "halted: " + he.error.Error()
	}
	return "halted"
}

func (he haltError) Unwrap() error { return he.error }
