package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// abortError records a goroutine under Recover that ended without returning:
// either by panic, or by runtime.Goexit when value is nil and exit is set.
type abortError struct {
	name  string
	exit  bool
	value interface{}
	stack []byte
}

// recoverAbort must be deferred directly by the goroutine that runs f. The
// happy path always sends first, so a full errch means f returned.
func recoverAbort(name string, errch chan<- error) {
	ae := abortError{name: name}
	if ae.value = recover(); ae.value != nil {
		ae.stack = debug.Stack()
	} else {
		ae.exit = true
	}
	select {
	case errch <- ae:
	default:
	}
}

func (ae abortError) Error() string { return fmt.Sprint(ae) }

func (ae abortError) Format(f fmt.State, c rune) {
	what := fmt.Sprintf("panicked: %v", ae.value)
	if ae.exit {
		what = "called runtime.Goexit"
	}
	if ae.name != "" {
		fmt.Fprintf(f, "%v %v", ae.name, what)
	} else {
		fmt.Fprint(f, what)
	}
	if c == 'v' && f.Flag('+') && len(ae.stack) > 0 {
		fmt.Fprintf(f, "\nPanic stack: %s", ae.stack)
	}
}

// Unwrap returns the panic value when it was an error.
func (ae abortError) Unwrap() error {
	err, _ := ae.value.(error)
	return err
}

// IsExit reports whether err records a goroutine that called runtime.Goexit.
func IsExit(err error) bool {
	var ae abortError
	return errors.As(err, &ae) && ae.exit
}

// IsPanic reports whether err records a recovered panic.
func IsPanic(err error) bool {
	var ae abortError
	return errors.As(err, &ae) && !ae.exit
}

// PanicStack returns the stack captured with a recovered panic, or "".
func PanicStack(err error) string {
	var ae abortError
	if errors.As(err, &ae) {
		return string(ae.stack)
	}
	return ""
}
