package panicerr

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Recover(t *testing.T) {
	errBang := errors.New("bang")
	for _, tc := range []struct {
		name      string
		err       string
		wraps     string
		is        error
		fun       func() error
		haveStack bool
	}{
		{
			name:      "",
			err:       "panicked: shrug",
			wraps:     "shrug",
			haveStack: true,
			fun:       func() error { panic(errors.New("shrug")) },
		},
		{
			name: "",
			err:  "called runtime.Goexit",
			fun:  func() error { runtime.Goexit(); return nil },
		},
		{
			name: "normal",
			fun:  func() error { return nil },
		},
		{
			name: "normal err",
			err:  "bang",
			fun:  func() error { return errors.New("bang") },
		},
		{
			name:      "panic err",
			err:       "panic err panicked: bang",
			wraps:     "bang",
			haveStack: true,
			fun:       func() error { panic(errors.New("bang")) },
		},
		{
			name:      "hello panic",
			err:       "hello panic panicked: hello",
			haveStack: true,
			fun:       func() error { panic("hello") },
		},
		{
			name: "exit",
			err:  "exit called runtime.Goexit",
			fun:  func() error { runtime.Goexit(); return nil },
		},
		{
			name: "halt",
			err:  "bang",
			is:   errBang,
			fun:  func() error { Halt(errBang); return nil },
		},
		{
			name: "halt wrapped",
			err:  "deep: bang",
			is:   errBang,
			fun: func() error {
				func() { HaltIf(fmt.Errorf("deep: %w", errBang)) }()
				return nil
			},
		},
		{
			name: "halt nil",
			fun:  func() error { Halt(nil); return errBang },
		},
		{
			name:      "index panic",
			err:       "index panic panicked: runtime error: index out of range [1] with length 0",
			haveStack: true,
			fun:       func() error { _ = ([]int)(nil)[1]; return nil },
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := Recover(tc.name, tc.fun)
			if tc.err == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.err)
				if tc.wraps != "" {
					assert.EqualError(t, errors.Unwrap(err), tc.wraps, "expected panic(error) value")
				}
				if tc.is != nil {
					assert.True(t, errors.Is(err, tc.is), "expected halt error to unwrap")
				}
			}
			stack := PanicStack(err)
			if tc.haveStack {
				assert.NotEqual(t, "", stack, "expected a stack trace")
				assert.True(t, IsPanic(err), "expected a panic error")
			} else {
				assert.Equal(t, "", stack, "expected no stack trace")
			}
			if t.Failed() && stack != "" {
				t.Logf("panic stack: %v", stack)
			}
		})
	}
}

func Test_Recover_stacktrace(t *testing.T) {
	err := Recover("", func() error {
		panic("nope")
	})
	require.Error(t, err, "must have a recovered error")

	assert.True(t,
		strings.HasSuffix(fmt.Sprintf("%+v", err), PanicStack(err)),
		"expected verbose format to end with a stack trace")
}

func Test_Recover_kinds(t *testing.T) {
	exit := Recover("quit", func() error { runtime.Goexit(); return nil })
	assert.True(t, IsExit(exit), "expected an exit error")
	assert.False(t, IsPanic(exit), "an exit is not a panic")

	panicked := Recover("boom", func() error { panic("boom") })
	assert.True(t, IsPanic(panicked), "expected a panic error")
	assert.False(t, IsExit(panicked), "a panic is not an exit")

	assert.False(t, IsExit(errors.New("plain")))
}
