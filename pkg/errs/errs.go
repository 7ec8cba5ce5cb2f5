package errs

import (
	"errors"
	"runtime"
	"strconv"
	"strings"

	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

const (
	traceSkip     = 3
	trackPrealloc = 50
)

type sFrame struct {
	filename string
	method   string
	line     int
}

type stack []sFrame

func (s stack) String() string {
	var sb strings.Builder
	for i, f := range s {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.method)
		sb.WriteString("\n\t")
		sb.WriteString(f.filename)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(f.line))
	}

	return sb.String()
}

type errorWithTrace struct {
	error

	trace stack
}

func (e *errorWithTrace) Unwrap() error {
	return e.error
}

// NewStack attaches the current call stack to err and logs it once.
// Errors that already carry a stack are returned unchanged.
func NewStack(err error) error {
	if err == nil {
		return nil
	}

	var errWT *errorWithTrace

	// Add trace only once
	if errors.As(err, &errWT) {
		return err
	}

	stack := stackTrace(traceSkip)

	log.Error("error with stack", zap.Error(err), zap.String("stack", stack.String()))

	return &errorWithTrace{
		error: err,
		trace: stack,
	}
}

// Stack returns the recorded call stack of err, or an empty string when err
// was never passed through NewStack.
func Stack(err error) string {
	var errWT *errorWithTrace
	if errors.As(err, &errWT) {
		return errWT.trace.String()
	}

	return ""
}

func stackTrace(skip int) stack {
	pc := make([]uintptr, trackPrealloc)
	n := runtime.Callers(skip, pc)
	pc = pc[:n]

	frames := runtime.CallersFrames(pc)
	stack := make(stack, 0, n)

	for {
		frame, more := frames.Next()

		stack = append(stack, sFrame{filename: frame.File, method: frame.Function, line: frame.Line})

		if !more {
			break
		}
	}

	return stack
}
