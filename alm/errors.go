package alm

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// ShapeError reports a violated precondition on lmax, mmax, mval, mstart,
// backing-buffer sizes, conformability, completeness or a factor-array
// length — anything the index scheme or coefficient store can catch
// before doing any real work.
type ShapeError struct {
	Message string
	File    string
	Line    int
	Func    string
}

func (e *ShapeError) Error() string {
	if e.Func == "" {
		return fmt.Sprintf("shape error: %s", e.Message)
	}
	return fmt.Sprintf("shape error: %s (at %s, %s:%d)", e.Message, e.Func, e.File, e.Line)
}

// UserJobError wraps whatever a fan-out worker paniced or returned an
// error with. When several workers in the same fan-out fail, exactly one
// UserJobError survives to the caller; the rest are dropped (see
// sched.Distribution.Map).
type UserJobError struct {
	Cause error
}

func (e *UserJobError) Error() string { return fmt.Sprintf("user job failed: %v", e.Cause) }
func (e *UserJobError) Unwrap() error { return e.Cause }

// AssertHandler is invoked by Assert when its condition is false. The
// default panics with the located *ShapeError, which is the closest Go
// analog to "abort the process": an unrecovered panic terminates the
// process exactly as the reference design's assert does, while a caller
// that wraps its top-level call in recover() gets the "convert to a
// recoverable error in production" affordance the spec's error design
// asks higher layers to provide. Exported constructors and mutators in
// this package install their own recover() at the boundary and return
// the *ShapeError normally instead of relying on a caller's recover.
var AssertHandler func(err error) = func(err error) { panic(err) }

var asserting atomic.Bool

// Assert emits a located ShapeError through AssertHandler when cond is
// false. Re-entrant assertion failures (a failure occurring while
// AssertHandler is already running for a prior failure) call the default
// panic handler directly to avoid recursing into user code a second time.
func Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	pc, file, line, ok := runtime.Caller(1)
	fn := ""
	if ok {
		if f := runtime.FuncForPC(pc); f != nil {
			fn = f.Name()
		}
	} else {
		file, line = "unknown", 0
	}
	err := &ShapeError{Message: msg, File: file, Line: line, Func: fn}
	if !asserting.CompareAndSwap(false, true) {
		panic(err)
	}
	defer asserting.Store(false)
	AssertHandler(err)
}

// recoverShape converts a panic carrying a *ShapeError (raised by Assert
// through the default AssertHandler) into a normal error return. It is
// deferred at the top of every exported function that can fail on a bad
// shape. Panics carrying anything else propagate unchanged, since those
// indicate a genuine bug rather than a documented precondition failure.
func recoverShape(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if se, ok := r.(*ShapeError); ok {
		*errp = se
		return
	}
	panic(r)
}
