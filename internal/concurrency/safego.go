// Package concurrency provides panic-protected goroutine helpers used by
// both orchestrators so a panic inside any fanned-out sub-task (a checker,
// a criterion check, a model call) is recovered, logged, and never crashes
// the process or skips workspace cleanup (§9 "a panic in any sub-task must
// still release the workspace").
package concurrency

import (
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
)

// SafeGo runs fn in a goroutine, recovering and logging any panic instead
// of letting it crash the process. name identifies the goroutine in logs.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer recoverAndLog(logger, name)
		fn()
	}()
}

// Guard recovers a panic on the calling goroutine itself (for use as the
// first deferred call in a long pipeline function), logging it the same
// way SafeGo does. It does not re-panic: callers that need the pipeline to
// continue past a panicking stage should call Guard and then check the
// returned error via a named result parameter in the deferred function.
func Guard(logger arbor.ILogger, name string) {
	if r := recover(); r != nil {
		logPanic(logger, name, r)
	}
}

func recoverAndLog(logger arbor.ILogger, name string) {
	if r := recover(); r != nil {
		logPanic(logger, name, r)
	}
}

func logPanic(logger arbor.ILogger, name string, r any) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	if logger != nil {
		logger.Error().
			Str("goroutine", name).
			Str("panic", fmt.Sprintf("%v", r)).
			Str("stack", string(buf[:n])).
			Msg("recovered from panic - continuing service operation")
	}
}
