package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with a stack trace.
// Use in a defer at the top of long-lived goroutines:
//
//	defer observability.RecoverPanic(logger, "seed watcher")
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic":   fmt.Sprintf("%v", r),
			"context": context,
			"stack":   string(debug.Stack()),
		}).Error("recovered from panic")
	}
}
