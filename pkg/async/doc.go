// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, and context cancellation.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, 30*time.Second, "usage snapshot", func(ctx context.Context) error {
//		return collector.Snapshot(ctx)
//	})
//
// SafeGoNoError: Same, for functions that do not return an error
//
//	async.SafeGoNoError(ctx, 5*time.Second, "cache invalidation", func(ctx context.Context) {
//		catalog.Invalidate(ctx, planName)
//	})
//
// # Features
//
// Panic Recovery: Captures panics with stack traces
// Timeout Enforcement: Per-task timeouts
// Context Cancellation: Respects context cancellation
//
// # Use Cases
//
// Usage snapshots, seed reloads, cache invalidation
//
// # Related Packages
//
//   - pkg/reporter: Uses SafeGo for scheduled usage snapshots
//   - pkg/plans: Uses SafeGo for seed file reloads
package async
