package coroutine

// Future is the minimal shape Selector needs to poll a pending result
// without depending on what produces it — workflow-level Future (activity
// results, timers, child workflow handles) implements this by delegating to
// a Channel under the hood.
type Future interface {
	// IsReady reports whether Get would return without blocking.
	IsReady() bool
}
