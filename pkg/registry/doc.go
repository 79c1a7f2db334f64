// Package registry keeps track of the Gradle task runs of a process.
//
// It owns its state and hands out copies, so callers can inspect runs while
// other goroutines move them through their states. The registry implements
// gradle.Tracker.
package registry
