// Package step describes the outcome of a single pipeline step.
//
// A step is one external command run inside an isolated container. The
// package knows nothing about Gradle or connectors; it only turns an
// executed command (exit code, stdout, stderr) into a structured Result
// that the surrounding pipeline can report on.
package step
