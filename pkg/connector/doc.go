// Package connector supplies metadata about the connectors living in the
// repository: where their code is, and which other directories of the
// repository they need in order to build.
package connector
