// Package environment creates the Dagger containers Gradle tasks run in.
//
// A Provider turns a host checkout of the repository into isolated
// containers: only the requested part of the repository is uploaded, the
// Gradle dependency cache volumes are mounted, and nothing on the host is
// ever written except through an explicit export. Containers are lazy
// Dagger pipelines, so every With* call is cheap and nothing runs until an
// outcome is queried.
package environment
