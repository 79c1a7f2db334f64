package gradle

import (
	"context"

	"github.com/patina/gradle-runner/pkg/step"
)

// Environment is a handle on an isolated container. Handles are immutable:
// every With* method returns a new handle and leaves the receiver untouched.
// Nothing runs until the outcome of an exec is queried.
type Environment interface {
	step.Execution

	// WithMountedDirectory mounts the repository directory at path, relative
	// to the repository root, replacing the files named in overrides (keyed by
	// path relative to the directory) with the given contents.
	WithMountedDirectory(path string, overrides map[string]string) Environment
	WithEnvVariable(name, value string) Environment
	WithMountedSecret(path, name, plaintext string) Environment
	// WithDockerHost makes the host Docker daemon reachable from the container.
	WithDockerHost() Environment
	WithExec(args []string) Environment

	// Entries lists the top-level entries of a directory of the container.
	// It returns an error wrapping ErrPathNotFound if the directory does not exist.
	Entries(ctx context.Context, path string) ([]string, error)
	// ExportDirectory copies a directory of the container to the host,
	// leaving out the excluded files (relative to the directory).
	ExportDirectory(ctx context.Context, path, hostPath string, exclude ...string) error
}

// Provisioner creates Gradle environments
type Provisioner interface {
	// Gradle returns a fresh environment with the Gradle toolchain, the
	// dependency caches, and the given repository directories mounted.
	Gradle(ctx context.Context, include []string) (Environment, error)
}

// Source reads files of the repository
type Source interface {
	ReadFile(ctx context.Context, path string) (string, error)
}

// SecretMounter provisions connector secrets into an environment
type SecretMounter interface {
	MountSecrets(ctx context.Context, env Environment, technicalName, path string) (Environment, error)
}

// Tracker observes the state of runs
type Tracker interface {
	Begin(connector, task string) string
	Transition(runID string, from, to State) error
}
