package gradle

import "errors"

var (
	// ErrPatchInput indicates a descriptor to patch could not be read
	ErrPatchInput = errors.New("failed to read descriptor to patch")

	// ErrEnvironment indicates the execution environment could not be built
	ErrEnvironment = errors.New("failed to build execution environment")

	// ErrExecFailed indicates the task outcome could not be obtained from the engine.
	// A task exiting non-zero is not an error, it is a failed step result.
	ErrExecFailed = errors.New("task execution failed")

	// ErrCacheExport indicates the dependency cache could not be exported
	ErrCacheExport = errors.New("dependency cache export failed")

	// ErrPathNotFound is returned by Environment.Entries for a missing directory
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidTask indicates an unusable connector or task spec
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidTransition indicates a run state change that the state machine forbids
	ErrInvalidTransition = errors.New("invalid run state transition")
)

// IsPatchInput returns true if the run aborted because a descriptor was unreadable
func IsPatchInput(err error) bool {
	return errors.Is(err, ErrPatchInput)
}

// IsCacheExport returns true if only the cache export failed
func IsCacheExport(err error) bool {
	return errors.Is(err, ErrCacheExport)
}
