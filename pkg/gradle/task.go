package gradle

import (
	"fmt"
	"strings"
)

// TaskSpec configures a Gradle task run
type TaskSpec struct {
	// Title names the step in results and logs
	Title string

	// TaskName is the Gradle task of the connector project, e.g. integrationTest
	TaskName string

	// ExcludedTasks are passed as -x flags. Nil means DefaultExcludedTasks.
	ExcludedTasks []string

	// ExtraOptions are passed before the task. Nil means DefaultExtraOptions,
	// an empty non-nil slice means no options.
	ExtraOptions []string

	// BindToDockerHost exposes the host Docker daemon to the task
	BindToDockerHost bool

	// WithTestDependencies mounts the test-only local dependencies too
	WithTestDependencies bool
}

// NewTaskSpec returns a spec with the default exclusions and options,
// bound to the Docker host and mounting test dependencies.
func NewTaskSpec(title, taskName string) TaskSpec {
	return TaskSpec{
		Title:                title,
		TaskName:             taskName,
		BindToDockerHost:     true,
		WithTestDependencies: true,
	}
}

// IntegrationTest runs the connector integration tests
func IntegrationTest() TaskSpec {
	return NewTaskSpec("Java Connector Integration Tests", "integrationTest")
}

// UnitTest runs the connector unit tests
func UnitTest() TaskSpec {
	return NewTaskSpec("Java Connector Unit Tests", "test")
}

// BuildTar builds the connector distribution tarball
func BuildTar() TaskSpec {
	return NewTaskSpec("Build connector tar", "distTar")
}

// TaskByName returns the preset running taskName, or a default spec for it
func TaskByName(taskName string) TaskSpec {
	for _, spec := range []TaskSpec{IntegrationTest(), UnitTest(), BuildTar()} {
		if spec.TaskName == taskName {
			return spec
		}
	}
	return NewTaskSpec(fmt.Sprintf("Gradle %s", taskName), taskName)
}

// Validate checks the spec can produce a Gradle command
func (s TaskSpec) Validate() error {
	if s.TaskName == "" {
		return fmt.Errorf("%w: task name is required", ErrInvalidTask)
	}
	if strings.ContainsAny(s.TaskName, ": \t\n") {
		return fmt.Errorf("%w: task name %q must not contain separators", ErrInvalidTask, s.TaskName)
	}
	for _, task := range s.excludedTasks() {
		if task == "" {
			return fmt.Errorf("%w: empty excluded task", ErrInvalidTask)
		}
	}
	return nil
}

func (s TaskSpec) excludedTasks() []string {
	if s.ExcludedTasks == nil {
		return DefaultExcludedTasks
	}
	return s.ExcludedTasks
}

func (s TaskSpec) extraOptions() []string {
	if s.ExtraOptions == nil {
		return DefaultExtraOptions
	}
	return s.ExtraOptions
}
