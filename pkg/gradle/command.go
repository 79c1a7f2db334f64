package gradle

import "fmt"

const (
	// GradleWrapper is the entry point of every invocation
	GradleWrapper = "./gradlew"

	// ConnectorsProject is the Gradle project path holding connectors
	ConnectorsProject = ":airbyte-integrations:connectors"
)

// DefaultExtraOptions are passed to Gradle unless a task overrides them
var DefaultExtraOptions = []string{"--no-daemon", "--scan", "--build-cache"}

// DefaultExcludedTasks are excluded from every invocation.
// Images are built by a dedicated step, not by Gradle.
var DefaultExcludedTasks = []string{"airbyteDocker"}

// TaskPath returns the fully qualified Gradle task of a connector
func TaskPath(technicalName, taskName string) string {
	return fmt.Sprintf("%s:%s:%s", ConnectorsProject, technicalName, taskName)
}

// Command builds the Gradle command line running spec for a connector.
// Exclusions are always appended, in order and without deduplication,
// whatever the extra options are.
func Command(technicalName string, spec TaskSpec) []string {
	options := spec.extraOptions()
	excluded := spec.excludedTasks()

	cmd := make([]string, 0, 2+len(options)+2*len(excluded))
	cmd = append(cmd, GradleWrapper)
	cmd = append(cmd, options...)
	cmd = append(cmd, TaskPath(technicalName, spec.TaskName))
	for _, task := range excluded {
		cmd = append(cmd, "-x", task)
	}

	return cmd
}
