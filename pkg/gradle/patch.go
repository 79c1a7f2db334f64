package gradle

import "strings"

const (
	// BuildFileName is the connector build descriptor
	BuildFileName = "build.gradle"

	// BuildSrcDirectory holds the plugins shared by every connector
	BuildSrcDirectory = "buildSrc"

	// AcceptanceTestPluginPath is the shared acceptance-test plugin, relative to BuildSrcDirectory
	AcceptanceTestPluginPath = "src/main/groovy/airbyte-connector-acceptance-test.gradle"

	// AcceptanceTestDependency makes integrationTest run connectorAcceptanceTest.
	// Acceptance tests are a step of their own.
	AcceptanceTestDependency = "project.integrationTest.dependsOn(project.connectorAcceptanceTest)"
)

// LinesToRemoveFromBuildFile are dropped from connector build files.
// Normalization is built outside of Gradle.
var LinesToRemoveFromBuildFile = []string{
	"project(':airbyte-integrations:bases:base-normalization').airbyteDocker.output",
}

// RemoveLines drops every line of content containing one of the forbidden
// substrings. Kept lines stay in order and each is terminated by a newline.
func RemoveLines(content string, forbidden []string) string {
	var b strings.Builder
	b.Grow(len(content) + 1)

	for _, line := range strings.Split(content, "\n") {
		if containsAny(line, forbidden) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}

func containsAny(line string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// PatchBuildFile patches a connector build.gradle
func PatchBuildFile(content string) string {
	return RemoveLines(content, LinesToRemoveFromBuildFile)
}

// PatchAcceptanceTestPlugin removes the integrationTest dependency on
// connectorAcceptanceTest from the shared plugin.
func PatchAcceptanceTestPlugin(content string) string {
	return strings.ReplaceAll(content, AcceptanceTestDependency, "")
}
