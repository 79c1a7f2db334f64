package gradle

import (
	"context"
	"fmt"
	"time"

	"github.com/patina/gradle-runner/pkg/connector"
	"github.com/patina/gradle-runner/pkg/step"
)

// FormatTitle names the formatting step
const FormatTitle = "Format connector code"

// FormatCommand formats the whole repository subset mounted in the environment
var FormatCommand = []string{GradleWrapper, "format"}

// Format runs the Gradle formatter over the connector code. When the
// formatter succeeds and outputDir is set, the formatted code directory is
// exported to outputDir on the host. The patched build file is never
// exported.
func (r *Runner) Format(ctx context.Context, conn *connector.Connector, outputDir string) (*step.Result, error) {
	if conn == nil || conn.TechnicalName == "" || conn.CodeDirectory == "" {
		return nil, fmt.Errorf("%w: connector name and code directory are required", ErrInvalidTask)
	}

	logger := r.logger.With("connector", conn.TechnicalName, "task", "format")

	buildFile, err := r.patchedBuildFile(ctx, conn)
	if err != nil {
		return nil, err
	}

	env, err := r.provisioner.Gradle(ctx, conn.LocalDependencyPaths(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
	}

	formatted := env.
		WithDockerHost().
		WithMountedDirectory(conn.CodeDirectory, map[string]string{BuildFileName: buildFile}).
		WithExec(FormatCommand)

	result, err := step.Capture(ctx, FormatTitle, formatted, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecFailed, err)
	}

	if !result.Success() || outputDir == "" {
		return result, nil
	}

	if err := formatted.ExportDirectory(ctx, conn.CodeDirectory, outputDir, BuildFileName); err != nil {
		return result, fmt.Errorf("%w: exporting formatted code: %v", ErrEnvironment, err)
	}
	logger.Info("exported formatted code", "path", outputDir)

	return result, nil
}
