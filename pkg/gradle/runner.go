package gradle

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/patina/gradle-runner/pkg/connector"
	"github.com/patina/gradle-runner/pkg/step"
)

// RyukDisabledEnv turns off the Testcontainers reaper container, which needs
// privileged Docker access the environment cannot grant.
const RyukDisabledEnv = "TESTCONTAINERS_RYUK_DISABLED"

// Config holds the collaborators of a Runner
type Config struct {
	Provisioner Provisioner
	Source      Source

	// Secrets is optional, connectors run without secrets when nil
	Secrets SecretMounter

	// Tracker is optional
	Tracker Tracker
}

// Runner runs Gradle tasks of connectors. It is safe for concurrent use,
// each run gets its own environment.
type Runner struct {
	provisioner Provisioner
	source      Source
	secrets     SecretMounter
	tracker     Tracker
	logger      *slog.Logger
}

// NewRunner creates a new runner
func NewRunner(config *Config, logger *slog.Logger) (*Runner, error) {
	if config == nil || config.Provisioner == nil || config.Source == nil {
		return nil, fmt.Errorf("%w: provisioner and source are required", ErrEnvironment)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		provisioner: config.Provisioner,
		source:      config.Source,
		secrets:     config.Secrets,
		tracker:     config.Tracker,
		logger:      logger,
	}, nil
}

// Run executes spec for conn and returns its step result.
//
// A task exiting non-zero yields a failed result, not an error. Errors are
// returned when the run aborts (unreadable descriptor, environment or engine
// failure), in which case the result is nil. When only the dependency cache
// export fails, Run returns both the result and an error wrapping
// ErrCacheExport.
func (r *Runner) Run(ctx context.Context, conn *connector.Connector, spec TaskSpec) (*step.Result, error) {
	if conn == nil || conn.TechnicalName == "" || conn.CodeDirectory == "" {
		return nil, fmt.Errorf("%w: connector name and code directory are required", ErrInvalidTask)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	logger := r.logger.With("connector", conn.TechnicalName, "task", spec.TaskName)
	p := newProgress(r.tracker, logger, conn.TechnicalName, spec.TaskName)
	if err := p.advance(StatePatching); err != nil {
		return nil, err
	}

	buildFile, err := r.patchedBuildFile(ctx, conn)
	if err != nil {
		p.abort()
		return nil, err
	}

	plugin, err := r.patchedAcceptanceTestPlugin(ctx)
	if err != nil {
		p.abort()
		return nil, err
	}

	if err := p.advance(StateMounting); err != nil {
		return nil, err
	}

	env, err := r.provisioner.Gradle(ctx, conn.LocalDependencyPaths(spec.WithTestDependencies))
	if err != nil {
		p.abort()
		return nil, fmt.Errorf("%w: %v", ErrEnvironment, err)
	}

	env = env.
		WithMountedDirectory(conn.CodeDirectory, map[string]string{BuildFileName: buildFile}).
		WithMountedDirectory(BuildSrcDirectory, map[string]string{AcceptanceTestPluginPath: plugin}).
		WithEnvVariable(RyukDisabledEnv, "true")

	if r.secrets != nil {
		env, err = r.secrets.MountSecrets(ctx, env, conn.TechnicalName, conn.SecretsPath())
		if err != nil {
			p.abort()
			return nil, fmt.Errorf("%w: mounting secrets: %v", ErrEnvironment, err)
		}
	}

	if spec.BindToDockerHost {
		env = env.WithDockerHost()
	}

	if err := p.advance(StateExecuting); err != nil {
		return nil, err
	}

	cmd := Command(conn.TechnicalName, spec)
	logger.Info("running gradle task", "command", strings.Join(cmd, " "))

	startTime := time.Now()
	executed := env.WithExec(cmd)

	result, err := step.Capture(ctx, spec.Title, executed, startTime)
	if err != nil {
		// No result, so no cache export either
		p.abort()
		return nil, fmt.Errorf("%w: %v", ErrExecFailed, err)
	}

	if err := p.advance(StateResultCaptured); err != nil {
		return nil, err
	}

	logger.Info("gradle task finished",
		"status", result.Status,
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)

	if err := p.advance(StateCacheExporting); err != nil {
		return nil, err
	}

	_, cacheErr := ExportDependencyCache(ctx, executed)

	if err := p.advance(StateDone); err != nil {
		return nil, err
	}

	if cacheErr != nil {
		logger.Warn("failed to export gradle dependency cache", "error", cacheErr)
		return result, cacheErr
	}

	return result, nil
}

func (r *Runner) patchedBuildFile(ctx context.Context, conn *connector.Connector) (string, error) {
	filePath := path.Join(conn.CodeDirectory, BuildFileName)

	content, err := r.source.ReadFile(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPatchInput, filePath, err)
	}

	return PatchBuildFile(content), nil
}

func (r *Runner) patchedAcceptanceTestPlugin(ctx context.Context) (string, error) {
	filePath := path.Join(BuildSrcDirectory, AcceptanceTestPluginPath)

	content, err := r.source.ReadFile(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPatchInput, filePath, err)
	}

	return PatchAcceptanceTestPlugin(content), nil
}
