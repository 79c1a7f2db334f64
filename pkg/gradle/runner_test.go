package gradle_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/patina/gradle-runner/internal/testutil"
	"github.com/patina/gradle-runner/pkg/connector"
	"github.com/patina/gradle-runner/pkg/gradle"
	"github.com/patina/gradle-runner/pkg/registry"
	"github.com/patina/gradle-runner/pkg/step"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

const (
	testBuildFile = "plugins {\n    id 'airbyte-docker'\n}\n" +
		"integrationTestJavaImplementation files(project(':airbyte-integrations:bases:base-normalization').airbyteDocker.outputs)\n"
	testPlugin = "project.integrationTest.dependsOn(project.connectorAcceptanceTest)\n"
)

var pluginPath = gradle.BuildSrcDirectory + "/" + gradle.AcceptanceTestPluginPath

func testSource(connectors ...string) testutil.FakeSource {
	src := testutil.FakeSource{pluginPath: testPlugin}
	for _, name := range connectors {
		src[connector.New(name).CodeDirectory+"/build.gradle"] = testBuildFile
	}
	return src
}

type runnerFixture struct {
	engine   *testutil.FakeEngine
	registry *registry.Registry
	runner   *gradle.Runner
}

func newRunnerFixture(t *testing.T, src gradle.Source, secrets gradle.SecretMounter) *runnerFixture {
	t.Helper()

	engine := testutil.NewFakeEngine()
	reg := registry.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	runner, err := gradle.NewRunner(&gradle.Config{
		Provisioner: engine,
		Source:      src,
		Secrets:     secrets,
		Tracker:     reg,
	}, logger)
	assert.NilError(t, err)

	return &runnerFixture{engine: engine, registry: reg, runner: runner}
}

func (f *runnerFixture) onlyRunState(t *testing.T) gradle.State {
	t.Helper()

	runs := f.registry.List()
	assert.Assert(t, is.Len(runs, 1))
	return runs[0].State
}

func TestNewRunner_RequiresCollaborators(t *testing.T) {
	_, err := gradle.NewRunner(nil, nil)
	assert.Assert(t, errors.Is(err, gradle.ErrEnvironment))

	_, err = gradle.NewRunner(&gradle.Config{Provisioner: testutil.NewFakeEngine()}, nil)
	assert.Assert(t, errors.Is(err, gradle.ErrEnvironment))
}

func TestRun_Success(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), &testutil.FakeSecrets{})
	f.engine.Outcomes["./gradlew"] = testutil.Outcome{Stdout: "BUILD SUCCESSFUL"}
	f.engine.CacheEntries = []string{"modules-2", "journal-1"}

	conn := &connector.Connector{
		TechnicalName:     "source-mysql",
		CodeDirectory:     "airbyte-integrations/connectors/source-mysql",
		LocalDependencies: []string{"airbyte-db/db-lib"},
		TestDependencies:  []string{"airbyte-test-utils"},
	}

	res, err := f.runner.Run(context.Background(), conn, gradle.IntegrationTest())
	assert.NilError(t, err)

	assert.Equal(t, res.Status, step.StatusSuccess)
	assert.Equal(t, res.Title, "Java Connector Integration Tests")
	assert.Equal(t, res.Stdout, "BUILD SUCCESSFUL")

	// Minimal mount set, test dependencies included
	assert.DeepEqual(t, f.engine.Included(), [][]string{{
		"airbyte-integrations/connectors/source-mysql",
		"airbyte-db/db-lib",
		"airbyte-test-utils",
	}})

	// Gradle ran first, then the cache export
	evaluated := f.engine.Evaluated()
	assert.Assert(t, is.Len(evaluated, 2))
	assert.DeepEqual(t, evaluated[0].Execs[0], gradle.Command("source-mysql", gradle.IntegrationTest()))
	assert.DeepEqual(t, evaluated[1].Execs[1], gradle.SyncCommand(gradle.GradleCachePath, gradle.GradleReadOnlyDependencyCachePath))

	env := evaluated[0]
	assert.DeepEqual(t, env.Mounts["airbyte-integrations/connectors/source-mysql"], map[string]string{
		"build.gradle": "plugins {\n    id 'airbyte-docker'\n}\n\n",
	})
	assert.DeepEqual(t, env.Mounts["buildSrc"], map[string]string{
		gradle.AcceptanceTestPluginPath: "\n",
	})
	assert.Equal(t, env.EnvVars[gradle.RyukDisabledEnv], "true")
	assert.Equal(t, env.Secrets["airbyte-integrations/connectors/source-mysql/secrets/config.json"], "{}")
	assert.Assert(t, env.DockerHost)

	assert.Equal(t, f.onlyRunState(t), gradle.StateDone)
}

func TestRun_TaskFailureStillExportsCache(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)
	f.engine.Outcomes["./gradlew"] = testutil.Outcome{ExitCode: 1, Stderr: "FAILURE: Build failed with an exception."}
	f.engine.CacheEntries = []string{"modules-2"}

	res, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.UnitTest())
	assert.NilError(t, err)

	assert.Equal(t, res.Status, step.StatusFailure)
	assert.Equal(t, res.ExitCode, 1)
	assert.Check(t, is.Contains(res.Stderr, "Build failed"))

	cmds := f.engine.Commands()
	assert.Assert(t, is.Len(cmds, 2))
	assert.Equal(t, cmds[1][0], "rsync")

	assert.Equal(t, f.onlyRunState(t), gradle.StateDone)
}

func TestRun_NoCacheToExport(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)

	res, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.UnitTest())
	assert.NilError(t, err)
	assert.Equal(t, res.Status, step.StatusSuccess)

	assert.Assert(t, is.Len(f.engine.Commands(), 1))
	assert.Equal(t, f.onlyRunState(t), gradle.StateDone)
}

func TestRun_CacheExportFailureDoesNotMaskResult(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)
	f.engine.Outcomes["./gradlew"] = testutil.Outcome{ExitCode: 1}
	f.engine.Outcomes["rsync"] = testutil.Outcome{ExitCode: 11, Stderr: "rsync: write failed"}
	f.engine.CacheEntries = []string{"modules-2"}

	res, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.IntegrationTest())
	assert.Assert(t, gradle.IsCacheExport(err))
	assert.Assert(t, res != nil)
	assert.Equal(t, res.Status, step.StatusFailure)
	assert.Equal(t, res.ExitCode, 1)

	assert.Equal(t, f.onlyRunState(t), gradle.StateDone)
}

func TestRun_UnreadableDescriptorAbortsBeforeProvisioning(t *testing.T) {
	tests := []struct {
		name string
		src  testutil.FakeSource
	}{
		{"missing build file", testutil.FakeSource{pluginPath: testPlugin}},
		{"missing plugin", testutil.FakeSource{"airbyte-integrations/connectors/source-mysql/build.gradle": testBuildFile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(t, tt.src, nil)

			res, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.IntegrationTest())
			assert.Assert(t, gradle.IsPatchInput(err))
			assert.Assert(t, res == nil)

			assert.Check(t, is.Len(f.engine.Included(), 0))
			assert.Check(t, is.Len(f.engine.Commands(), 0))
			assert.Equal(t, f.onlyRunState(t), gradle.StateAborted)
		})
	}
}

func TestRun_ProvisioningFailure(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)
	f.engine.ProvisionErr = errors.New("image pull failed")

	_, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.IntegrationTest())
	assert.Assert(t, errors.Is(err, gradle.ErrEnvironment))
	assert.Equal(t, f.onlyRunState(t), gradle.StateAborted)
}

func TestRun_SecretFailure(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), &testutil.FakeSecrets{Err: errors.New("vault sealed")})

	_, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.IntegrationTest())
	assert.Assert(t, errors.Is(err, gradle.ErrEnvironment))
	assert.Check(t, is.Len(f.engine.Commands(), 0))
	assert.Equal(t, f.onlyRunState(t), gradle.StateAborted)
}

func TestRun_EngineFailureSkipsCacheExport(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)
	f.engine.Outcomes["./gradlew"] = testutil.Outcome{Err: errors.New("connection reset")}
	f.engine.CacheEntries = []string{"modules-2"}

	res, err := f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.IntegrationTest())
	assert.Assert(t, errors.Is(err, gradle.ErrExecFailed))
	assert.Assert(t, res == nil)
	assert.Check(t, is.Len(f.engine.Commands(), 0))
	assert.Equal(t, f.onlyRunState(t), gradle.StateAborted)
}

func TestRun_Cancelled(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.Run(ctx, connector.New("source-mysql"), gradle.IntegrationTest())
	assert.Assert(t, errors.Is(err, gradle.ErrExecFailed))
}

func TestRun_WithoutDockerHostAndTestDependencies(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)

	conn := connector.New("source-mysql")
	conn.TestDependencies = []string{"airbyte-test-utils"}

	spec := gradle.BuildTar()
	spec.BindToDockerHost = false
	spec.WithTestDependencies = false

	_, err := f.runner.Run(context.Background(), conn, spec)
	assert.NilError(t, err)

	assert.DeepEqual(t, f.engine.Included(), [][]string{{"airbyte-integrations/connectors/source-mysql"}})
	assert.Check(t, !f.engine.Evaluated()[0].DockerHost)
}

func TestRun_InvalidInput(t *testing.T) {
	f := newRunnerFixture(t, testSource("source-mysql"), nil)

	_, err := f.runner.Run(context.Background(), nil, gradle.IntegrationTest())
	assert.Assert(t, errors.Is(err, gradle.ErrInvalidTask))

	_, err = f.runner.Run(context.Background(), connector.New("source-mysql"), gradle.TaskSpec{})
	assert.Assert(t, errors.Is(err, gradle.ErrInvalidTask))

	assert.Equal(t, f.registry.Count(), 0)
}

func TestRun_Concurrent(t *testing.T) {
	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("source-%d", i)
	}

	f := newRunnerFixture(t, testSource(names...), nil)
	f.engine.CacheEntries = []string{"modules-2"}

	var wg sync.WaitGroup
	errs := make([]error, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = f.runner.Run(context.Background(), connector.New(name), gradle.UnitTest())
		}(i, name)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NilError(t, err)
	}
	assert.Equal(t, f.registry.Count(), len(names))
	assert.Equal(t, f.registry.Active(), 0)
	assert.Assert(t, is.Len(f.engine.Commands(), 2*len(names)))
}
