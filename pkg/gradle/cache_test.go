package gradle_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/patina/gradle-runner/internal/testutil"
	"github.com/patina/gradle-runner/pkg/gradle"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func newExecutedEnvironment(t *testing.T, engine *testutil.FakeEngine) gradle.Environment {
	t.Helper()

	env, err := engine.Gradle(context.Background(), nil)
	assert.NilError(t, err)
	return env.WithExec([]string{"./gradlew", "build"})
}

func TestSyncCommand(t *testing.T) {
	cmd := gradle.SyncCommand(gradle.GradleCachePath, gradle.GradleReadOnlyDependencyCachePath)

	assert.DeepEqual(t, cmd, []string{
		"rsync", "--archive", "--quiet", "--times",
		"--exclude", "*.lock",
		"--exclude", "gc.properties",
		"/root/.gradle/caches/modules-2/",
		"/root/gradle_dependency_cache/modules-2/",
	})
	// Additive only
	for _, arg := range cmd {
		assert.Check(t, !strings.HasPrefix(arg, "--delete"))
	}
}

func TestExportDependencyCache(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		wantSync bool
	}{
		{"module cache present", []string{"modules-2", "journal-1"}, true},
		{"module cache listed as directory", []string{"modules-2/", "journal-1/"}, true},
		{"module cache absent", []string{"journal-1"}, false},
		{"empty cache", []string{}, false},
		{"cache directory missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := testutil.NewFakeEngine()
			engine.CacheEntries = tt.entries
			env := newExecutedEnvironment(t, engine)

			out, err := gradle.ExportDependencyCache(context.Background(), env)
			assert.NilError(t, err)

			if !tt.wantSync {
				assert.Check(t, out == env, "environment should be returned unchanged")
				assert.Check(t, is.Len(engine.Commands(), 0))
				return
			}

			cmds := engine.Commands()
			assert.Assert(t, is.Len(cmds, 1))
			assert.DeepEqual(t, cmds[0], gradle.SyncCommand(gradle.GradleCachePath, gradle.GradleReadOnlyDependencyCachePath))
		})
	}
}

func TestExportDependencyCache_Idempotent(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.CacheEntries = []string{"modules-2"}
	env := newExecutedEnvironment(t, engine)

	_, err := gradle.ExportDependencyCache(context.Background(), env)
	assert.NilError(t, err)
	_, err = gradle.ExportDependencyCache(context.Background(), env)
	assert.NilError(t, err)

	cmds := engine.Commands()
	assert.Assert(t, is.Len(cmds, 2))
	assert.DeepEqual(t, cmds[0], cmds[1])
}

func TestExportDependencyCache_SyncFailure(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.CacheEntries = []string{"modules-2"}
	engine.Outcomes["rsync"] = testutil.Outcome{ExitCode: 23, Stderr: "rsync: some files could not be transferred"}
	env := newExecutedEnvironment(t, engine)

	out, err := gradle.ExportDependencyCache(context.Background(), env)
	assert.Assert(t, gradle.IsCacheExport(err))
	assert.Check(t, is.ErrorContains(err, "could not be transferred"))
	assert.Check(t, out == env)
}

func TestExportDependencyCache_EngineFailure(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.CacheEntries = []string{"modules-2"}
	engine.Outcomes["rsync"] = testutil.Outcome{Err: errors.New("engine gone")}
	env := newExecutedEnvironment(t, engine)

	_, err := gradle.ExportDependencyCache(context.Background(), env)
	assert.Assert(t, gradle.IsCacheExport(err))
}

func TestExportDependencyCache_ListingFailure(t *testing.T) {
	engine := testutil.NewFakeEngine()
	engine.EntriesErr = errors.New("permission denied")
	env := newExecutedEnvironment(t, engine)

	_, err := gradle.ExportDependencyCache(context.Background(), env)
	assert.Assert(t, gradle.IsCacheExport(err))
	assert.Check(t, is.Len(engine.Commands(), 0))
}
