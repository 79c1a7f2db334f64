package gradle

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// GradleCachePath is the writable Gradle cache of a container
	GradleCachePath = "/root/.gradle/caches"

	// GradleReadOnlyDependencyCachePath is the shared read-only dependency
	// cache, backed by a cache volume and exposed to Gradle as GRADLE_RO_DEP_CACHE.
	GradleReadOnlyDependencyCachePath = "/root/gradle_dependency_cache"

	// ModuleCacheDirectory is where Gradle stores resolved dependencies
	ModuleCacheDirectory = "modules-2"
)

// CacheExcludes are run-local files that must never reach the shared cache
var CacheExcludes = []string{"*.lock", "gc.properties"}

// SyncCommand copies the module cache from src into dst. It only adds or
// overwrites files, keeps modification times, and skips unchanged files.
func SyncCommand(src, dst string) []string {
	cmd := []string{"rsync", "--archive", "--quiet", "--times"}
	for _, pattern := range CacheExcludes {
		cmd = append(cmd, "--exclude", pattern)
	}
	return append(cmd,
		fmt.Sprintf("%s/%s/", src, ModuleCacheDirectory),
		fmt.Sprintf("%s/%s/", dst, ModuleCacheDirectory),
	)
}

// ExportDependencyCache merges the module cache populated by the run into
// the shared read-only cache. A missing writable cache means Gradle never
// resolved anything and is not an error. The returned environment is env
// itself when nothing was copied.
func ExportDependencyCache(ctx context.Context, env Environment) (Environment, error) {
	entries, err := env.Entries(ctx, GradleCachePath)
	if err != nil {
		if !errors.Is(err, ErrPathNotFound) {
			return env, fmt.Errorf("%w: listing %s: %v", ErrCacheExport, GradleCachePath, err)
		}
		entries = nil
	}

	if !hasEntry(entries, ModuleCacheDirectory) {
		return env, nil
	}

	synced := env.WithExec(SyncCommand(GradleCachePath, GradleReadOnlyDependencyCachePath))

	exitCode, err := synced.ExitCode(ctx)
	if err != nil {
		return env, fmt.Errorf("%w: %v", ErrCacheExport, err)
	}
	if exitCode != 0 {
		stderr, _ := synced.Stderr(ctx)
		return env, fmt.Errorf("%w: rsync exited with %d: %s", ErrCacheExport, exitCode, strings.TrimSpace(stderr))
	}

	return synced, nil
}

// hasEntry tolerates directory entries listed with a trailing slash
func hasEntry(entries []string, name string) bool {
	for _, e := range entries {
		if strings.TrimSuffix(e, "/") == name {
			return true
		}
	}
	return false
}
