package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"dagger.io/dagger"
	"github.com/patina/gradle-runner/pkg/gradle"
)

const (
	// DefaultBaseImage ships the JDK the connectors build with
	DefaultBaseImage = "openjdk:17.0.1-jdk-slim"

	// DefaultWorkDir is where the repository is mounted
	DefaultWorkDir = "/airbyte"

	// DependencyCacheVolume backs the shared read-only dependency cache
	DependencyCacheVolume = "gradle-dependency-cache"

	// DockerHostAlias is the hostname of the host Docker daemon inside containers
	DockerHostAlias = "docker-host"

	// DefaultDockerHostPort is the TCP port of the host Docker daemon
	DefaultDockerHostPort = 2375
)

// ErrNoDaggerClient indicates Dagger client is not initialized
var ErrNoDaggerClient = errors.New("dagger client not initialized")

// BaseIncludes are the repository files every Gradle invocation needs
var BaseIncludes = []string{
	"build.gradle",
	"settings.gradle",
	"gradle.properties",
	"gradlew",
	"gradle",
	"deps.toml",
	"buildSrc",
}

// DefaultExcludes are never uploaded from the host
var DefaultExcludes = []string{
	"**/.gradle",
	"**/build",
	"**/secrets",
	"**/.venv",
	"**/__pycache__",
	"**/*.class",
	".git",
	".idea",
}

// Config defines how environments are created
type Config struct {
	// RepoRoot is the host path of the repository checkout
	RepoRoot string

	BaseImage      string
	WorkDir        string
	DockerHostPort int

	// Excludes are patterns never uploaded from the host
	Excludes []string
}

// Provider creates Gradle environments and reads repository files through Dagger
type Provider struct {
	client *dagger.Client
	config Config
	logger *slog.Logger
}

var (
	_ gradle.Provisioner = (*Provider)(nil)
	_ gradle.Source      = (*Provider)(nil)
)

// New creates a new environment provider
func New(client *dagger.Client, config Config, logger *slog.Logger) (*Provider, error) {
	if client == nil {
		return nil, ErrNoDaggerClient
	}

	if config.RepoRoot == "" {
		return nil, fmt.Errorf("repository root is required")
	}

	root, err := filepath.Abs(config.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}
	config.RepoRoot = root

	if config.BaseImage == "" {
		config.BaseImage = DefaultBaseImage
	}
	if config.WorkDir == "" {
		config.WorkDir = DefaultWorkDir
	}
	if config.DockerHostPort == 0 {
		config.DockerHostPort = DefaultDockerHostPort
	}
	if config.Excludes == nil {
		config.Excludes = DefaultExcludes
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// ReadFile reads a repository file, path being relative to the repository root
func (p *Provider) ReadFile(ctx context.Context, path string) (string, error) {
	return p.client.Host().File(p.hostPath(path)).Contents(ctx)
}

// Gradle creates a container with the Gradle toolchain, the shared
// dependency cache mounted, and the base includes plus include mounted
// from the repository.
func (p *Provider) Gradle(ctx context.Context, include []string) (gradle.Environment, error) {
	includes := append(append([]string(nil), BaseIncludes...), include...)

	p.logger.Debug("creating gradle environment", "image", p.config.BaseImage, "include", includes)

	repo := p.client.Host().Directory(p.config.RepoRoot, dagger.HostDirectoryOpts{
		Include: includes,
		Exclude: p.config.Excludes,
	})

	dependencyCache := p.client.CacheVolume(DependencyCacheVolume)

	ctr := p.client.Container().
		From(p.config.BaseImage).
		WithExec([]string{"sh", "-c", "apt-get update && apt-get install -y rsync && rm -rf /var/lib/apt/lists/*"}).
		WithMountedCache(gradle.GradleReadOnlyDependencyCachePath, dependencyCache, dagger.ContainerWithMountedCacheOpts{
			Sharing: dagger.CacheSharingModeShared,
		}).
		WithEnvVariable("GRADLE_RO_DEP_CACHE", gradle.GradleReadOnlyDependencyCachePath).
		WithMountedDirectory(p.config.WorkDir, repo).
		WithWorkdir(p.config.WorkDir)

	return &Container{provider: p, ctr: ctr}, nil
}

func (p *Provider) hostPath(path string) string {
	return filepath.Join(p.config.RepoRoot, filepath.FromSlash(path))
}

func (p *Provider) containerPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.ToSlash(filepath.Join(p.config.WorkDir, path))
}
