package environment

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"dagger.io/dagger"
	"github.com/patina/gradle-runner/pkg/gradle"
)

// Container is a gradle.Environment backed by a Dagger container
type Container struct {
	provider *Provider
	ctr      *dagger.Container
}

var _ gradle.Environment = (*Container)(nil)

func (c *Container) with(ctr *dagger.Container) *Container {
	return &Container{provider: c.provider, ctr: ctr}
}

// WithMountedDirectory mounts a repository directory at the same path
// under the work directory, with overrides written over the host files.
func (c *Container) WithMountedDirectory(dirPath string, overrides map[string]string) gradle.Environment {
	dir := c.provider.client.Host().Directory(c.provider.hostPath(dirPath), dagger.HostDirectoryOpts{
		Exclude: c.provider.config.Excludes,
	})

	// Sorted for a stable pipeline, hence stable Dagger cache keys
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dir = dir.WithNewFile(name, overrides[name])
	}

	return c.with(c.ctr.WithMountedDirectory(c.provider.containerPath(dirPath), dir))
}

// WithEnvVariable sets an environment variable
func (c *Container) WithEnvVariable(name, value string) gradle.Environment {
	return c.with(c.ctr.WithEnvVariable(name, value))
}

// WithMountedSecret mounts plaintext as a secret file
func (c *Container) WithMountedSecret(secretPath, name, plaintext string) gradle.Environment {
	secret := c.provider.client.SetSecret(name, plaintext)
	return c.with(c.ctr.WithMountedSecret(c.provider.containerPath(secretPath), secret))
}

// WithDockerHost binds the host Docker daemon as DockerHostAlias
func (c *Container) WithDockerHost() gradle.Environment {
	port := c.provider.config.DockerHostPort
	dockerHost := c.provider.client.Host().Service([]dagger.PortForward{{
		Frontend: port,
		Backend:  port,
		Protocol: dagger.NetworkProtocolTcp,
	}})

	return c.with(c.ctr.
		WithServiceBinding(DockerHostAlias, dockerHost).
		WithEnvVariable("DOCKER_HOST", fmt.Sprintf("tcp://%s:%d", DockerHostAlias, port)))
}

// WithExec schedules a command. Any exit code is accepted so a failing
// command still yields its outputs and filesystem.
func (c *Container) WithExec(args []string) gradle.Environment {
	return c.with(c.ctr.WithExec(args, dagger.ContainerWithExecOpts{
		Expect: dagger.ReturnTypeAny,
	}))
}

// ExitCode evaluates the container and returns the exit code of the last exec
func (c *Container) ExitCode(ctx context.Context) (int, error) {
	return c.ctr.ExitCode(ctx)
}

// Stdout returns the standard output of the last exec
func (c *Container) Stdout(ctx context.Context) (string, error) {
	return c.ctr.Stdout(ctx)
}

// Stderr returns the standard error of the last exec
func (c *Container) Stderr(ctx context.Context) (string, error) {
	return c.ctr.Stderr(ctx)
}

// Entries lists the top-level entries of a container directory. Dagger
// reports a missing directory as a query error like any other failure, so
// absence is confirmed by listing the parent.
func (c *Container) Entries(ctx context.Context, dirPath string) ([]string, error) {
	dirPath = c.provider.containerPath(dirPath)

	entries, err := c.ctr.Directory(dirPath).Entries(ctx)
	if err == nil {
		return entries, nil
	}

	if c.missing(ctx, dirPath, err) {
		return nil, fmt.Errorf("%w: %s", gradle.ErrPathNotFound, dirPath)
	}
	return nil, err
}

func (c *Container) missing(ctx context.Context, dirPath string, listErr error) bool {
	parent, base := path.Split(strings.TrimSuffix(dirPath, "/"))
	if parent == "" || base == "" {
		return false
	}

	siblings, err := c.ctr.Directory(parent).Entries(ctx)
	if err != nil {
		// The parent is gone too, or the engine failed: only trust the message
		return strings.Contains(listErr.Error(), "no such file or directory")
	}

	for _, s := range siblings {
		if strings.TrimSuffix(s, "/") == base {
			return false
		}
	}
	return true
}

// ExportDirectory exports a container directory to the host
func (c *Container) ExportDirectory(ctx context.Context, dirPath, hostPath string, exclude ...string) error {
	dir := c.ctr.Directory(c.provider.containerPath(dirPath))
	for _, name := range exclude {
		dir = dir.WithoutFile(name)
	}

	_, err := dir.Export(ctx, hostPath)
	return err
}
