package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/patina/gradle-runner/pkg/gradle"
)

// Outcome is what a fake exec produces
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// FakeEngine is an in-memory gradle.Provisioner. Environments it creates
// share the engine, which records what they evaluate.
type FakeEngine struct {
	// ProvisionErr is returned by Gradle when set
	ProvisionErr error

	// Outcomes maps the first argument of a command to its outcome.
	// Commands without an entry exit 0 with no output.
	Outcomes map[string]Outcome

	// CacheEntries is what Entries returns for the writable Gradle cache.
	// Nil means the directory does not exist.
	CacheEntries []string

	// EntriesErr is returned by Entries when set
	EntriesErr error

	// ExportErr is returned by ExportDirectory when set
	ExportErr error

	mu        sync.Mutex
	included  [][]string
	evaluated []*FakeEnvironment
	exported  map[string][]string
}

// NewFakeEngine creates an engine where every command succeeds
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		Outcomes: make(map[string]Outcome),
		exported: make(map[string][]string),
	}
}

// Gradle implements gradle.Provisioner
func (e *FakeEngine) Gradle(ctx context.Context, include []string) (gradle.Environment, error) {
	if e.ProvisionErr != nil {
		return nil, e.ProvisionErr
	}

	e.mu.Lock()
	e.included = append(e.included, append([]string(nil), include...))
	e.mu.Unlock()

	return &FakeEnvironment{
		engine:  e,
		Mounts:  make(map[string]map[string]string),
		EnvVars: make(map[string]string),
		Secrets: make(map[string]string),
	}, nil
}

// Included returns the include lists of every environment provisioned so far
func (e *FakeEngine) Included() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.included...)
}

// Evaluated returns the environments whose last exec was evaluated, in order
func (e *FakeEngine) Evaluated() []*FakeEnvironment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*FakeEnvironment(nil), e.evaluated...)
}

// Commands returns the evaluated commands, in order
func (e *FakeEngine) Commands() [][]string {
	var cmds [][]string
	for _, env := range e.Evaluated() {
		cmds = append(cmds, env.Execs[len(env.Execs)-1])
	}
	return cmds
}

// Exported returns the files excluded from the export to hostPath, and
// whether anything was exported there.
func (e *FakeEngine) Exported(hostPath string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exclude, ok := e.exported[hostPath]
	return exclude, ok
}

// FakeEnvironment is an immutable snapshot of a fake container
type FakeEnvironment struct {
	engine *FakeEngine

	Mounts     map[string]map[string]string
	EnvVars    map[string]string
	Secrets    map[string]string
	DockerHost bool
	Execs      [][]string
}

var _ gradle.Environment = (*FakeEnvironment)(nil)

func (f *FakeEnvironment) clone() *FakeEnvironment {
	c := &FakeEnvironment{
		engine:     f.engine,
		Mounts:     make(map[string]map[string]string, len(f.Mounts)),
		EnvVars:    make(map[string]string, len(f.EnvVars)),
		Secrets:    make(map[string]string, len(f.Secrets)),
		DockerHost: f.DockerHost,
		Execs:      append([][]string(nil), f.Execs...),
	}
	for k, v := range f.Mounts {
		c.Mounts[k] = v
	}
	for k, v := range f.EnvVars {
		c.EnvVars[k] = v
	}
	for k, v := range f.Secrets {
		c.Secrets[k] = v
	}
	return c
}

// WithMountedDirectory implements gradle.Environment
func (f *FakeEnvironment) WithMountedDirectory(path string, overrides map[string]string) gradle.Environment {
	c := f.clone()
	files := make(map[string]string, len(overrides))
	for k, v := range overrides {
		files[k] = v
	}
	c.Mounts[path] = files
	return c
}

// WithEnvVariable implements gradle.Environment
func (f *FakeEnvironment) WithEnvVariable(name, value string) gradle.Environment {
	c := f.clone()
	c.EnvVars[name] = value
	return c
}

// WithMountedSecret implements gradle.Environment
func (f *FakeEnvironment) WithMountedSecret(path, name, plaintext string) gradle.Environment {
	c := f.clone()
	c.Secrets[path] = plaintext
	return c
}

// WithDockerHost implements gradle.Environment
func (f *FakeEnvironment) WithDockerHost() gradle.Environment {
	c := f.clone()
	c.DockerHost = true
	return c
}

// WithExec implements gradle.Environment
func (f *FakeEnvironment) WithExec(args []string) gradle.Environment {
	c := f.clone()
	c.Execs = append(c.Execs, append([]string(nil), args...))
	return c
}

func (f *FakeEnvironment) outcome() Outcome {
	if len(f.Execs) == 0 {
		return Outcome{Err: fmt.Errorf("nothing to evaluate")}
	}
	cmd := f.Execs[len(f.Execs)-1]
	return f.engine.Outcomes[cmd[0]]
}

// ExitCode implements gradle.Environment, recording the evaluation
func (f *FakeEnvironment) ExitCode(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out := f.outcome()
	if out.Err != nil {
		return 0, out.Err
	}

	f.engine.mu.Lock()
	f.engine.evaluated = append(f.engine.evaluated, f)
	f.engine.mu.Unlock()

	return out.ExitCode, nil
}

// Stdout implements gradle.Environment
func (f *FakeEnvironment) Stdout(ctx context.Context) (string, error) {
	out := f.outcome()
	return out.Stdout, out.Err
}

// Stderr implements gradle.Environment
func (f *FakeEnvironment) Stderr(ctx context.Context) (string, error) {
	out := f.outcome()
	return out.Stderr, out.Err
}

// Entries implements gradle.Environment for the writable Gradle cache
func (f *FakeEnvironment) Entries(ctx context.Context, path string) ([]string, error) {
	if f.engine.EntriesErr != nil {
		return nil, f.engine.EntriesErr
	}
	if path != gradle.GradleCachePath || f.engine.CacheEntries == nil {
		return nil, fmt.Errorf("%w: %s", gradle.ErrPathNotFound, path)
	}
	return append([]string(nil), f.engine.CacheEntries...), nil
}

// ExportDirectory implements gradle.Environment
func (f *FakeEnvironment) ExportDirectory(ctx context.Context, path, hostPath string, exclude ...string) error {
	if f.engine.ExportErr != nil {
		return f.engine.ExportErr
	}
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	f.engine.exported[hostPath] = append([]string(nil), exclude...)
	return nil
}

// FakeSource is an in-memory gradle.Source
type FakeSource map[string]string

// ReadFile implements gradle.Source
func (s FakeSource) ReadFile(ctx context.Context, path string) (string, error) {
	content, ok := s[path]
	if !ok {
		return "", fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return content, nil
}

// FakeSecrets mounts one fixed secret file per connector
type FakeSecrets struct {
	Err error
}

// MountSecrets implements gradle.SecretMounter
func (s *FakeSecrets) MountSecrets(ctx context.Context, env gradle.Environment, technicalName, path string) (gradle.Environment, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return env.WithMountedSecret(strings.TrimSuffix(path, "/")+"/config.json", technicalName+"-config.json", "{}"), nil
}
