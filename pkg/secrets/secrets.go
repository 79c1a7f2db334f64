// Package secrets provisions connector secrets into Gradle environments.
//
// Secrets are read from a local directory holding one subdirectory per
// connector, e.g. <root>/source-mysql/config.json, and mounted as Dagger
// secrets so their content never ends up in a layer or in logs.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/patina/gradle-runner/pkg/gradle"
)

// LocalProvider mounts secret files found on the host
type LocalProvider struct {
	root   string
	logger *slog.Logger
}

var _ gradle.SecretMounter = (*LocalProvider)(nil)

// NewLocalProvider creates a provider reading secrets under root
func NewLocalProvider(root string, logger *slog.Logger) *LocalProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalProvider{
		root:   root,
		logger: logger,
	}
}

// MountSecrets mounts every regular file of the connector secrets directory
// under target. A connector without secrets is left untouched.
func (p *LocalProvider) MountSecrets(ctx context.Context, env gradle.Environment, technicalName, target string) (gradle.Environment, error) {
	dir := filepath.Join(p.root, technicalName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("no secrets for connector", "connector", technicalName, "dir", dir)
			return env, nil
		}
		return nil, fmt.Errorf("failed to list secrets of %s: %w", technicalName, err)
	}

	mounted := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read secret %s of %s: %w", entry.Name(), technicalName, err)
		}

		name := fmt.Sprintf("%s-%s", technicalName, entry.Name())
		env = env.WithMountedSecret(path.Join(target, entry.Name()), name, string(content))
		mounted++
	}

	p.logger.Info("mounted connector secrets", "connector", technicalName, "count", mounted, "path", target)
	return env, nil
}
