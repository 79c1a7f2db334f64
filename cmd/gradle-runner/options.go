package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"dagger.io/dagger"
	"github.com/patina/gradle-runner/pkg/connector"
	"github.com/patina/gradle-runner/pkg/environment"
	"github.com/patina/gradle-runner/pkg/gradle"
	"github.com/patina/gradle-runner/pkg/registry"
	"github.com/patina/gradle-runner/pkg/secrets"
	"github.com/spf13/pflag"
)

// options are shared by every subcommand
type options struct {
	repoRoot    string
	manifest    string
	secretsRoot string
	baseImage   string
	dockerPort  int
	debug       bool
}

func (o *options) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.repoRoot, "repo", os.Getenv("AIRBYTE_REPO"), "repository root (default: git root of the working directory)")
	flags.StringVar(&o.manifest, "manifest", os.Getenv("CONNECTOR_MANIFEST"), "YAML manifest declaring connector local dependencies")
	flags.StringVar(&o.secretsRoot, "secrets-root", getEnvOrDefault("CONNECTOR_SECRETS_ROOT", "secrets"), "directory holding one secrets directory per connector")
	flags.StringVar(&o.baseImage, "image", getEnvOrDefault("GRADLE_BASE_IMAGE", environment.DefaultBaseImage), "base image of Gradle containers")
	flags.IntVar(&o.dockerPort, "docker-port", environment.DefaultDockerHostPort, "TCP port of the host Docker daemon")
	flags.BoolVarP(&o.debug, "debug", "d", false, "print debugging information")
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// session is everything a subcommand needs to run steps
type session struct {
	runner   *gradle.Runner
	registry *registry.Registry
	manifest *connector.Manifest
	logger   *slog.Logger
	close    func() error
}

func (o *options) connect(ctx context.Context) (*session, error) {
	logger := o.logger(os.Stderr)
	slog.SetDefault(logger)

	repoRoot := o.repoRoot
	if repoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if repoRoot, err = connector.FindRepoRoot(wd); err != nil {
			return nil, err
		}
	}

	var manifest *connector.Manifest
	if o.manifest != "" {
		m, err := connector.LoadManifest(o.manifest)
		if err != nil {
			return nil, err
		}
		manifest = m
	}

	logger.Info("gradle runner configuration",
		"repo", repoRoot,
		"manifest", o.manifest,
		"secrets_root", o.secretsRoot,
		"image", o.baseImage,
	)

	logger.Info("connecting to dagger")
	client, err := dagger.Connect(ctx, dagger.WithLogOutput(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dagger: %w", err)
	}

	provider, err := environment.New(client, environment.Config{
		RepoRoot:       repoRoot,
		BaseImage:      o.baseImage,
		DockerHostPort: o.dockerPort,
	}, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	reg := registry.New()
	runner, err := gradle.NewRunner(&gradle.Config{
		Provisioner: provider,
		Source:      provider,
		Secrets:     secrets.NewLocalProvider(o.secretsRoot, logger),
		Tracker:     reg,
	}, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &session{
		runner:   runner,
		registry: reg,
		manifest: manifest,
		logger:   logger,
		close:    client.Close,
	}, nil
}
