package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/patina/gradle-runner/pkg/connector"
	"github.com/patina/gradle-runner/pkg/gradle"
	"github.com/patina/gradle-runner/pkg/step"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// outcome is the result of one connector run
type outcome struct {
	connector string
	result    *step.Result
	err       error
}

func newRunCommand(opts *options) *cobra.Command {
	var (
		connectors   []string
		task         string
		concurrency  int
		noDockerHost bool
		noTestDeps   bool
		gradleArgs   []string
	)

	cmd := &cobra.Command{
		Use:   "run --connector NAME [--connector NAME...] --task TASK",
		Short: "Run a Gradle task for one or more connectors",
		Example: `  gradle-runner run --connector source-mysql --task integrationTest
  gradle-runner run -c source-postgres -c destination-bigquery -t test --concurrency 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := gradle.TaskByName(task)
			if noDockerHost {
				spec.BindToDockerHost = false
			}
			if noTestDeps {
				spec.WithTestDependencies = false
			}
			if cmd.Flags().Changed("gradle-arg") {
				spec.ExtraOptions = gradleArgs
			}
			if err := spec.Validate(); err != nil {
				return err
			}

			s, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			outcomes := runAll(cmd.Context(), s, connectors, spec, concurrency)
			if !printSummary(cmd.OutOrStdout(), outcomes, opts.debug) {
				return errFailedSteps
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&connectors, "connector", "c", nil, "technical name of a connector (repeatable)")
	flags.StringVarP(&task, "task", "t", "integrationTest", "Gradle task of the connector project")
	flags.IntVar(&concurrency, "concurrency", 4, "maximum number of connectors run at once")
	flags.BoolVar(&noDockerHost, "no-docker-host", false, "do not expose the host Docker daemon")
	flags.BoolVar(&noTestDeps, "no-test-dependencies", false, "do not mount test-only local dependencies")
	flags.StringSliceVar(&gradleArgs, "gradle-arg", nil, "replace the default Gradle options (repeatable)")
	cmd.MarkFlagRequired("connector")

	return cmd
}

// runAll runs spec for every connector, at most limit at a time. Runs share
// nothing but the dependency cache volume, so one failing does not stop
// the others.
func runAll(ctx context.Context, s *session, names []string, spec gradle.TaskSpec, limit int) []outcome {
	outcomes := make([]outcome, len(names))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, name := range names {
		g.Go(func() error {
			outcomes[i].connector = name

			conn, err := connector.Resolve(s.manifest, name)
			if err != nil {
				outcomes[i].err = err
				return nil
			}

			outcomes[i].result, outcomes[i].err = s.runner.Run(ctx, conn, spec)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// printSummary writes one line per connector and reports whether every
// step passed. Cache export failures are reported but do not fail a step.
func printSummary(w io.Writer, outcomes []outcome, verbose bool) bool {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	ok := true
	for _, o := range outcomes {
		switch {
		case o.result == nil:
			ok = false
			fmt.Fprintf(w, "%s %s: %v\n", fail("ERROR"), o.connector, o.err)
			continue
		case o.result.Success():
			fmt.Fprintf(w, "%s %s: %s (%s)\n", pass("PASS"), o.connector, o.result.Title, o.result.Duration.Round(time.Second))
		default:
			ok = false
			fmt.Fprintf(w, "%s %s: %s (exit code %d)\n", fail("FAIL"), o.connector, o.result.Title, o.result.ExitCode)
		}

		if gradle.IsCacheExport(o.err) {
			fmt.Fprintf(w, "  %s %v\n", warn("cache:"), o.err)
		}
		if verbose || !o.result.Success() {
			printOutput(w, "stdout", o.result.Stdout)
			printOutput(w, "stderr", o.result.Stderr)
		}
	}

	return ok
}

func printOutput(w io.Writer, name, output string) {
	output = strings.TrimSpace(output)
	if output == "" {
		return
	}
	fmt.Fprintf(w, "  --- %s ---\n", name)
	for _, line := range strings.Split(output, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
