package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// errFailedSteps makes the process exit non-zero once results are printed
var errFailedSteps = errors.New("some steps failed")

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := &options{}
	root := &cobra.Command{
		Use:           "gradle-runner",
		Short:         "Run connector Gradle tasks in Dagger containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(root.PersistentFlags())

	root.AddCommand(newRunCommand(opts), newFormatCommand(opts))

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errFailedSteps) {
			slog.Error("gradle-runner failed", "error", err)
		}
		os.Exit(1)
	}
}
