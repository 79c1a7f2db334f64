package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/patina/gradle-runner/pkg/connector"
	"github.com/spf13/cobra"
)

func newFormatCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "format CONNECTOR",
		Short: "Format the code of a connector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			conn, err := connector.Resolve(s.manifest, args[0])
			if err != nil {
				return err
			}

			res, err := s.runner.Format(cmd.Context(), conn, output)
			if res == nil {
				return err
			}

			ok := printSummary(cmd.OutOrStdout(), []outcome{{connector: conn.TechnicalName, result: res, err: err}}, opts.debug)
			if err != nil {
				return err
			}
			if !ok {
				return errFailedSteps
			}

			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s formatted code written to %s\n", color.GreenString("OK"), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "host directory the formatted code is exported to")
	return cmd
}
