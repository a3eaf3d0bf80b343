// Package commands holds the cobra commands of the openapi CLI.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"

	"github.com/gaborage/go-openapi/config"
)

const serviceName = "openapi-cli"

// GlobalOptions are the flags shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	Trace      bool

	shutdown func(context.Context) error
}

// NewRootCommand assembles the CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Send signed requests to the open API gateway",
		Long: `Command-line client for the open API gateway.

Requests are signed with the credentials from openapi.yaml or OPENAPI_*
environment variables. The gateway subcommand runs a local mock that
verifies signatures the same way the real gateway does.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.Trace {
				return nil
			}
			shutdown, err := setupTracing(cmd.ErrOrStderr(), version)
			if err != nil {
				return err
			}
			opts.shutdown = shutdown
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.shutdown == nil {
				return nil
			}
			return opts.shutdown(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.Trace, "trace", false, "Print spans to stderr")

	cmd.AddCommand(
		NewRequestCommand(opts),
		NewGatewayCommand(),
		NewVersionCommand(version),
	)

	return cmd
}

// setupTracing installs a global tracer provider that writes spans to w.
func setupTracing(w io.Writer, version string) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// No schema URL on the custom attributes, so the merge cannot conflict with the default resource
	custom, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	res, err := resource.Merge(resource.Default(), custom)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
