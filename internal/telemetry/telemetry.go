// Package telemetry installs the global otel logger and tracer providers the
// package loggers and tracers report to.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Options struct {
	ServiceName string

	// LogWriter receives the exported log records, stderr when nil
	LogWriter io.Writer

	// TraceWriter receives finished spans, tracing stays a no-op when nil
	TraceWriter io.Writer
}

// Setup installs the providers and returns a function flushing and shutting
// them down.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdownFuncs {
			errs = append(errs, fn(ctx))
		}
		shutdownFuncs = nil
		return errors.Join(errs...)
	}

	res := resource.NewSchemaless(attribute.String("service.name", opts.ServiceName))

	logWriter := opts.LogWriter
	if logWriter == nil {
		logWriter = os.Stderr
	}
	logExporter, err := stdoutlog.New(stdoutlog.WithWriter(logWriter))
	if err != nil {
		return shutdown, fmt.Errorf("failed to create log exporter: %w", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)
	global.SetLoggerProvider(loggerProvider)

	if opts.TraceWriter == nil {
		return shutdown, nil
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(opts.TraceWriter), stdouttrace.WithPrettyPrint())
	if err != nil {
		return shutdown, errors.Join(fmt.Errorf("failed to create trace exporter: %w", err), shutdown(ctx))
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	return shutdown, nil
}
