package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/jobgrid/internal/app"
	"github.com/vk/jobgrid/internal/cli"
	"github.com/vk/jobgrid/internal/registry"
	"github.com/vk/jobgrid/modules/env_vars"
	"github.com/vk/jobgrid/modules/http_request"
	"github.com/vk/jobgrid/modules/print"
	"github.com/vk/jobgrid/modules/socketio"
)

// main is the entrypoint for the jobgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// Graph consistency violations surface as panics; recover here to give
	// the user a clean exit message instead of a stack trace.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("a critical scheduling error occurred: %v", r)
		}
	}()

	reg := registry.New(builtinModules()...)
	jobgridApp := app.New(outW, appConfig, reg)

	return jobgridApp.Run(context.Background())
}

// builtinModules lists the runners shipped with the binary.
func builtinModules() []registry.Module {
	return []registry.Module{
		&print.Module{},
		&env_vars.Module{},
		&http_request.Module{},
		&socketio.Module{},
	}
}
