package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specialistvlad/assetgrid/internal/cli"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
)

// main is the entrypoint for the assetgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. modules replace the compiled-in resource types when given.
func run(outW io.Writer, args []string, modules ...typeregistry.Module) (err error) {
	// The app panics on programmer errors such as two types claiming one
	// extension; turn that into a clean error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	return cli.Execute(context.Background(), outW, args, modules...)
}
