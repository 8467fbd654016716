package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/specialistvlad/assetgrid/internal/app"
	"github.com/specialistvlad/assetgrid/internal/typeregistry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// NewRootCommand builds the assetgrid command tree. modules override the
// compiled-in resource types when non-empty.
func NewRootCommand(outW io.Writer, modules ...typeregistry.Module) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "assetgrid",
		Short: "Load, share and reclaim file-backed resources.",
		Long: `assetgrid loads resources (bundles, settings, text) from a root directory,
resolving the dependencies between them, and reports their state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindConfig(v, cmd)
		},
	}
	root.SetOut(outW)
	root.SetErr(outW)

	flags := root.PersistentFlags()
	flags.String("config", "", "Optional config file (yaml, json or toml).")
	flags.StringP("root", "r", ".", "Directory resource paths are resolved against.")
	flags.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.Int("workers", 4, "Number of workers for the default job queue.")
	flags.Int("io-workers", 2, "Number of workers for the io job queue.")
	flags.Duration("tick", 10*time.Millisecond, "Interval between manager ticks.")

	load := &cobra.Command{
		Use:   "load [paths...]",
		Short: "Load resources and print their state.",
		Long:  "Load the given resources, or every resource under the root when none are given, and print a report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(v)
			if err != nil {
				return err
			}
			resident, _ := cmd.Flags().GetBool("resident")
			return runLoad(cmd.Context(), outW, cfg, args, resident, modules)
		},
	}
	load.Flags().Duration("timeout", 30*time.Second, "How long to wait for every resource to finish loading.")
	load.Flags().Bool("resident", false, "Also print the resources still held after the load handles are released.")

	serve := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Keep resources loaded and expose a debug server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := app.NewApp(outW, cfg, modules...)
			defer a.Close()
			return a.Serve(ctx, args)
		},
	}
	serve.Flags().Int("http-port", 8080, "Port for the debug HTTP server. 0 is disabled.")

	root.AddCommand(load, serve)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, outW io.Writer, args []string, modules ...typeregistry.Module) error {
	root := NewRootCommand(outW, modules...)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		// Everything cobra itself rejects is a usage problem.
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return nil
}

// bindConfig wires flags, environment and the optional config file into v.
func bindConfig(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	v.SetEnvPrefix("ASSETGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return &ExitError{Code: 2, Message: fmt.Sprintf("failed to read config file: %v", err)}
		}
	}
	return nil
}

func newConfig(v *viper.Viper) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		RootPath:     v.GetString("root"),
		LogFormat:    strings.ToLower(v.GetString("log-format")),
		LogLevel:     strings.ToLower(v.GetString("log-level")),
		Workers:      v.GetInt("workers"),
		IOWorkers:    v.GetInt("io-workers"),
		HTTPPort:     v.GetInt("http-port"),
		TickInterval: v.GetDuration("tick"),
		Timeout:      v.GetDuration("timeout"),
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}

func runLoad(ctx context.Context, outW io.Writer, cfg *app.Config, paths []string, resident bool, modules []typeregistry.Module) error {
	a := app.NewApp(outW, cfg, modules...)
	results, err := a.Load(ctx, paths)
	if len(results) > 0 {
		app.PrintResults(outW, results)
	}
	if resident {
		fmt.Fprintln(outW)
		app.PrintSnapshot(outW, a.Manager().Snapshot())
	}
	a.Close()

	switch {
	case errors.Is(err, app.ErrLoadFailed):
		return &ExitError{Code: 1, Message: err.Error()}
	case err != nil:
		return &ExitError{Code: 1, Message: fmt.Sprintf("load failed: %v", err)}
	}
	return nil
}
