package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/contractgrid/internal/app"
)

// Exit codes.
const (
	ExitFailure = 1 // rejected canvas or runtime failure
	ExitUsage   = 2
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

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

func failure(err error) error {
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel   string
	logFormat  string
	catalogDir string
	cacheSize  int
}

// Execute runs the command line in args. Output goes to outW, logs and
// diagnostics to errW. Failures are returned as *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything cobra reports itself (unknown command, bad args) is usage.
	return usageError(err)
}

// NewRootCommand builds the contractgrid command tree.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "contractgrid",
		Short: "Compose smart contracts from a canvas of catalog components",
		Long: `contractgrid turns a canvas of catalog components and their connections
into a single Solidity source file, or explains why it cannot.

Examples:
  contractgrid compile canvas.json --project project.hcl --out Vault.sol
  contractgrid serve --listen :8090
  contractgrid submit --url http://localhost:8090 canvas.json
  contractgrid catalog --format yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format (text, json)")
	pf.StringVar(&g.catalogDir, "catalog-dir", "", "Directory of additional catalog templates (.hcl)")
	pf.IntVar(&g.cacheSize, "cache-size", 0, "Number of compiled snapshots to memoize (0 uses the default)")

	root.AddCommand(
		newCompileCommand(g),
		newServeCommand(g),
		newSubmitCommand(g),
		newCatalogCommand(g),
	)
	return root
}

// newApp validates cfg on top of the global flags and builds the App.
func newApp(cmd *cobra.Command, g *globalFlags, cfg app.Config) (*app.App, error) {
	cfg.LogLevel = g.logLevel
	cfg.LogFormat = g.logFormat
	cfg.CatalogDir = g.catalogDir
	cfg.CacheSize = g.cacheSize

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI configuration validated.", "config", config)

	a, err := app.NewApp(cmd.Context(), cmd.ErrOrStderr(), config)
	if err != nil {
		return nil, failure(err)
	}
	return a, nil
}
