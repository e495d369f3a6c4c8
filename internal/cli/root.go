package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/populare/dbproxy/internal/config"
	"github.com/populare/dbproxy/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "yaml"
	LogLevel string
	LogJSON  bool
	Database string

	// FS and Environ replace the real filesystem and environment when set.
	FS      afero.Fs
	Environ func() []string

	config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the proxy CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "populare-db-proxy",
		Short: "Populare database proxy",
		Long: `A GraphQL proxy in front of the Populare posts database.

The database URI is read from the secret file
/etc/populare-db-proxy/db-certs/db-uri (POPULARE_DB_SECRET_PATH). Set
POPULARE_ALLOW_MISSING_SECRET to fall back to SQLALCHEMY_DATABASE_URI, or pass
--db to override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); overrides POPULARE_LOG_LEVEL")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "log in JSON")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database URI; overrides the secret file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewInitDBCommand(opts))
	cmd.AddCommand(NewPostsCommand(opts))

	return cmd
}

// setup loads the configuration and installs the process logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		FS:          o.FS,
		Environ:     o.Environ,
		DatabaseURI: o.Database,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	o.config = cfg

	level := cfg.Log.Level
	switch {
	case o.LogLevel != "":
		level = o.LogLevel
	case o.Verbose:
		level = "debug"
	}
	if _, err := logger.Setup(logger.Config{
		Level:  level,
		JSON:   o.LogJSON || cfg.Log.JSON,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are reported on stderr in the selected output format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{}, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	code := ExitCommandError
	errCode := "USAGE"
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
		errCode = errorCode(exitErr)
	}

	format := opts.Format
	if !isValidFormat(format) {
		format = "text"
	}
	out := &OutputFormatter{Format: format, Writer: stderr, Verbose: opts.Verbose}
	_ = out.Error(errCode, err.Error(), nil)
	return code
}
