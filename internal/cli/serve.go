package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/populare/dbproxy/internal/facade"
	"github.com/populare/dbproxy/internal/graphql"
	"github.com/populare/dbproxy/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	InitSchema bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the GraphQL API over HTTP",
		Long: `Serve the GraphQL API on /graphql, with /healthz, /readyz and /metrics.

The server runs until interrupted and then drains in-flight requests.

Example:
  populare-db-proxy serve --addr :5000
  POPULARE_ALLOW_MISSING_SECRET=1 populare-db-proxy serve --init-schema`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address; overrides POPULARE_SERVER_ADDR")
	cmd.Flags().BoolVar(&opts.InitSchema, "init-schema", false, "create the posts table before serving")

	return cmd
}

func runServer(opts *ServeOptions, cmd *cobra.Command) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	f := facade.New(st)
	if opts.InitSchema {
		if _, err := f.InitDB(ctx); err != nil {
			return failed("failed to initialize schema", err)
		}
	}

	schema, err := graphql.NewSchema(f)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build graphql schema", err)
	}

	cfg := opts.config.Server
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}
	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(server.Config{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}, schema, st, slog.Default())

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving GraphQL on %s/graphql\n", cfg.Addr)
	if err := srv.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
