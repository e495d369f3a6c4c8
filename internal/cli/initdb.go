package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/populare/dbproxy/internal/facade"
)

// NewInitDBCommand creates the init-db command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the posts table if it does not exist",
		Long: `Create the posts table and its index if they do not exist.

Safe to run repeatedly and from several replicas at once.

Example:
  populare-db-proxy init-db --db sqlite:////tmp/populare.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withFacade(cmd, func(ctx context.Context, f *facade.Facade) error {
				res, err := f.InitDB(ctx)
				if err != nil {
					return failed("failed to initialize schema", err)
				}
				return rootOpts.formatter(cmd).Success(res)
			})
		},
	}
}
