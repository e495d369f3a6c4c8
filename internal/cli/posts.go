package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/populare/dbproxy/internal/facade"
	"github.com/populare/dbproxy/internal/post"
	"github.com/populare/dbproxy/internal/store"
)

// PostsOptions holds flags for the posts subcommands.
type PostsOptions struct {
	*RootOptions

	Limit     int32
	Before    string
	ID        int32
	Text      string
	Author    string
	CreatedAt string

	// Now supplies the default created-at of new posts (for testing).
	Now func() time.Time
}

// NewPostsCommand creates the posts command group.
func NewPostsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostsOptions{RootOptions: rootOpts, Now: time.Now}

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and modify posts directly",
	}
	cmd.AddCommand(newPostsListCommand(opts))
	cmd.AddCommand(newPostsCreateCommand(opts))
	cmd.AddCommand(newPostsUpdateCommand(opts))
	cmd.AddCommand(newPostsDeleteCommand(opts))
	return cmd
}

func newPostsListCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Long: `List posts created strictly before --before (default: now), newest
first, at most --limit of them.

Example:
  populare-db-proxy posts list --limit 10 --before 2022-01-03T00:00:00Z --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := facade.ReadPostsInput{Limit: &opts.Limit}
			if cmd.Flags().Changed("before") {
				in.Before = &opts.Before
			}
			return opts.withFacade(cmd, func(ctx context.Context, f *facade.Facade) error {
				wire, err := f.ReadPosts(ctx, in)
				if err != nil {
					return failed("failed to read posts", err)
				}
				views := make([]postView, 0, len(wire))
				for _, w := range wire {
					v, err := decodePost(w)
					if err != nil {
						return WrapExitError(ExitFailure, "failed to read posts", err)
					}
					views = append(views, v)
				}
				return opts.formatter(cmd).SuccessLines(views, wire)
			})
		},
	}
	cmd.Flags().Int32Var(&opts.Limit, "limit", store.DefaultReadLimit, "maximum number of posts")
	cmd.Flags().StringVar(&opts.Before, "before", "", "only posts created strictly before this time")
	return cmd
}

func newPostsCreateCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Long: `Create a post and print it with its assigned id.

Example:
  populare-db-proxy posts create --text "hello" --author "me"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := opts.postInput(cmd)
			if in.CreatedAt == nil {
				now := post.FormatTimestamp(opts.Now())
				in.CreatedAt = &now
			}
			return opts.withFacade(cmd, func(ctx context.Context, f *facade.Facade) error {
				wire, err := f.CreatePost(ctx, in)
				if err != nil {
					return failed("failed to create post", err)
				}
				return opts.printPost(cmd, wire)
			})
		},
	}
	addPostFlags(cmd, opts, "defaults to now")
	return cmd
}

func newPostsUpdateCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Overwrite a post",
		Long: `Overwrite the text, author and creation time of the post with --id.
Updating an id that does not exist succeeds and changes nothing.

Example:
  populare-db-proxy posts update --id 3 --text "edited" --author "me" --created-at 2022-01-03`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := opts.postInput(cmd)
			in.ID = &opts.ID
			return opts.withFacade(cmd, func(ctx context.Context, f *facade.Facade) error {
				wire, err := f.UpdatePost(ctx, in)
				if err != nil {
					return failed("failed to update post", err)
				}
				return opts.printPost(cmd, wire)
			})
		},
	}
	cmd.Flags().Int32Var(&opts.ID, "id", 0, "id of the post (required)")
	_ = cmd.MarkFlagRequired("id")
	addPostFlags(cmd, opts, "required")
	return cmd
}

func newPostsDeleteCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a post",
		Long: `Delete the post with --id. Deleting an id that does not exist succeeds.

Example:
  populare-db-proxy posts delete --id 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withFacade(cmd, func(ctx context.Context, f *facade.Facade) error {
				res, err := f.DeletePost(ctx, &opts.ID)
				if err != nil {
					return failed("failed to delete post", err)
				}
				return opts.formatter(cmd).Success(res)
			})
		},
	}
	cmd.Flags().Int32Var(&opts.ID, "id", 0, "id of the post (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func addPostFlags(cmd *cobra.Command, opts *PostsOptions, createdAtNote string) {
	cmd.Flags().StringVar(&opts.Text, "text", "", "post text (at most 255 characters)")
	cmd.Flags().StringVar(&opts.Author, "author", "", "post author (at most 255 characters)")
	cmd.Flags().StringVar(&opts.CreatedAt, "created-at", "", "creation time, ISO-8601; "+createdAtNote)
}

// postInput passes only the flags that were set, so that absent fields
// reach the store as absent.
func (o *PostsOptions) postInput(cmd *cobra.Command) facade.PostInput {
	var in facade.PostInput
	if cmd.Flags().Changed("text") {
		in.Text = &o.Text
	}
	if cmd.Flags().Changed("author") {
		in.Author = &o.Author
	}
	if cmd.Flags().Changed("created-at") {
		in.CreatedAt = &o.CreatedAt
	}
	return in
}

func (o *PostsOptions) printPost(cmd *cobra.Command, wire string) error {
	v, err := decodePost(wire)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to print post", err)
	}
	return o.formatter(cmd).SuccessLines(v, []string{wire})
}
