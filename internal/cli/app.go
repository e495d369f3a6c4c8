package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/populare/dbproxy/internal/facade"
	"github.com/populare/dbproxy/internal/post"
	"github.com/populare/dbproxy/internal/store"
)

// openStore connects to the configured database. The caller closes it.
func (o *RootOptions) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, o.config.DB.StoreConfig(), store.WithLogger(slog.Default()))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// withFacade opens the store, runs fn against a facade over it and closes
// the store again.
func (o *RootOptions) withFacade(cmd *cobra.Command, fn func(ctx context.Context, f *facade.Facade) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	o.formatter(cmd).VerboseLog("opened %s database", st.Dialect().Name())
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	return fn(ctx, facade.New(st))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// failed wraps an operation error. Invalid input is a usage problem; every
// other failure means the operation itself was rejected or could not run.
func failed(msg string, err error) error {
	code := ExitFailure
	if facade.ErrorCode(err) == facade.CodeInvalidArgument {
		code = ExitCommandError
	}
	return WrapExitError(code, msg, err)
}

// postView is the structured rendering of a post for json and yaml output.
type postView struct {
	ID        int64  `json:"id"         yaml:"id"`
	Text      string `json:"text"       yaml:"text"`
	Author    string `json:"author"     yaml:"author"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

// decodePost turns the facade's wire form back into a view.
func decodePost(wire string) (postView, error) {
	var p post.Post
	if err := json.Unmarshal([]byte(wire), &p); err != nil {
		return postView{}, fmt.Errorf("decode post: %w", err)
	}
	return postView{
		ID:        p.ID,
		Text:      p.Text,
		Author:    p.Author,
		CreatedAt: post.FormatTimestamp(p.CreatedAt),
	}, nil
}
