package graphql

import (
	"context"

	"github.com/populare/dbproxy/internal/facade"
)

type resolver struct {
	facade *facade.Facade
}

type postArgs struct {
	PostID    *int32
	Text      *string
	Author    *string
	CreatedAt *string
}

func (a postArgs) input() facade.PostInput {
	return facade.PostInput{ID: a.PostID, Text: a.Text, Author: a.Author, CreatedAt: a.CreatedAt}
}

func (r *resolver) InitDb(ctx context.Context) (*string, error) {
	return nullable(r.facade.InitDB(ctx))
}

func (r *resolver) ReadPosts(ctx context.Context, args struct {
	Limit  *int32
	Before *string
}) (*[]*string, error) {
	posts, err := r.facade.ReadPosts(ctx, facade.ReadPostsInput{Limit: args.Limit, Before: args.Before})
	if err != nil {
		return nil, newResolverError(err)
	}
	out := make([]*string, len(posts))
	for i := range posts {
		out[i] = &posts[i]
	}
	return &out, nil
}

func (r *resolver) CreatePost(ctx context.Context, args struct {
	Text      *string
	Author    *string
	CreatedAt *string
}) (*string, error) {
	return nullable(r.facade.CreatePost(ctx, postArgs{Text: args.Text, Author: args.Author, CreatedAt: args.CreatedAt}.input()))
}

func (r *resolver) UpdatePost(ctx context.Context, args postArgs) (*string, error) {
	return nullable(r.facade.UpdatePost(ctx, args.input()))
}

func (r *resolver) DeletePost(ctx context.Context, args struct{ PostID *int32 }) (*string, error) {
	return nullable(r.facade.DeletePost(ctx, args.PostID))
}

func nullable(s string, err error) (*string, error) {
	if err != nil {
		return nil, newResolverError(err)
	}
	return &s, nil
}

// resolverError carries a machine-readable code into the response's
// extensions. It must be returned unwrapped for the executor to see it.
type resolverError struct {
	err  error
	code string
}

func newResolverError(err error) *resolverError {
	return &resolverError{err: err, code: facade.ErrorCode(err)}
}

func (e *resolverError) Error() string { return e.err.Error() }
func (e *resolverError) Unwrap() error { return e.err }

func (e *resolverError) Extensions() map[string]any {
	return map[string]any{"code": e.code}
}
