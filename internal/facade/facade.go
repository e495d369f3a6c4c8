// Package facade adapts external create/read/update/delete requests to the
// record store.
//
// The facade holds no state. It validates and coerces scalar inputs,
// delegates to the store, and serializes each resulting post into its JSON
// wire form. Store errors are returned unchanged (wrapped), so callers can
// still match store.ErrSchemaNotInitialized and store.ErrIntegrityViolation.
package facade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/populare/dbproxy/internal/post"
	"github.com/populare/dbproxy/internal/store"
)

// OK is returned by operations that have no payload.
const OK = "ok"

// ErrInvalidArgument means an external input could not be coerced.
var ErrInvalidArgument = errors.New("invalid argument")

// Backend is the record store as seen by the facade.
type Backend interface {
	InitSchema(ctx context.Context) error
	CreatePost(ctx context.Context, p *post.Post) (*post.Post, error)
	ReadPosts(ctx context.Context, limit uint, before *time.Time) ([]post.Post, error)
	UpdatePost(ctx context.Context, p *post.Post) (*post.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

// ReadPostsInput holds the optional arguments of ReadPosts.
type ReadPostsInput struct {
	Limit  *int32  `json:"limit" validate:"omitnil,gte=0"`
	Before *string `json:"before"`
}

// PostInput holds the arguments of CreatePost and UpdatePost.
// ID is ignored by CreatePost. A nil field is absent.
type PostInput struct {
	ID        *int32  `json:"postId"`
	Text      *string `json:"text" validate:"omitnil,max=255"`
	Author    *string `json:"author" validate:"omitnil,max=255"`
	CreatedAt *string `json:"createdAt"`
}

// Facade exposes the record store to request/response transports.
type Facade struct {
	backend  Backend
	validate *validator.Validate
}

// New creates a facade over b.
func New(b Backend) *Facade {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Facade{backend: b, validate: v}
}

// InitDB creates the schema if needed and returns OK.
func (f *Facade) InitDB(ctx context.Context) (string, error) {
	if err := f.backend.InitSchema(ctx); err != nil {
		return "", fmt.Errorf("init db: %w", err)
	}
	return OK, nil
}

// ReadPosts returns serialized posts, newest first. A nil limit means
// store.DefaultReadLimit; a nil before means now.
func (f *Facade) ReadPosts(ctx context.Context, in ReadPostsInput) ([]string, error) {
	if err := f.check(in); err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}

	limit := uint(store.DefaultReadLimit)
	if in.Limit != nil {
		limit = uint(*in.Limit)
	}
	before, err := parseOptionalTimestamp("before", in.Before)
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}

	posts, err := f.backend.ReadPosts(ctx, limit, before)
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}

	out := make([]string, 0, len(posts))
	for _, p := range posts {
		s, err := serialize(p)
		if err != nil {
			return nil, fmt.Errorf("read posts: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CreatePost stores a new post and returns it serialized with its id.
func (f *Facade) CreatePost(ctx context.Context, in PostInput) (string, error) {
	p, err := f.toPost(in)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	p.ID = 0

	if _, err := f.backend.CreatePost(ctx, p); err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return serialize(*p)
}

// UpdatePost overwrites the post with in.ID and echoes the input back.
// Updating an id that does not exist is not an error.
func (f *Facade) UpdatePost(ctx context.Context, in PostInput) (string, error) {
	if in.ID == nil {
		return "", fmt.Errorf("update post: %w: postId is required", ErrInvalidArgument)
	}
	p, err := f.toPost(in)
	if err != nil {
		return "", fmt.Errorf("update post: %w", err)
	}

	if _, err := f.backend.UpdatePost(ctx, p); err != nil {
		return "", fmt.Errorf("update post: %w", err)
	}
	return serialize(*p)
}

// DeletePost removes the post with id and returns OK. Deleting an id that
// does not exist is not an error.
func (f *Facade) DeletePost(ctx context.Context, id *int32) (string, error) {
	if id == nil {
		return "", fmt.Errorf("delete post: %w: postId is required", ErrInvalidArgument)
	}
	if err := f.backend.DeletePost(ctx, int64(*id)); err != nil {
		return "", fmt.Errorf("delete post: %w", err)
	}
	return OK, nil
}

// toPost validates in and converts it. Absent fields are marked unset so the
// store's NOT NULL constraints decide; an explicit "" is kept as a value.
func (f *Facade) toPost(in PostInput) (*post.Post, error) {
	if err := f.check(in); err != nil {
		return nil, err
	}
	createdAt, err := parseOptionalTimestamp("createdAt", in.CreatedAt)
	if err != nil {
		return nil, err
	}

	p := &post.Post{}
	if in.ID != nil {
		p.ID = int64(*in.ID)
	}
	if in.Text != nil {
		p.Text = *in.Text
	} else {
		p.Unset |= post.FieldText
	}
	if in.Author != nil {
		p.Author = *in.Author
	} else {
		p.Unset |= post.FieldAuthor
	}
	if createdAt != nil {
		p.CreatedAt = *createdAt
	}
	return p, nil
}

// check runs struct validation and reports failures as ErrInvalidArgument.
func (f *Facade) check(in any) error {
	err := f.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be non-negative", fe.Field())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

func parseOptionalTimestamp(name string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := post.ParseTimestamp(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
	}
	return &t, nil
}

func serialize(p post.Post) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("serialize post %d: %w", p.ID, err)
	}
	return string(data), nil
}
