package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/populare/dbproxy/internal/post"
)

// Operation names used in errors and logs.
const (
	opInitSchema = "init schema"
	opCreate     = "create post"
	opRead       = "read posts"
	opUpdate     = "update post"
	opDelete     = "delete post"
)

const postsTable = "posts"

var errNilPost = errors.New("post is nil")

// CreatePost inserts p and returns it with ID populated.
//
// When p.ID is zero the engine assigns the next auto-increment value;
// otherwise p.ID is inserted verbatim. The store never checks for an
// existing id first: a duplicate is rejected by the primary key and reported
// as ErrIntegrityViolation. Unset fields are written as NULL and rejected
// the same way. A missing table is ErrSchemaNotInitialized.
//
// On success the assigned id is written into p itself, CreatedAt is
// truncated to the precision the engine keeps, and p is returned.
// On failure p is left untouched.
func (s *Store) CreatePost(ctx context.Context, p *post.Post) (*post.Post, error) {
	if p == nil {
		return nil, &Error{Op: opCreate, Kind: ErrIntegrityViolation, Err: errNilPost}
	}

	columns := []string{"text", "author", "created_at"}
	values := []any{nullable(p.Text, p.Unset.Has(post.FieldText)), nullable(p.Author, p.Unset.Has(post.FieldAuthor)), s.timeArg(p.CreatedAt)}
	if p.ID != 0 {
		columns = append([]string{"id"}, columns...)
		values = append([]any{p.ID}, values...)
	}

	query, args, err := s.builder().
		Insert(postsTable).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, wrapError(s.dialect, opCreate, err)
	}

	var id int64
	err = s.withTx(ctx, opCreate, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&id)
	})
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.CreatedAt = s.stored(p.CreatedAt)
	s.logger.Debug("post created", "id", id)
	return p, nil
}

// UpdatePost overwrites text, author and created_at of the row with p.ID.
//
// No matching row is not an error: like a SQL UPDATE that matches nothing,
// the call succeeds and changes nothing. p is returned with CreatedAt
// truncated to the precision the engine keeps.
func (s *Store) UpdatePost(ctx context.Context, p *post.Post) (*post.Post, error) {
	if p == nil {
		return nil, &Error{Op: opUpdate, Kind: ErrIntegrityViolation, Err: errNilPost}
	}

	query, args, err := s.builder().
		Update(postsTable).
		Set("text", nullable(p.Text, p.Unset.Has(post.FieldText))).
		Set("author", nullable(p.Author, p.Unset.Has(post.FieldAuthor))).
		Set("created_at", s.timeArg(p.CreatedAt)).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return nil, wrapError(s.dialect, opUpdate, err)
	}

	var affected int64
	err = s.withTx(ctx, opUpdate, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, err
	}

	p.CreatedAt = s.stored(p.CreatedAt)
	s.logger.Debug("post updated", "id", p.ID, "rows", affected)
	return p, nil
}

// DeletePost removes the row with the given id. No matching row is not an
// error.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	query, args, err := s.builder().
		Delete(postsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return wrapError(s.dialect, opDelete, err)
	}

	var affected int64
	err = s.withTx(ctx, opDelete, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Debug("post deleted", "id", id, "rows", affected)
	return nil
}

// nullable writes v verbatim, or NULL when the field is unset so NOT NULL
// rejects it. The empty string is a value like any other.
func nullable(v string, unset bool) sql.NullString {
	return sql.NullString{String: v, Valid: !unset}
}

// timeArg maps the zero time to NULL so NOT NULL rejects it.
func (s *Store) timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return s.dialect.TimeArg(t)
}

// stored returns t as the engine will read it back.
func (s *Store) stored(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.Truncate(s.dialect.Precision())
}
