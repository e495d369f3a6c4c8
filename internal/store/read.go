package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/populare/dbproxy/internal/post"
)

// DefaultReadLimit is the page size callers use when none is given.
const DefaultReadLimit = 50

var postColumns = []string{"id", "text", "author", "created_at"}

// ReadPosts returns up to limit posts created strictly before the cursor,
// newest first. Posts sharing a created_at are ordered by id descending.
//
// A nil before means "now" according to the store's clock, read at call
// time. A limit of zero returns no rows; the query still runs, so a missing
// table is still reported.
//
// Returns an empty slice (not nil) when nothing qualifies. A missing table
// is ErrSchemaNotInitialized; the store keeps no state about it, so the next
// call after InitSchema succeeds.
func (s *Store) ReadPosts(ctx context.Context, limit uint, before *time.Time) ([]post.Post, error) {
	cutoff := s.clock.Now()
	if before != nil {
		cutoff = *before
	}

	query, args, err := s.builder().
		Select(postColumns...).
		From(postsTable).
		Where(squirrel.Lt{"created_at": s.dialect.TimeArg(cutoff)}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, wrapError(s.dialect, opRead, err)
	}

	var posts []post.Post
	err = s.withTx(ctx, opRead, func(tx *sql.Tx) error {
		return sqlscan.Select(ctx, tx, &posts, query, args...)
	})
	if err != nil {
		return nil, err
	}

	// Return empty slice instead of nil
	if posts == nil {
		posts = []post.Post{}
	}
	return posts, nil
}
