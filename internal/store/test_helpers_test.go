package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/populare/dbproxy/internal/post"
	"github.com/populare/dbproxy/internal/testutil"
)

// quietLogger discards store logs in tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testURI returns a fresh SQLite database path under t.TempDir().
func testURI(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// openTestStore opens a store on uri without creating the schema.
func openTestStore(t *testing.T, uri string, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := Open(context.Background(), Config{URI: uri}, opts...)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

// createUninitializedStore returns a store whose posts table does not exist.
func createUninitializedStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return openTestStore(t, testURI(t), opts...)
}

// createTestStore returns a store with the schema in place and no rows.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := createUninitializedStore(t, opts...)
	require.NoError(t, s.InitSchema(context.Background()), "InitSchema() failed")
	return s
}

// mustCreate inserts p and fails the test on error.
func mustCreate(t *testing.T, s *Store, p *post.Post) *post.Post {
	t.Helper()
	created, err := s.CreatePost(context.Background(), p)
	require.NoError(t, err, "CreatePost(%v) failed", p)
	return created
}

// countRows returns the number of rows in the posts table.
func countRows(t *testing.T, s *Store) int {
	t.Helper()
	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count))
	return count
}

// texts returns the Text of each post, in order.
func texts(posts []post.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Text
	}
	return out
}

// newPost is a shorthand for testutil.NewPost.
var newPost = testutil.NewPost
