package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestInitSchema_CreatesTable(t *testing.T) {
	s := createUninitializedStore(t)
	ctx := context.Background()

	p := newPost("text", time.Now())
	_, err := s.CreatePost(ctx, p)
	require.Error(t, err, "inserting before InitSchema must fail")

	require.NoError(t, s.InitSchema(ctx))
	mustCreate(t, s, p)
	assert.NotZero(t, p.ID)
}

func TestInitSchema_TwiceNoError(t *testing.T) {
	s := createUninitializedStore(t)
	ctx := context.Background()

	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.InitSchema(ctx))

	p := mustCreate(t, s, newPost("text", time.Now()))
	assert.Equal(t, int64(1), p.ID)
}

func TestInitSchema_PreservesRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, newPost("survivor", time.Now().Add(-time.Minute)))
	require.NoError(t, s.InitSchema(ctx))

	posts, err := s.ReadPosts(ctx, DefaultReadLimit, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"survivor"}, texts(posts))
}

func TestInitSchema_ConcurrentCallersOnOneStore(t *testing.T) {
	s := createUninitializedStore(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error { return s.InitSchema(ctx) })
	}
	require.NoError(t, g.Wait())

	mustCreate(t, s, newPost("text", time.Now()))
	assert.Equal(t, 1, countRows(t, s))
}

func TestInitSchema_ConcurrentCallersAcrossStores(t *testing.T) {
	uri := testURI(t)
	ctx := context.Background()

	stores := make([]*Store, 4)
	for i := range stores {
		stores[i] = openTestStore(t, uri)
	}

	var g errgroup.Group
	for _, s := range stores {
		g.Go(func() error { return s.InitSchema(ctx) })
	}
	require.NoError(t, g.Wait())

	// Exactly one posts table, usable from every store
	var tables int
	require.NoError(t, stores[0].db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='posts'",
	).Scan(&tables))
	assert.Equal(t, 1, tables)

	for _, s := range stores {
		mustCreate(t, s, newPost("text", time.Now()))
	}
	assert.Equal(t, len(stores), countRows(t, stores[0]))
}

func TestInitSchema_CreatesCursorIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='posts_created_at_idx'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "posts_created_at_idx", name)
}

func TestInitSchema_UnreachableStore(t *testing.T) {
	s := createUninitializedStore(t)
	require.NoError(t, s.Close())

	err := s.InitSchema(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfrastructure)
}
