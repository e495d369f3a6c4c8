// Package store provides transactional storage for posts on SQLite or
// PostgreSQL.
//
// The store owns a single table:
//
//	posts(id PRIMARY KEY auto-increment, text, author, created_at) -- all NOT NULL
//
// # Contracts
//
// Identity
//   - CreatePost assigns the next auto-increment id when the caller leaves
//     ID zero, and honors an explicit id otherwise
//   - Collisions are detected by the primary key, never by a pre-check, and
//     surface as ErrIntegrityViolation
//
// Pagination
//   - ReadPosts returns rows with created_at strictly before the cursor,
//     ORDER BY created_at DESC, id DESC, then LIMIT
//   - The cursor defaults to the clock's now at call time
//
// Bootstrap
//   - InitSchema is idempotent and tolerates concurrent callers; a racing
//     "already exists" from the engine counts as success
//   - No other operation creates the table: they fail with
//     ErrSchemaNotInitialized until InitSchema has run
//
// No-ops
//   - UpdatePost and DeletePost on a missing id succeed and change nothing
//
// # Transactions
//
// Every operation runs in its own transaction and rolls back on any error,
// so a failed write leaves the table unchanged. The store keeps no state
// between calls apart from the connection pool and does not retry.
//
// # Database Configuration
//
// SQLite connections use WAL mode, synchronous=NORMAL, a 5 second busy
// timeout, and a single connection per Store. Timestamps are stored as
// fixed-width UTC text so that comparisons in SQL follow time order.
// PostgreSQL uses TIMESTAMPTZ and an identity column; pool bounds come from
// Config.
package store
