package store

import (
	"context"
	"database/sql"
)

// InitSchema creates the posts table and its cursor index if they are
// missing.
//
// It is idempotent and safe to call concurrently, from one Store or from
// several processes sharing the database. When a racing caller creates the
// table first, the engine's "already exists" report is treated as success.
func (s *Store) InitSchema(ctx context.Context) error {
	err := s.withTx(ctx, opInitSchema, func(tx *sql.Tx) error {
		for _, stmt := range s.dialect.SchemaSQL() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if s.dialect.IsAlreadyExists(err) {
			s.logger.Debug("schema created concurrently, treating as initialized", "error", err)
			return nil
		}
		return err
	}

	s.logger.Info("schema initialized", "driver", s.dialect.Name())
	return nil
}
