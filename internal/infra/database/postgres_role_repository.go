package database

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRoleRepository struct {
	db *sql.DB
}

func NewPostgresRoleRepository(db *sql.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

// Snapshot returns the full role name to identifier mapping at call time.
// Callers freeze the result for the duration of a job.
func (r *PostgresRoleRepository) Snapshot(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles`)
	if err != nil {
		return nil, fmt.Errorf("error querying role snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("error scanning role: %w", err)
		}
		snapshot[name] = id
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}
	return snapshot, nil
}
