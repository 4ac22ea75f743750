package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"school_backend/internal/domain/user"

	"github.com/lib/pq" // For pq.Array and unique-violation classification
)

// ErrDuplicateEmail marks a uniqueness violation the validator's snapshot
// could not see (two rows in the same file, or a concurrent writer). It
// surfaces only at insert time and aborts the whole batch transaction.
var ErrDuplicateEmail = fmt.Errorf("user with this email already exists")

const (
	defaultChunkSize = 500
	userColumns      = 8
)

type PostgresUserRepository struct {
	db        *sql.DB
	chunkSize int
}

// NewPostgresUserRepository returns a repository inserting in chunks of the
// given size; zero or negative selects the default of 500.
func NewPostgresUserRepository(db *sql.DB, chunkSize int) *PostgresUserRepository {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &PostgresUserRepository{db: db, chunkSize: chunkSize}
}

func (r *PostgresUserRepository) ExistingEmails(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(candidates))
	if len(candidates) == 0 {
		return existing, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT email FROM users WHERE email = ANY($1)`, pq.Array(candidates))
	if err != nil {
		return nil, fmt.Errorf("error querying existing emails: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("error scanning existing email: %w", err)
		}
		existing[email] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating existing emails: %w", err)
	}
	return existing, nil
}

// BulkCreate inserts all users and all role assignments inside one
// transaction, one multi-row INSERT statement per chunk. Any failure,
// including a duplicate email, rolls the entire batch back.
func (r *PostgresUserRepository) BulkCreate(ctx context.Context, users []*user.User, assignments []*user.RoleAssignment) error {
	if len(users) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	for _, chunk := range chunkOf(users, r.chunkSize) {
		query, args := usersInsertStatement(chunk)
		if _, err := txn.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error bulk inserting users: %w", classifyUniqueViolation(err))
		}
	}

	for _, chunk := range chunkOf(assignments, r.chunkSize) {
		query, args := assignmentsInsertStatement(chunk)
		if _, err := txn.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("error bulk inserting role assignments: %w", classifyUniqueViolation(err))
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk create: %w", err)
	}
	return nil
}

// usersInsertStatement builds one multi-row INSERT for a chunk of users.
func usersInsertStatement(chunk []*user.User) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO users (id, school_id, first_name, last_name, email, password, created_at, updated_at) VALUES `)

	args := make([]interface{}, 0, len(chunk)*userColumns)
	for i, u := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * userColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args, u.ID, u.SchoolID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	}
	return sb.String(), args
}

func assignmentsInsertStatement(chunk []*user.RoleAssignment) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO role_user (user_id, role_id) VALUES `)

	args := make([]interface{}, 0, len(chunk)*2)
	for i, a := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d)", i*2+1, i*2+2)
		args = append(args, a.UserID, a.RoleID)
	}
	return sb.String(), args
}

func classifyUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

// chunkOf splits items into groups of at most size, preserving order.
func chunkOf[T any](items []T, size int) [][]T {
	if len(items) == 0 || size <= 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
