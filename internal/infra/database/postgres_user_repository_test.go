package database

import (
	"fmt"
	"testing"

	"school_backend/internal/domain/user"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeUsers(n int) []*user.User {
	users := make([]*user.User, n)
	for i := range users {
		users[i] = &user.User{
			ID:    fmt.Sprintf("id-%d", i),
			Email: fmt.Sprintf("user%d@example.org", i),
		}
	}
	return users
}

func TestChunkOf(t *testing.T) {
	users := makeUsers(10)

	chunks := chunkOf(users, 3)
	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[3], 1)

	// Order is preserved across chunk boundaries.
	i := 0
	for _, chunk := range chunks {
		for _, u := range chunk {
			assert.Equal(t, users[i], u)
			i++
		}
	}

	// A chunk size larger than the input produces one chunk; outcomes must
	// not depend on the tunable.
	assert.Len(t, chunkOf(users, 500), 1)
	assert.Nil(t, chunkOf([]*user.User{}, 3))
	assert.Nil(t, chunkOf(users, 0))
}

func TestUsersInsertStatement(t *testing.T) {
	users := makeUsers(2)
	users[0].SchoolID = "school-1"
	users[0].FirstName = "Alice"
	users[0].LastName = "Martin"
	users[0].PasswordHash = "hash-0"

	query, args := usersInsertStatement(users)

	// One multi-row statement per chunk, not one statement per row.
	assert.Contains(t, query, "INSERT INTO users")
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8)")
	assert.Contains(t, query, "($9, $10, $11, $12, $13, $14, $15, $16)")
	require.Len(t, args, 16)
	assert.Equal(t, "id-0", args[0])
	assert.Equal(t, "school-1", args[1])
	assert.Equal(t, "Alice", args[2])
	assert.Equal(t, "Martin", args[3])
	assert.Equal(t, "user0@example.org", args[4])
	assert.Equal(t, "hash-0", args[5])
	assert.Equal(t, "id-1", args[8])
}

func TestAssignmentsInsertStatement(t *testing.T) {
	assignments := []*user.RoleAssignment{
		{UserID: "id-0", RoleID: "role-1"},
		{UserID: "id-1", RoleID: "role-2"},
	}

	query, args := assignmentsInsertStatement(assignments)

	assert.Contains(t, query, "INSERT INTO role_user")
	assert.Contains(t, query, "($1, $2)")
	assert.Contains(t, query, "($3, $4)")
	require.Len(t, args, 4)
	assert.Equal(t, []interface{}{"id-0", "role-1", "id-1", "role-2"}, args)
}

func TestClassifyUniqueViolation(t *testing.T) {
	uniqueErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	assert.ErrorIs(t, classifyUniqueViolation(uniqueErr), ErrDuplicateEmail)

	otherPq := &pq.Error{Code: "23503"}
	assert.Equal(t, error(otherPq), classifyUniqueViolation(otherPq))

	plain := fmt.Errorf("connection reset")
	assert.Equal(t, plain, classifyUniqueViolation(plain))
}
