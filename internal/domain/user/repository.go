package user

import "context"

// Repository defines the store operations the import pipeline consumes.
type Repository interface {
	// ExistingEmails returns the subset of candidates that already belong to
	// persisted users. Called once per job to snapshot the uniqueness check.
	ExistingEmails(ctx context.Context, candidates []string) (map[string]struct{}, error)
	// BulkCreate persists users and their role assignments inside a single
	// transaction: either the entire batch commits or none of it does.
	BulkCreate(ctx context.Context, users []*User, assignments []*RoleAssignment) error
}

// RoleRepository provides the role reference data the pipeline validates
// against.
type RoleRepository interface {
	// Snapshot returns the complete role-name-to-identifier mapping at call
	// time. Each job takes exactly one snapshot; roles created afterwards are
	// invisible to the running job.
	Snapshot(ctx context.Context) (map[string]string, error)
}
