package importer

import (
	"fmt"
	"net/mail"
	"strings"
)

const maxFieldLength = 255

// requiredColumns in validation order. A row fails on the first broken rule.
var requiredColumns = []string{"first_name", "last_name", "email", "role_name"}

// Validator applies the per-row rules against the two snapshots taken at job
// start: the role name table and the set of already-persisted emails. Both
// snapshots are frozen for the job's lifetime, so concurrent role or user
// mutations cannot make one run behave non-deterministically.
type Validator struct {
	roleNames      map[string]string
	existingEmails map[string]struct{}
}

func NewValidator(roleNames map[string]string, existingEmails map[string]struct{}) *Validator {
	return &Validator{roleNames: roleNames, existingEmails: existingEmails}
}

// ValidateRow checks one row and returns either a ValidatedRecord carrying a
// freshly generated temporary secret, or a RowError with the first failing
// rule. The third return is reserved for faults that make validation itself
// impossible (secret generation), which fail the whole job attempt.
func (v *Validator) ValidateRow(row Row) (*ValidatedRecord, *RowError, error) {
	for _, col := range requiredColumns {
		val := strings.TrimSpace(row.Fields[col])
		if val == "" {
			return nil, v.reject(row, fmt.Sprintf("the %s field is required", col)), nil
		}
		if len(val) > maxFieldLength {
			return nil, v.reject(row, fmt.Sprintf("the %s field must not be greater than %d characters", col, maxFieldLength)), nil
		}
	}

	email := strings.TrimSpace(row.Fields["email"])
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, v.reject(row, "the email field must be a valid email address"), nil
	}

	roleName := strings.TrimSpace(row.Fields["role_name"])
	if _, ok := v.roleNames[roleName]; !ok {
		return nil, v.reject(row, "the selected role_name is invalid"), nil
	}

	if _, taken := v.existingEmails[email]; taken {
		return nil, v.reject(row, "the email has already been taken"), nil
	}

	// Duplicates within the same file deliberately pass: they are only
	// detectable by the store's unique constraint at persistence time.

	secret, err := NewTemporarySecret()
	if err != nil {
		return nil, nil, err
	}

	return &ValidatedRecord{
		Line:       row.Line,
		FirstName:  strings.TrimSpace(row.Fields["first_name"]),
		LastName:   strings.TrimSpace(row.Fields["last_name"]),
		Email:      email,
		RoleName:   roleName,
		TempSecret: secret,
	}, nil, nil
}

func (v *Validator) reject(row Row, reason string) *RowError {
	return &RowError{Line: row.Line, Data: row.Fields, Error: reason}
}
