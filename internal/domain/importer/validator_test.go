package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() *Validator {
	return NewValidator(
		map[string]string{"teacher": "role-1", "student": "role-2"},
		map[string]struct{}{"taken@example.org": {}},
	)
}

func validFields() map[string]string {
	return map[string]string{
		"first_name": "Alice",
		"last_name":  "Martin",
		"email":      "alice@example.org",
		"role_name":  "teacher",
	}
}

func TestValidateRowSuccess(t *testing.T) {
	record, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: validFields()})
	require.NoError(t, err)
	require.Nil(t, rowErr)
	require.NotNil(t, record)

	assert.Equal(t, 2, record.Line)
	assert.Equal(t, "Alice", record.FirstName)
	assert.Equal(t, "Martin", record.LastName)
	assert.Equal(t, "alice@example.org", record.Email)
	assert.Equal(t, "teacher", record.RoleName)
	assert.Len(t, record.TempSecret, 12)
}

func TestValidateRowRequiredFields(t *testing.T) {
	for _, col := range []string{"first_name", "last_name", "email", "role_name"} {
		t.Run(col, func(t *testing.T) {
			fields := validFields()
			delete(fields, col)

			record, rowErr, err := testValidator().ValidateRow(Row{Line: 3, Fields: fields})
			require.NoError(t, err)
			require.Nil(t, record)
			require.NotNil(t, rowErr)
			assert.Equal(t, 3, rowErr.Line)
			assert.Equal(t, "the "+col+" field is required", rowErr.Error)

			// Whitespace-only counts as missing too.
			fields[col] = "   "
			_, rowErr, err = testValidator().ValidateRow(Row{Line: 3, Fields: fields})
			require.NoError(t, err)
			require.NotNil(t, rowErr)
			assert.Equal(t, "the "+col+" field is required", rowErr.Error)
		})
	}
}

func TestValidateRowFieldTooLong(t *testing.T) {
	fields := validFields()
	fields["first_name"] = strings.Repeat("a", 256)

	_, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, "the first_name field must not be greater than 255 characters", rowErr.Error)
}

func TestValidateRowBadEmail(t *testing.T) {
	fields := validFields()
	fields["email"] = "not-an-email"

	_, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, "the email field must be a valid email address", rowErr.Error)
}

func TestValidateRowUnknownRole(t *testing.T) {
	fields := validFields()
	fields["role_name"] = "principal"

	_, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, "the selected role_name is invalid", rowErr.Error)
}

func TestValidateRowEmailAlreadyTaken(t *testing.T) {
	fields := validFields()
	fields["email"] = "taken@example.org"

	_, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, "the email has already been taken", rowErr.Error)
}

func TestValidateRowStopsAtFirstFailingRule(t *testing.T) {
	fields := validFields()
	delete(fields, "last_name")
	fields["role_name"] = "principal"

	_, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, "the last_name field is required", rowErr.Error)
}

func TestValidateRowTrimsValues(t *testing.T) {
	fields := map[string]string{
		"first_name": " Alice ",
		"last_name":  " Martin ",
		"email":      " alice@example.org ",
		"role_name":  " teacher ",
	}

	record, rowErr, err := testValidator().ValidateRow(Row{Line: 2, Fields: fields})
	require.NoError(t, err)
	require.Nil(t, rowErr)
	assert.Equal(t, "Alice", record.FirstName)
	assert.Equal(t, "alice@example.org", record.Email)
	assert.Equal(t, "teacher", record.RoleName)
}

func TestValidateRowErrorCarriesOriginalData(t *testing.T) {
	fields := validFields()
	fields["email"] = "broken"

	_, rowErr, err := testValidator().ValidateRow(Row{Line: 7, Fields: fields})
	require.NoError(t, err)
	require.NotNil(t, rowErr)
	assert.Equal(t, fields, rowErr.Data)
}

func TestTemporarySecretsAreFreshPerRow(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		secret, err := NewTemporarySecret()
		require.NoError(t, err)
		require.Len(t, secret, 12)
		for _, r := range secret {
			assert.Contains(t, secretAlphabet, string(r))
		}
		_, dup := seen[secret]
		require.False(t, dup, "temporary secrets must never repeat")
		seen[secret] = struct{}{}
	}
}
