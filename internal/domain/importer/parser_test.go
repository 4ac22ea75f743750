package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "first_name,last_name,email,role_name"

func TestParseMapsRowsOntoHeader(t *testing.T) {
	payload := header + "\n" +
		"Alice,Martin,alice@example.org,teacher\n" +
		"Bob,Durand,bob@example.org,student\n"

	parsed, err := Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"first_name", "last_name", "email", "role_name"}, parsed.Header)
	require.Len(t, parsed.Rows, 2)

	assert.Equal(t, 2, parsed.Rows[0].Line)
	assert.Equal(t, "Alice", parsed.Rows[0].Fields["first_name"])
	assert.Equal(t, "alice@example.org", parsed.Rows[0].Fields["email"])

	assert.Equal(t, 3, parsed.Rows[1].Line)
	assert.Equal(t, "student", parsed.Rows[1].Fields["role_name"])
}

func TestParseSkipsBlankLinesButKeepsSourceNumbering(t *testing.T) {
	payload := header + "\n" +
		"Alice,Martin,alice@example.org,teacher\n" +
		"\n" +
		" , , , \n" +
		"Bob,Durand,bob@example.org,student\n"

	parsed, err := Parse(payload)
	require.NoError(t, err)

	// Blank lines vanish from the output entirely but later rows keep the
	// line number they have in the source file.
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, 2, parsed.Rows[0].Line)
	assert.Equal(t, 5, parsed.Rows[1].Line)
}

func TestParseHeaderOnly(t *testing.T) {
	parsed, err := Parse(header + "\n")
	require.NoError(t, err)
	assert.Empty(t, parsed.Rows)
}

func TestParseEmptyPayload(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Parse("\n\n")
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseShortRowMapsIncompletely(t *testing.T) {
	parsed, err := Parse(header + "\nAlice,Martin\n")
	require.NoError(t, err)

	require.Len(t, parsed.Rows, 1)
	fields := parsed.Rows[0].Fields
	assert.Equal(t, "Alice", fields["first_name"])
	assert.Equal(t, "Martin", fields["last_name"])
	_, hasEmail := fields["email"]
	assert.False(t, hasEmail)
}

func TestParseExtraCellsAreDropped(t *testing.T) {
	parsed, err := Parse(header + "\nAlice,Martin,alice@example.org,teacher,extra,cells\n")
	require.NoError(t, err)

	require.Len(t, parsed.Rows, 1)
	assert.Len(t, parsed.Rows[0].Fields, 4)
}

func TestParseHandlesCRLFAndQuotedCells(t *testing.T) {
	payload := header + "\r\n" +
		"\"Alice\",\"Martin, Jr\",alice@example.org,teacher\r\n"

	parsed, err := Parse(payload)
	require.NoError(t, err)

	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, 2, parsed.Rows[0].Line)
	assert.Equal(t, "Martin, Jr", parsed.Rows[0].Fields["last_name"])
}

func TestParseTrimsHeaderCells(t *testing.T) {
	parsed, err := Parse("first_name , last_name ,email,role_name\nAlice,Martin,alice@example.org,teacher\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"first_name", "last_name", "email", "role_name"}, parsed.Header)
	assert.Equal(t, "Martin", parsed.Rows[0].Fields["last_name"])
}
