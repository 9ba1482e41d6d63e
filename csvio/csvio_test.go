// ABOUTME: Tests for CSV conversion helpers
// ABOUTME: Covers header normalisation, ragged rows and write ordering
package csvio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadNormalizesHeaders(t *testing.T) {
	in := "\ufeffContact Name, Email ,Phone\nJane,jane@example.com\n,,\nBob,bob@example.com,555\n"
	rows, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"contact_name": "Jane", "email": "jane@example.com"}, rows[0])
	assert.Equal(t, "555", rows[1]["phone"])
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Read(strings.NewReader("name,Name\nx,y\n"))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []string{"name", "note"}, []map[string]string{
		{"name": "Acme", "note": "has, comma"},
		{"name": "Globex"},
	})
	require.NoError(t, err)
	assert.Equal(t, "name,note\nAcme,\"has, comma\"\nGlobex,\n", buf.String())

	rows, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "has, comma", rows[0]["note"])
}
