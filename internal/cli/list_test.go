package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwise/internal/store"
)

func newList(format string, args ...string) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	cmd := NewListCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestListText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepwise.db")
	writeStore(t, dbPath)

	buf, err := newList("text", "--db", dbPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[0], "STATUS")
	assert.True(t, strings.HasPrefix(lines[1], "tc-1"))
	assert.Contains(t, lines[1], "failed/finished")
	assert.True(t, strings.HasSuffix(lines[1], "checkout"))
}

func TestListJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepwise.db")
	writeStore(t, dbPath)

	buf, err := newList("json", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []ListEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Len(t, resp.Data, 1)

	got := resp.Data[0]
	assert.Equal(t, "tc-1", got.ID)
	assert.Equal(t, "checkout", got.Name)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "finished", got.Stage)
	assert.Equal(t, 3, got.Steps)
	assert.NotEmpty(t, got.Start)
	assert.NotEmpty(t, got.Stop)
}

func TestListEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stepwise.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf, err := newList("text", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No test cases stored.\n", buf.String())

	buf, err = newList("json", "--db", dbPath)
	require.NoError(t, err)
	var resp struct {
		Data []ListEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestListRejectsArgs(t *testing.T) {
	_, err := newList("text", "extra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
