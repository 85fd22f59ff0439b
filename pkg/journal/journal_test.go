package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndSelfWritten(t *testing.T) {
	dir := t.TempDir()
	wb := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(wb, []byte("written by automation"), 0600))

	j, err := Open(filepath.Join(dir, "journal.json"))
	require.NoError(t, err)

	self, err := j.SelfWritten(wb)
	require.NoError(t, err)
	assert.False(t, self)

	require.NoError(t, j.Record(wb))
	self, err = j.SelfWritten(wb)
	require.NoError(t, err)
	assert.True(t, self)

	require.NoError(t, os.WriteFile(wb, []byte("edited by a person"), 0600))
	self, err = j.SelfWritten(wb)
	require.NoError(t, err)
	assert.False(t, self)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	wb := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(wb, []byte("v1"), 0600))
	path := filepath.Join(dir, "state", "journal.json")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(wb))
	require.NoError(t, j.Save())

	reloaded, err := Open(path)
	require.NoError(t, err)
	self, err := reloaded.SelfWritten(wb)
	require.NoError(t, err)
	assert.True(t, self)

	reloaded.Forget(wb)
	require.NoError(t, reloaded.Save())
	again, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, again.Fingerprints)
}

func TestSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Save())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSelfWrittenMissingFile(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.json"))
	require.NoError(t, err)
	_, err = j.SelfWritten(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestOpenNullJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")
	require.NoError(t, os.WriteFile(path, []byte("null\n"), 0600))
	wb := filepath.Join(dir, "tasks.xlsx")
	require.NoError(t, os.WriteFile(wb, []byte("contents"), 0600))

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(wb))

	self, err := j.SelfWritten(wb)
	require.NoError(t, err)
	assert.True(t, self)
}
