package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadList(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("job card row\n"), 500)
	path, err := store.Save("JC-1_job_card.xlsx", payload)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "JC-1_job_card.xlsx.xz"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(payload)))

	got, err := store.Load("JC-1_job_card.xlsx")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = store.Load("JC-1_job_card.xlsx.xz")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = store.Save("JC-2_pick_ticket.xlsx", []byte("x"))
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "JC-2_pick_ticket.xlsx", entries[0].Name)
	assert.Equal(t, "JC-1_job_card.xlsx", entries[1].Name)
}

func TestLoadMissing(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = store.Load("nothing.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectsPathNames(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"", "..", "../escape", "a/b", `a\b`} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestName(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, "20240501T130405Z_JC-1_job_card.xlsx", Name(at, "dir/JC-1_job_card.xlsx"))
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
