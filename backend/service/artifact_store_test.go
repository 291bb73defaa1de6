package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "TZ_t1_1700000000000.pdf", ArtifactName("t1", 1700000000000, "pdf"))
	assert.Equal(t, "TZ____etc_passwd_1.docx", ArtifactName("../etc/passwd", 1, "docx"))
	assert.Equal(t, "TZ_task_1.pdf", ArtifactName("  ", 1, "pdf"))

	assert.True(t, ValidArtifactName("TZ_t-1_99.docx"))
	assert.False(t, ValidArtifactName("TZ_t1_99.txt"))
	assert.False(t, ValidArtifactName("../TZ_t1_99.pdf"))
	assert.False(t, ValidArtifactName("TZ_t1_.pdf"))
}

func TestLocalArtifactStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")
	store := NewLocalArtifactStore(dir)

	artifact, err := store.Save(context.Background(), "t1", []byte("content"), "pdf")
	require.NoError(t, err)

	assert.Regexp(t, `^TZ_t1_\d+\.pdf$`, artifact.FileName)
	assert.Equal(t, "/api/export/download/"+artifact.FileName, artifact.DownloadURL)

	data, err := os.ReadFile(filepath.Join(dir, artifact.FileName))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestLocalArtifactStoreSameMillisecond(t *testing.T) {
	store := NewLocalArtifactStore(t.TempDir())
	store.now = fixedClock(1700000000000)

	a, err := store.Save(context.Background(), "t1", []byte("a"), "docx")
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "t1", []byte("b"), "docx")
	require.NoError(t, err)

	assert.Equal(t, "TZ_t1_1700000000000.docx", a.FileName)
	assert.Equal(t, "TZ_t1_1700000000001.docx", b.FileName)
}

func TestLocalArtifactStoreConcurrentSaves(t *testing.T) {
	store := NewLocalArtifactStore(t.TempDir())
	store.now = fixedClock(42)

	const n = 25
	names := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := store.Save(context.Background(), "same", []byte("x"), "pdf")
			if assert.NoError(t, err) {
				names <- a.FileName
			}
		}()
	}
	wg.Wait()
	close(names)

	seen := map[string]bool{}
	for name := range names {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, n)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestLocalArtifactStoreMkdirFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewLocalArtifactStore(filepath.Join(file, "exports")).Save(context.Background(), "t1", []byte("x"), "pdf")

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr), "got %v", err)
	assert.Equal(t, "mkdir", storageErr.Op)
}

func TestLocalArtifactStoreOpen(t *testing.T) {
	store := NewLocalArtifactStore(t.TempDir())
	saved, err := store.Save(context.Background(), "t1", []byte("hello"), "docx")
	require.NoError(t, err)

	a, err := store.Open(context.Background(), saved.FileName)
	require.NoError(t, err)
	defer a.Body.Close()

	body, err := io.ReadAll(a.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.EqualValues(t, 5, a.Size)

	for _, name := range []string{"TZ_t1_1.pdf", "../../etc/passwd", "notes.txt"} {
		_, err := store.Open(context.Background(), name)
		assert.ErrorIs(t, err, ErrArtifactNotFound, name)
	}
}
