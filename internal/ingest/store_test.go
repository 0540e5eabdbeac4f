package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/interlock-tracker/constants"
	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
)

var scope = entity.Scope{CompanyID: "acme", SiteID: "north"}

const matrixText = "ZONE Z01 Hall B24\nPCF-001 AL1\n"

func newStore(t *testing.T, maxBytes int64) (*Store, string) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Bootstrap(ctx, db, nil))

	dir := t.TempDir()
	s, err := NewStore(dir, repository.NewDocumentRepository(db, nil), maxBytes, nil)
	require.NoError(t, err)
	return s, dir
}

func TestSave_StoresByHashAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	s, dir := newStore(t, 0)

	doc, created, err := s.Save(ctx, scope, "matrix.txt", strings.NewReader(matrixText))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, constants.TXT, doc.Format)
	assert.Equal(t, int64(len(matrixText)), doc.SizeBytes)
	assert.Equal(t, filepath.Join(dir, doc.ContentHash+".txt"), doc.StoragePath)

	body, err := os.ReadFile(doc.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, matrixText, string(body))

	again, created, err := s.Save(ctx, scope, "copy.TXT", strings.NewReader(matrixText))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, doc.ID, again.ID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are removed")
}

func TestSave_SameContentOtherScopeIsNewDocument(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 0)

	a, _, err := s.Save(ctx, scope, "m.txt", strings.NewReader(matrixText))
	require.NoError(t, err)
	b, created, err := s.Save(ctx, entity.Scope{CompanyID: "acme", SiteID: "south"}, "m.txt", strings.NewReader(matrixText))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.StoragePath, b.StoragePath)
}

func TestSave_Rejects(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 8)

	_, _, err := s.Save(ctx, scope, "photo.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = s.Save(ctx, scope, "big.txt", strings.NewReader(matrixText))
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = s.Save(ctx, scope, "empty.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, 0)

	root := t.TempDir()
	write := func(rel, body string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	write("a.txt", matrixText)
	write("sub/b.csv", "Z02;PCF-002;AL2\n")
	write("sub/dup.txt", matrixText)
	write("notes.md", "ignored")
	write(".hidden/c.txt", "Z09\n")
	write("empty.txt", "")

	results, stats, err := s.IngestDirectory(ctx, scope, root, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Len(t, results, 4)

	_, _, err = s.IngestDirectory(ctx, scope, "  ", true)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAllowedExtAndHidden(t *testing.T) {
	assert.True(t, AllowedExt(".PDF"))
	assert.True(t, AllowedExt("xlsx"))
	assert.False(t, AllowedExt(".jpg"))
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("/x/git"))
}

func TestStartWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()
	existing := filepath.Join(root, "existing.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("%PDF"), 0o644))

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, existing, p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit")
	}

	created := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(created, []byte(matrixText), 0o644))

	select {
	case p := <-events:
		assert.Equal(t, created, p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not emit created file")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
