package filestorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	ls, err := NewLocalStorage(dir, "http://localhost:8080/uploads/", zerolog.Nop())
	require.NoError(t, err)

	stored, err := ls.Store(context.Background(), "Payslip.PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(stored.Key, ".pdf"))
	assert.Equal(t, "http://localhost:8080/uploads/"+stored.Key, stored.URL)
	assert.EqualValues(t, 8, stored.Size)

	content, err := os.ReadFile(filepath.Join(dir, stored.Key))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))

	require.NoError(t, ls.Delete(context.Background(), stored.Key))
	_, err = os.Stat(filepath.Join(dir, stored.Key))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, ls.Delete(context.Background(), stored.Key))
}

func TestLocalStoreUniqueNames(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	a, err := ls.Store(context.Background(), "id.png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := ls.Store(context.Background(), "id.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Key, b.Key)
	assert.Equal(t, "uploads/"+a.Key, a.URL)
}

func TestLocalDeleteStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(filepath.Dir(base), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { _ = os.Remove(outside) })

	ls, err := NewLocalStorage(base, "", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, ls.Delete(context.Background(), "../keep.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err)

	assert.Error(t, ls.Delete(context.Background(), ""))
}

func TestLocalStoreHonoursCancelledContext(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ls.Store(ctx, "a.txt", strings.NewReader("a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_id_card", sanitizeName("my id card.jpg"))
	assert.Equal(t, "file", sanitizeName("???.pdf"))
	assert.Len(t, sanitizeName(strings.Repeat("a", 100)+".pdf"), 40)
}
