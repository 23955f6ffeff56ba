package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSortsSQLFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_documents.sql": {Data: []byte("SELECT 1;")},
		"001_init.sql":      {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("notes")},
		"old/003_x.sql":     {Data: []byte("SELECT 1;")},
	}

	names, err := List(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_documents.sql"}, names)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_init.sql"))
	assert.Equal(t, "002", Version("sql/002_add_documents.sql"))
}

func TestEmbeddedSchema(t *testing.T) {
	names, err := List(Files())
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
}
