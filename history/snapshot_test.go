package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFile(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	records, err := fs.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	fs := NewFileStore(path)
	records, err := fs.Load(context.Background())
	require.NoError(t, err, "corrupt snapshot must not be fatal")
	assert.Empty(t, records)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	in := []Record{
		{
			ID:        "r1",
			TaskText:  "translate the changelog",
			Embedding: []float64{0.75, 1, 0},
			AgentID:   "translator",
			Success:   true,
			Quality:   8.5,
			Duration:  12.3,
			Timestamp: 1700000000,
			Meta: Metadata{
				Strategy: "voting",
				Extra:    map[string]string{"lang": "de"},
			},
		},
	}
	require.NoError(t, fs.Save(ctx, in))

	out, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestFileStoreSaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, nil))
	out, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCorruptSnapshotYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("]]]"), 0644))

	s, err := New(NewFileStore(path), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}
