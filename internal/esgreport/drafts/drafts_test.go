package drafts

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "drafts.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openStore(t, time.Hour)

	doc := edtypes.NewEmptyDocument("Draft report")
	sec := edtypes.NewEmptySection("Governance")
	sec.Blocks = append(sec.Blocks, edtypes.NewEmptyBlock(edtypes.BlockHeading))
	doc.Sections = append(doc.Sections, sec)

	_, _, ok, err := s.Get(doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Put(doc.ID, doc))

	got, at, ok, err := s.Get(doc.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.After(before))
	assert.Equal(t, doc.Title, got.Title)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, sec.Blocks[0].ID, got.Sections[0].Blocks[0].ID)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{doc.ID}, ids)

	require.NoError(t, s.Delete(doc.ID))
	_, _, ok, err = s.Get(doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Put("ignored", nil))
}

func TestClean(t *testing.T) {
	s := openStore(t, time.Hour)

	require.NoError(t, s.Put("a", edtypes.NewEmptyDocument("A")))
	require.NoError(t, s.Put("b", edtypes.NewEmptyDocument("B")))

	n, err := s.Clean(time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Clean(time.Now().Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCloseTwice(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "drafts.db"), time.Hour)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
