package sessions

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/commands"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/drafts"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db      *gorm.DB
	drafts  *drafts.Store
	manager *Manager
	docID   uuid.UUID
	section string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, dao.Migrate(db))

	ds, err := drafts.Open(filepath.Join(t.TempDir(), "drafts.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })

	doc := edtypes.NewEmptyDocument("Sustainability report")
	sec := edtypes.NewEmptySection("Environment")
	p := edtypes.NewEmptyBlock(edtypes.BlockParagraph)
	p.ID = "intro"
	p.Content = edtypes.NewEmptyInline("Intro")
	sec.Blocks = append(sec.Blocks, p)
	doc.Sections = append(doc.Sections, sec)

	created, err := dao.CreateDocument(db, doc, "u1")
	require.NoError(t, err)

	return &fixture{
		db:      db,
		drafts:  ds,
		manager: NewManager(db, ds, Options{HistoryCapacity: 50, ContentDelay: 20 * time.Millisecond}),
		docID:   created.ID,
		section: sec.ID,
	}
}

func (f *fixture) insertBlock(t *testing.T, s *Session) commands.Result {
	t.Helper()
	payload, err := json.Marshal(commands.InsertBlockPayload{SectionID: f.section, Position: 1, BlockType: edtypes.BlockQuote})
	require.NoError(t, err)
	return s.Dispatch(commands.TypeInsertBlock, payload)
}

func TestOpenAndFlush(t *testing.T) {
	f := newFixture(t)

	var res commands.Result
	require.NoError(t, f.manager.Do(f.docID, func(s *Session) error {
		res = f.insertBlock(t, s)
		return nil
	}))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, f.manager.Len())

	state, err := f.manager.State(f.docID)
	require.NoError(t, err)
	assert.True(t, state.Dirty)
	assert.True(t, state.Editing)
	assert.Equal(t, string(StatusIdle), state.SaveStatus)

	saved, err := f.manager.FlushDirty()
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	stored, err := dao.GetDocument(f.db, f.docID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 2, stored.BlocksCount)

	state, err = f.manager.State(f.docID)
	require.NoError(t, err)
	assert.False(t, state.Dirty)
	assert.Equal(t, string(StatusSaved), state.SaveStatus)
	require.NotNil(t, state.LastSaved)

	saved, err = f.manager.FlushDirty()
	require.NoError(t, err)
	assert.Zero(t, saved)
}

func TestStateNotOpened(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.State(f.docID)
	assert.ErrorIs(t, err, apierrors.ErrSessionNotOpened)

	err = f.manager.Do(dao.GenUUID(), func(s *Session) error { return nil })
	assert.ErrorIs(t, err, apierrors.ErrDocumentNotFound)
}

func TestSaveFailureWritesDraft(t *testing.T) {
	f := newFixture(t)

	s, err := f.manager.Open(f.docID)
	require.NoError(t, err)
	require.True(t, f.insertBlock(t, s).Success)

	require.NoError(t, dao.DeleteDocument(f.db, f.docID))

	_, err = f.manager.FlushDirty()
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrDocumentNotFound)

	state, err := f.manager.State(f.docID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusError), state.SaveStatus)
	assert.True(t, state.Dirty)

	draft, _, ok, err := f.drafts.Get(f.docID.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, draft.Sections[0].Blocks, 2)
}

func TestOpenPrefersNewerDraft(t *testing.T) {
	f := newFixture(t)

	stored, err := dao.GetDocument(f.db, f.docID)
	require.NoError(t, err)
	draft := stored.Content.Clone()
	draft.Title = "Recovered title"
	require.NoError(t, f.drafts.Put(f.docID.String(), draft))

	s, err := f.manager.Open(f.docID)
	require.NoError(t, err)
	assert.Equal(t, "Recovered title", s.Store().Document().Title)
	assert.True(t, s.Store().Dirty())
	assert.False(t, s.Store().CanUndo())

	require.NoError(t, f.manager.Close(f.docID))
	assert.Zero(t, f.manager.Len())

	stored, err = dao.GetDocument(f.db, f.docID)
	require.NoError(t, err)
	assert.Equal(t, "Recovered title", stored.Title)

	_, _, ok, err := f.drafts.Get(f.docID.String())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvictIdle(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.manager.now = func() time.Time { return now }

	s, err := f.manager.Open(f.docID)
	require.NoError(t, err)
	require.True(t, f.insertBlock(t, s).Success)

	assert.Zero(t, f.manager.EvictIdle(time.Minute))
	assert.Equal(t, 1, f.manager.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, f.manager.EvictIdle(time.Minute))
	assert.Zero(t, f.manager.Len())

	stored, err := dao.GetDocument(f.db, f.docID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.BlocksCount)
}

func TestUpdateContent(t *testing.T) {
	f := newFixture(t)
	s, err := f.manager.Open(f.docID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		text      string
		debounced bool
	}{
		{"immediate", "Scope 1", false},
		{"debounced", "Scope 1 and 2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.UpdateContent(commands.UpdateBlockContentPayload{
				SectionID: f.section,
				BlockID:   "intro",
				Content:   edtypes.NewEmptyInline(tt.text),
			}, tt.debounced)
			require.True(t, res.Success, res.Error)

			assert.Eventually(t, func() bool {
				b, ok := s.Store().Document().FindBlock(f.section, "intro")
				return ok && b.Text() == tt.text
			}, time.Second, 10*time.Millisecond)
		})
	}

	past, _ := s.Executor().HistorySize()
	assert.Equal(t, 2, past)

	assert.True(t, s.Undo())
	b, _ := s.Store().Document().FindBlock(f.section, "intro")
	assert.Equal(t, "Scope 1", b.Text())

	h := s.History()
	assert.True(t, h.CanRedo)
	assert.Equal(t, 50, h.Capacity)
	require.Len(t, h.Log, 2)
	assert.Equal(t, string(commands.TypeUpdateBlockContent), h.Log[0].Type)
}

func TestUndoBeforeDebouncedEdit(t *testing.T) {
	f := newFixture(t)

	err := f.manager.Do(f.docID, func(s *Session) error {
		res := s.UpdateContent(commands.UpdateBlockContentPayload{
			SectionID: f.section,
			BlockID:   "intro",
			Content:   edtypes.NewEmptyInline("Typed"),
		}, true)
		require.True(t, res.Success)

		// таймер уже сработал и ждет блокировку сеанса
		time.Sleep(60 * time.Millisecond)
		assert.True(t, s.Undo())
		return nil
	})
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	err = f.manager.Do(f.docID, func(s *Session) error {
		b, ok := s.Store().Document().FindBlock(f.section, "intro")
		require.True(t, ok)
		assert.Equal(t, "Intro", b.Text())

		h := s.HistoryState()
		assert.Zero(t, h.PastSize)
		assert.Equal(t, 1, h.FutureSize)
		assert.Zero(t, s.State().Pending)
		return nil
	})
	require.NoError(t, err)
}

func TestRestoreAndReplace(t *testing.T) {
	f := newFixture(t)

	v1, err := dao.CreateVersion(f.db, f.docID, nil, "baseline", false, "u1")
	require.NoError(t, err)

	s, err := f.manager.Open(f.docID)
	require.NoError(t, err)
	require.True(t, f.insertBlock(t, s).Success)

	res, err := f.manager.Restore(f.docID, v1.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RestoredNumber)
	assert.Equal(t, 2, res.BackupNumber)

	backup, err := dao.ListVersions(f.db, f.docID, 0, 1, true)
	require.NoError(t, err)
	require.Len(t, backup.Versions, 1)
	assert.Equal(t, 2, backup.Versions[0].BlocksCount)

	assert.Len(t, s.Store().Document().Sections[0].Blocks, 1)
	assert.False(t, s.Store().CanUndo())
	assert.False(t, s.Store().Dirty())

	replacement := s.Store().Snapshot()
	replacement.Title = "Replaced"
	saved, err := f.manager.Replace(f.docID, replacement)
	require.NoError(t, err)
	assert.Equal(t, "Replaced", saved.Title)
	assert.Equal(t, "Replaced", s.Store().Document().Title)

	require.NoError(t, f.manager.Delete(f.docID))
	assert.Zero(t, f.manager.Len())
	_, err = dao.GetDocument(f.db, f.docID)
	assert.ErrorIs(t, err, apierrors.ErrDocumentNotFound)
}
