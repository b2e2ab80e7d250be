// Пакет хранит состояние сеанса редактирования: текущий документ, историю и флаги.
//
// Основные возможности:
//   - Единственная точка записи документа, все изменения проходят через Apply.
//   - Ровно один снимок истории на действие, даже если действие состоит из нескольких изменений.
//   - Отметка metadata.updatedAt при каждом реальном изменении.
//   - Отмена и повтор через history.Manager.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/history"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/mutation"
)

type Store struct {
	mu      sync.RWMutex
	doc     *edtypes.Document
	history *history.Manager[*edtypes.Document]
	editing bool
	dirty   bool
	now     func() time.Time
}

type Option func(*Store)

// WithClock задает источник времени для updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithHistoryCapacity задает емкость истории.
func WithHistoryCapacity(capacity int) Option {
	return func(s *Store) {
		s.history = history.NewManager(capacity, (*edtypes.Document).Clone)
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		history: history.NewManager(history.DefaultCapacity, (*edtypes.Document).Clone),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document текущий документ. Значение нельзя менять на месте, только через Apply.
func (s *Store) Document() *edtypes.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Snapshot глубокая копия текущего документа.
func (s *Store) Snapshot() *edtypes.Document {
	return s.Document().Clone()
}

func (s *Store) HasDocument() bool {
	return s.Document() != nil
}

// SetDocument заменяет документ целиком (загрузка, восстановление версии) минуя историю.
// История очищается.
func (s *Store) SetDocument(doc *edtypes.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.history.Clear()
	s.dirty = false
	s.editing = false
}

// Apply применяет изменения последовательно как одно действие.
// Если документа нет или ни одно изменение ничего не поменяло, история и updatedAt не трогаются.
func (s *Store) Apply(muts ...mutation.Mutation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		slog.Debug("No document loaded, skip mutation")
		return false
	}

	cur := s.doc
	changed := false
	for _, m := range muts {
		next, ok := m(cur)
		if ok {
			cur = next
			changed = true
		}
	}
	if !changed {
		return false
	}

	s.history.Push(s.doc)
	res := *cur
	res.Metadata.UpdatedAt = s.now()
	s.doc = &res
	s.dirty = true
	return true
}

// Undo возвращает предыдущее состояние. false, если отменять нечего.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.history.Undo(s.doc)
	if !ok {
		return false
	}
	s.doc = prev
	s.dirty = true
	return true
}

// Redo повторяет отмененное состояние. false, если повторять нечего.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.history.Redo(s.doc)
	if !ok {
		return false
	}
	s.doc = next
	s.dirty = true
	return true
}

func (s *Store) CanUndo() bool {
	return s.history.CanUndo()
}

func (s *Store) CanRedo() bool {
	return s.history.CanRedo()
}

// HistoryLen размеры стеков отмены и повтора.
func (s *Store) HistoryLen() (past int, future int) {
	return s.history.Len()
}

func (s *Store) HistoryCapacity() int {
	return s.history.Capacity()
}

func (s *Store) SetEditing(editing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = editing
}

func (s *Store) IsEditing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editing
}

// Dirty true, если документ менялся после последнего сохранения.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkDirty отмечает документ как требующий сохранения, например после загрузки черновика.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		s.dirty = true
	}
}

// MarkSaved снимает признак несохраненных изменений, если документ не поменялся с момента saved.
func (s *Store) MarkSaved(saved *edtypes.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if saved == s.doc {
		s.dirty = false
	}
}

func (s *Store) InsertBlock(sectionID string, position int, block edtypes.Block) bool {
	return s.Apply(mutation.InsertBlock(sectionID, position, block))
}

func (s *Store) DeleteBlock(blockID, sectionID string) bool {
	return s.Apply(mutation.DeleteBlock(blockID, sectionID))
}

func (s *Store) MoveBlock(blockID, sourceSectionID, targetSectionID string, fromPosition, toPosition int) bool {
	return s.Apply(mutation.MoveBlock(blockID, sourceSectionID, targetSectionID, fromPosition, toPosition))
}

func (s *Store) UpdateBlockContent(blockID, sectionID string, content []edtypes.Inline) bool {
	return s.Apply(mutation.UpdateBlockContent(blockID, sectionID, content))
}

func (s *Store) UpdateBlockText(blockID, sectionID, text string) bool {
	return s.Apply(mutation.UpdateBlockText(blockID, sectionID, text))
}

func (s *Store) ApplyMark(blockID, sectionID string, inlineIndex int, mark edtypes.Mark, toggle bool) bool {
	return s.Apply(mutation.ApplyMark(blockID, sectionID, inlineIndex, mark, toggle))
}

func (s *Store) UpdateBlockAttributes(blockID, sectionID string, patch map[string]any) bool {
	return s.Apply(mutation.UpdateBlockAttributes(blockID, sectionID, patch))
}

func (s *Store) UpdateBlockMetadata(blockID, sectionID string, patch map[string]any) bool {
	return s.Apply(mutation.UpdateBlockMetadata(blockID, sectionID, patch))
}

func (s *Store) UpdateBlockData(blockID, sectionID string, data edtypes.BlockData) bool {
	return s.Apply(mutation.UpdateBlockData(blockID, sectionID, data))
}

func (s *Store) InsertSection(position int, section edtypes.Section) bool {
	return s.Apply(mutation.InsertSection(position, section))
}

func (s *Store) DeleteSection(sectionID string) bool {
	return s.Apply(mutation.DeleteSection(sectionID))
}

func (s *Store) MoveSection(sectionID string, toPosition int) bool {
	return s.Apply(mutation.MoveSection(sectionID, toPosition))
}

func (s *Store) UpdateSection(sectionID string, patch mutation.SectionPatch) bool {
	return s.Apply(mutation.UpdateSection(sectionID, patch))
}

func (s *Store) UpdateTitle(title string) bool {
	return s.Apply(mutation.UpdateTitle(title))
}
