package sessions

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/commands"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
)

// Session открытый документ. Изменения выполняются внутри Manager.Do.
type Session struct {
	DocID uuid.UUID

	mu        sync.Mutex
	store     *store.Store
	exec      *commands.Executor
	debouncer *commands.ContentDebouncer

	stMu      sync.Mutex
	access    time.Time
	status    SaveStatus
	lastSaved time.Time
}

func (s *Session) Store() *store.Store { return s.store }

func (s *Session) Executor() *commands.Executor { return s.exec }

// Dispatch выполняет команду по типу. Отложенные правки текста выполняются раньше нее.
func (s *Session) Dispatch(t commands.CommandType, payload json.RawMessage) commands.Result {
	s.debouncer.Flush()
	return s.exec.Dispatch(t, payload)
}

// UpdateContent заменяет текст блока сразу или, если debounced, после паузы в наборе.
func (s *Session) UpdateContent(p commands.UpdateBlockContentPayload, debounced bool) commands.Result {
	if debounced {
		s.debouncer.Submit(p)
		return commands.Result{Success: true}
	}
	s.debouncer.Flush()
	cmd, err := commands.NewUpdateBlockContent(s.store, p)
	if err != nil {
		return commands.Result{Success: false, Error: err.Error()}
	}
	return s.exec.Execute(cmd)
}

func (s *Session) Undo() bool {
	s.debouncer.Flush()
	return s.exec.Undo()
}

func (s *Session) Redo() bool {
	s.debouncer.Flush()
	return s.exec.Redo()
}

// History состояние истории и журнал команд.
func (s *Session) History() dto.History {
	log := s.exec.Log()
	res := dto.History{
		HistoryState: s.HistoryState(),
		Log:          make([]dto.CommandLogEntry, 0, len(log)),
	}
	for _, e := range log {
		res.Log = append(res.Log, dto.CommandLogEntry{
			Type:        string(e.Type),
			Description: e.Description,
			Timestamp:   e.Timestamp,
		})
	}
	return res
}

func (s *Session) HistoryState() dto.HistoryState {
	past, future := s.exec.HistorySize()
	return dto.HistoryState{
		CanUndo:    s.exec.CanUndo(),
		CanRedo:    s.exec.CanRedo(),
		PastSize:   past,
		FutureSize: future,
		Capacity:   s.store.HistoryCapacity(),
	}
}

// Result ответ клиенту: итог команды, документ и состояние истории.
func (s *Session) Result(res commands.Result) dto.CommandResult {
	return dto.CommandResult{
		Success:  res.Success,
		Error:    res.Error,
		Document: s.store.Document(),
		History:  s.HistoryState(),
	}
}

func (s *Session) State() dto.SessionState {
	s.stMu.Lock()
	defer s.stMu.Unlock()

	res := dto.SessionState{
		DocumentId: s.DocID.String(),
		Dirty:      s.store.Dirty(),
		Editing:    s.store.IsEditing(),
		SaveStatus: string(s.status),
		Pending:    s.debouncer.Pending(),
	}
	if !s.lastSaved.IsZero() {
		t := s.lastSaved
		res.LastSaved = &t
	}
	return res
}

func (s *Session) touch(now time.Time) {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	s.access = now
}

func (s *Session) lastAccess() time.Time {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	return s.access
}

// setStatus меняет статус сохранения; ненулевое savedAt обновляет время последнего сохранения.
func (s *Session) setStatus(status SaveStatus, savedAt time.Time) {
	s.stMu.Lock()
	defer s.stMu.Unlock()
	s.status = status
	if !savedAt.IsZero() {
		s.lastSaved = savedAt
	}
}
