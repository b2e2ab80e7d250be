// Сеансы редактирования открытых документов.
//
// Для каждого открытого документа держится свое хранилище с историей, исполнитель команд
// и отложенные правки текста. Все изменения одного документа идут через блокировку сеанса.
//
// Основные возможности:
//   - Открытие документа из базы данных или из более свежего черновика.
//   - Автосохранение измененных сеансов и запись черновика при ошибке сохранения.
//   - Закрытие простаивающих сеансов.
//   - Восстановление версии и полная замена документа с очисткой истории.
package sessions

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/commands"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/drafts"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	stack_error "github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/stack-error"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

var (
	openSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "esgreport",
		Name:      "sessions_open",
		Help:      "Number of documents currently opened for editing",
	})

	savesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esgreport",
		Name:      "session_saves_total",
		Help:      "Total count of session saves by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(openSessions, savesTotal)
}

type Options struct {
	HistoryCapacity int
	ContentDelay    time.Duration
}

type Manager struct {
	db     *gorm.DB
	drafts *drafts.Store
	opts   Options
	now    func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager создает менеджер сеансов. drafts может быть nil, тогда черновики не пишутся.
func NewManager(db *gorm.DB, draftStore *drafts.Store, opts Options) *Manager {
	return &Manager{
		db:       db,
		drafts:   draftStore,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open возвращает сеанс документа, при первом обращении загружая документ.
// Если черновик новее сохраненного документа, сеанс начинается с черновика и считается измененным.
func (m *Manager) Open(docID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[docID]; ok {
		s.touch(m.now())
		return s, nil
	}

	doc, err := dao.GetDocument(m.db, docID)
	if err != nil {
		return nil, err
	}

	content := doc.Content.Clone()
	fromDraft := false
	if m.drafts != nil {
		draft, at, ok, err := m.drafts.Get(docID.String())
		if err != nil {
			slog.Warn("Read draft", "documentId", docID, "err", err)
		} else if ok && at.After(doc.UpdatedAt) {
			draft.ID = docID.String()
			content = draft
			fromDraft = true
		}
	}

	st := store.New(store.WithHistoryCapacity(m.opts.HistoryCapacity))
	st.SetDocument(content)
	if fromDraft {
		st.MarkDirty()
		slog.Info("Session opened from draft", "documentId", docID)
	}

	exec := commands.NewExecutor(commands.Env{Store: st, Versions: dao.NewVersions(m.db)})
	s := &Session{
		DocID:  docID,
		store:  st,
		exec:   exec,
		status: StatusIdle,
	}
	s.debouncer = commands.NewContentDebouncer(exec, m.opts.ContentDelay, commands.WithLocker(&s.mu))
	s.touch(m.now())
	if !fromDraft {
		s.lastSaved = doc.UpdatedAt
	}

	m.sessions[docID] = s
	openSessions.Set(float64(len(m.sessions)))
	return s, nil
}

// Get возвращает уже открытый сеанс.
func (m *Manager) Get(docID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[docID]
	return s, ok
}

// Do выполняет fn под блокировкой сеанса, открывая его при необходимости.
func (m *Manager) Do(docID uuid.UUID, fn func(s *Session) error) error {
	s, err := m.Open(docID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// Len количество открытых сеансов.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) list() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DocID.String() < res[j].DocID.String() })
	return res
}

// save сохраняет документ сеанса, если он изменен. Вызывается под блокировкой сеанса.
func (m *Manager) save(s *Session) error {
	s.debouncer.Flush()
	if !s.store.Dirty() {
		return nil
	}

	doc := s.store.Document()
	s.setStatus(StatusSaving, time.Time{})

	if _, err := dao.SaveDocument(m.db, s.DocID, doc); err != nil {
		savesTotal.WithLabelValues("error").Inc()
		s.setStatus(StatusError, time.Time{})
		if m.drafts != nil {
			if derr := m.drafts.Put(s.DocID.String(), doc); derr != nil {
				slog.Error("Write draft", "documentId", s.DocID, "err", derr)
			}
		}
		return stack_error.TrackErrorStack(err).AddContext("document_id", s.DocID.String())
	}

	s.store.MarkSaved(doc)
	savesTotal.WithLabelValues("success").Inc()
	s.setStatus(StatusSaved, m.now())
	if m.drafts != nil {
		if err := m.drafts.Delete(s.DocID.String()); err != nil {
			slog.Warn("Delete draft", "documentId", s.DocID, "err", err)
		}
	}
	return nil
}

// Save сохраняет один открытый документ. Для неоткрытого документа ничего не делает.
func (m *Manager) Save(docID uuid.UUID) error {
	s, ok := m.Get(docID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.save(s)
}

// FlushDirty сохраняет все измененные сеансы. Возвращает количество сохраненных и все ошибки.
func (m *Manager) FlushDirty() (int, error) {
	var errs []error
	saved := 0
	for _, s := range m.list() {
		s.mu.Lock()
		dirty := s.store.Dirty() || s.debouncer.Pending() > 0
		err := m.save(s)
		s.mu.Unlock()

		if err != nil {
			errs = append(errs, err)
			continue
		}
		if dirty {
			saved++
		}
	}
	return saved, errors.Join(errs...)
}

// EvictIdle сохраняет и закрывает сеансы без обращений дольше ttl.
// Сеанс, который не удалось сохранить, остается открытым.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	deadline := m.now().Add(-ttl)
	evicted := 0
	for _, s := range m.list() {
		s.mu.Lock()
		if s.lastAccess().After(deadline) {
			s.mu.Unlock()
			continue
		}
		err := m.save(s)
		s.mu.Unlock()
		if err != nil {
			stack_error.LogError(nil, stack_error.TrackErrorStack(err))
			continue
		}

		m.drop(s.DocID)
		evicted++
		slog.Debug("Idle session closed", "documentId", s.DocID)
	}
	return evicted
}

// Close сохраняет и закрывает сеанс документа.
func (m *Manager) Close(docID uuid.UUID) error {
	s, ok := m.Get(docID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	err := m.save(s)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	m.drop(docID)
	return nil
}

// CloseAll сохраняет и закрывает все сеансы при остановке сервиса.
func (m *Manager) CloseAll() error {
	var errs []error
	for _, s := range m.list() {
		if err := m.Close(s.DocID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) drop(docID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, docID)
	openSessions.Set(float64(len(m.sessions)))
}

// Replace заменяет документ целиком. Открытый сеанс получает новый документ с пустой историей.
func (m *Manager) Replace(docID uuid.UUID, doc *edtypes.Document) (*dao.Document, error) {
	if s, ok := m.Get(docID); ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.debouncer.Flush()

		saved, err := dao.SaveDocument(m.db, docID, doc)
		if err != nil {
			return nil, err
		}
		s.store.SetDocument(saved.Content.Clone())
		s.setStatus(StatusSaved, m.now())
		m.dropDraft(docID)
		return saved, nil
	}

	saved, err := dao.SaveDocument(m.db, docID, doc)
	if err != nil {
		return nil, err
	}
	m.dropDraft(docID)
	return saved, nil
}

// Restore восстанавливает версию документа. Несохраненные изменения открытого сеанса
// сначала сохраняются, чтобы попасть в резервную версию.
func (m *Manager) Restore(docID, versionID uuid.UUID, authorID string) (*dao.RestoreResult, error) {
	s, open := m.Get(docID)
	if open {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := m.save(s); err != nil {
			return nil, err
		}
	}

	res, err := dao.RestoreVersion(m.db, docID, versionID, authorID)
	if err != nil {
		return nil, err
	}
	if open {
		s.store.SetDocument(res.Document.Content.Clone())
		s.setStatus(StatusSaved, m.now())
	}
	slog.Info("Version restored", "documentId", docID, "version", res.RestoredNumber, "backup", res.BackupNumber)
	return res, nil
}

// Delete закрывает сеанс без сохранения и удаляет документ с черновиком.
func (m *Manager) Delete(docID uuid.UUID) error {
	if err := dao.DeleteDocument(m.db, docID); err != nil {
		return err
	}
	if _, ok := m.Get(docID); ok {
		m.drop(docID)
	}
	m.dropDraft(docID)
	return nil
}

func (m *Manager) dropDraft(docID uuid.UUID) {
	if m.drafts == nil {
		return
	}
	if err := m.drafts.Delete(docID.String()); err != nil {
		slog.Warn("Delete draft", "documentId", docID, "err", err)
	}
}

// State состояние сохранения документа. Для неоткрытого документа ErrSessionNotOpened.
func (m *Manager) State(docID uuid.UUID) (dto.SessionState, error) {
	s, ok := m.Get(docID)
	if !ok {
		return dto.SessionState{}, apierrors.ErrSessionNotOpened
	}
	return s.State(), nil
}
