// Пакет реализует командный слой редактора: каждое действие пользователя описывается командой,
// которая умеет выполниться, отмениться и описать себя.
//
// Основные возможности:
//   - Закрытый набор команд, по одной реализации на каждый CommandType.
//   - Команда получает хранилище сеанса при создании, глобального состояния нет.
//   - Выполнение делает ровно одну запись в истории через store.Apply.
//   - Отмена одинакова для всех команд: один шаг истории назад.
//   - Декодирование команд из JSON по типу (Decode) и исполнитель с журналом и метриками (Executor).
package commands

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
)

type CommandType string

const (
	TypeInsertBlock           CommandType = "INSERT_BLOCK"
	TypeUpdateBlockContent    CommandType = "UPDATE_BLOCK_CONTENT"
	TypeDeleteBlock           CommandType = "DELETE_BLOCK"
	TypeMoveBlock             CommandType = "MOVE_BLOCK"
	TypeApplyMark             CommandType = "APPLY_MARK"
	TypeUpdateBlockAttributes CommandType = "UPDATE_BLOCK_ATTRIBUTES"
	TypeUpdateBlockMetadata   CommandType = "UPDATE_BLOCK_METADATA"
	TypeUpdateBlockData       CommandType = "UPDATE_BLOCK_DATA"
	TypeInsertSection         CommandType = "INSERT_SECTION"
	TypeDeleteSection         CommandType = "DELETE_SECTION"
	TypeUpdateSection         CommandType = "UPDATE_SECTION"
	TypeSaveVersion           CommandType = "SAVE_VERSION"
)

var (
	ErrUnknownCommand = errors.New("unknown command type")
	ErrInvalidPayload = errors.New("invalid command payload")
	ErrNoDocument     = errors.New("no document loaded")
	ErrNoVersionStore = errors.New("version storage is not configured")
)

// Command действие редактора.
type Command interface {
	Type() CommandType
	Timestamp() time.Time
	// Execute выполняет команду. Без документа или при отсутствии цели команда ничего не делает.
	// Ошибка означает некорректные параметры или сбой внешнего хранилища.
	Execute() error
	// Undo отменяет последнее изменение истории. false, если отменять нечего.
	Undo() bool
	Describe() string

	command()
}

type base struct {
	store *store.Store
	ts    time.Time
}

func newBase(st *store.Store) base {
	return base{store: st, ts: time.Now()}
}

func (b base) Timestamp() time.Time {
	return b.ts
}

func (b base) Undo() bool {
	return b.store.Undo()
}

func (base) command() {}

// apply выполняет изменения через хранилище и отмечает режим редактирования.
func (b base) apply(t CommandType, fn func(st *store.Store) bool) {
	if !b.store.HasDocument() {
		return
	}
	if !fn(b.store) {
		slog.Debug("Command changed nothing", "type", t)
	}
	b.store.SetEditing(true)
}
