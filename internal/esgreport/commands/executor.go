package commands

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultLogSize сколько последних выполненных команд хранит журнал.
const DefaultLogSize = 50

var (
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esgreport",
		Name:      "commands_total",
		Help:      "Total count of executed editor commands by type and result",
	}, []string{"type", "result"})

	historyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "esgreport",
		Name:      "history_total",
		Help:      "Total count of undo/redo requests by action and result",
	}, []string{"action", "result"})
)

func init() {
	prometheus.MustRegister(commandsTotal, historyTotal)
}

// Result итог выполнения команды.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// LogEntry запись журнала выполненных команд.
type LogEntry struct {
	Type        CommandType `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description"`
}

// Executor выполняет команды над одним хранилищем и ведет журнал.
type Executor struct {
	env     Env
	mu      sync.Mutex
	log     []LogEntry
	logSize int
}

func NewExecutor(env Env) *Executor {
	return &Executor{env: env, logSize: DefaultLogSize}
}

func (e *Executor) Store() *store.Store {
	return e.env.Store
}

// Execute выполняет готовую команду.
func (e *Executor) Execute(cmd Command) Result {
	if !e.env.Store.HasDocument() {
		commandsTotal.WithLabelValues(string(cmd.Type()), "no_document").Inc()
		return Result{Success: false, Error: ErrNoDocument.Error()}
	}

	if err := cmd.Execute(); err != nil {
		slog.Error("Command execution failed", "type", cmd.Type(), "err", err)
		commandsTotal.WithLabelValues(string(cmd.Type()), "error").Inc()
		return Result{Success: false, Error: err.Error()}
	}

	desc := cmd.Describe()
	slog.Debug("Command executed", "type", cmd.Type(), "description", desc)
	commandsTotal.WithLabelValues(string(cmd.Type()), "success").Inc()

	e.mu.Lock()
	e.log = append(e.log, LogEntry{Type: cmd.Type(), Timestamp: cmd.Timestamp(), Description: desc})
	if over := len(e.log) - e.logSize; over > 0 {
		e.log = append([]LogEntry(nil), e.log[over:]...)
	}
	e.mu.Unlock()

	return Result{Success: true}
}

// Dispatch создает команду по типу и выполняет ее.
func (e *Executor) Dispatch(t CommandType, payload []byte) Result {
	cmd, err := Decode(e.env, t, payload)
	if err != nil {
		if errors.Is(err, ErrUnknownCommand) {
			slog.Error("Unknown command type", "type", t)
			commandsTotal.WithLabelValues("unknown", "error").Inc()
		} else {
			slog.Warn("Decode command", "type", t, "err", err)
			commandsTotal.WithLabelValues(string(t), "invalid").Inc()
		}
		return Result{Success: false, Error: err.Error()}
	}
	return e.Execute(cmd)
}

// Undo отменяет последнее изменение. false, если отменять нечего.
func (e *Executor) Undo() bool {
	if !e.env.Store.Undo() {
		slog.Warn("Nothing to undo")
		historyTotal.WithLabelValues("undo", "empty").Inc()
		return false
	}
	historyTotal.WithLabelValues("undo", "success").Inc()
	return true
}

// Redo повторяет отмененное изменение. false, если повторять нечего.
func (e *Executor) Redo() bool {
	if !e.env.Store.Redo() {
		slog.Warn("Nothing to redo")
		historyTotal.WithLabelValues("redo", "empty").Inc()
		return false
	}
	historyTotal.WithLabelValues("redo", "success").Inc()
	return true
}

func (e *Executor) CanUndo() bool {
	return e.env.Store.CanUndo()
}

func (e *Executor) CanRedo() bool {
	return e.env.Store.CanRedo()
}

// HistorySize размеры стеков отмены и повтора.
func (e *Executor) HistorySize() (past int, future int) {
	return e.env.Store.HistoryLen()
}

// Log копия журнала, от старых записей к новым.
func (e *Executor) Log() []LogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]LogEntry(nil), e.log...)
}
