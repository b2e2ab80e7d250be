package dto

import (
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

// CommandResult ответ на выполнение команды или навигацию по истории.
type CommandResult struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Document *edtypes.Document `json:"document,omitempty"`
	History  HistoryState      `json:"history"`
}

type HistoryState struct {
	CanUndo    bool `json:"can_undo"`
	CanRedo    bool `json:"can_redo"`
	PastSize   int  `json:"past_size"`
	FutureSize int  `json:"future_size"`
	Capacity   int  `json:"capacity"`
}

type CommandLogEntry struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type History struct {
	HistoryState

	Log []CommandLogEntry `json:"log"`
}

// SessionState состояние сохранения открытого документа.
type SessionState struct {
	DocumentId string     `json:"document_id"`
	Dirty      bool       `json:"dirty"`
	Editing    bool       `json:"editing"`
	SaveStatus string     `json:"save_status"`
	LastSaved  *time.Time `json:"last_saved,omitempty"`
	Pending    int        `json:"pending_edits"`
}
