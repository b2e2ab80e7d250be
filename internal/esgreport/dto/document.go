// Структуры данных (DTO), которые HTTP слой отдает клиенту редактора.
//
// Основные возможности:
//   - Документ отчета с деревом разделов и блоков.
//   - Краткое описание документа для списков.
//   - Метаданные и содержимое версий, ответы на восстановление версии.
//   - Состояние истории правок сеанса.
package dto

import (
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

type DocumentLight struct {
	Id       string   `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	AuthorId string   `json:"author_id,omitempty"`
	Tags     []string `json:"tags"`
	Version  int      `json:"version"`

	SectionsCount int `json:"sections_count"`
	BlocksCount   int `json:"blocks_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Document struct {
	DocumentLight

	Content *edtypes.Document `json:"content"`
}

type DocumentList struct {
	Count  int64           `json:"count"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Result []DocumentLight `json:"result"`
}
