package dto

import (
	"time"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

// VersionMeta метаданные версии для списка, без снимка документа.
type VersionMeta struct {
	Id            string    `json:"id"`
	VersionNumber int       `json:"version_number"`
	Comment       string    `json:"comment,omitempty"`
	IsAutoSaved   bool      `json:"is_auto_saved"`
	AuthorId      string    `json:"author_id,omitempty"`
	SectionsCount int       `json:"sections_count"`
	BlocksCount   int       `json:"blocks_count"`
	CharsCount    int       `json:"chars_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Version struct {
	VersionMeta

	DocumentId string            `json:"document_id"`
	Snapshot   *edtypes.Document `json:"snapshot_data"`
}

type VersionList struct {
	Total    int64         `json:"total"`
	HasNext  bool          `json:"has_next"`
	HasPrev  bool          `json:"has_prev"`
	Versions []VersionMeta `json:"versions"`
}

type VersionRestore struct {
	Success               bool              `json:"success"`
	Message               string            `json:"message"`
	RestoredVersionNumber int               `json:"restored_version_number"`
	BackupVersionNumber   int               `json:"backup_version_number"`
	Document              *edtypes.Document `json:"document"`
}
