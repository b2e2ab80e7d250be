package dao

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"gorm.io/gorm"
)

const MaxVersionComment = 500

// DocumentVersion именованный снимок документа.
type DocumentVersion struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DocumentID    uuid.UUID `json:"document_id" gorm:"type:uuid;uniqueIndex:document_version_number"`
	VersionNumber int       `json:"version_number" gorm:"uniqueIndex:document_version_number"`
	Comment       string    `json:"comment"`
	IsAutoSaved   bool      `json:"is_auto_saved" gorm:"index"`
	AuthorID      string    `json:"author_id"`

	SectionsCount int `json:"sections_count"`
	BlocksCount   int `json:"blocks_count"`
	CharsCount    int `json:"chars_count"`

	Snapshot edtypes.Document `json:"snapshot_data"`
}

func (DocumentVersion) TableName() string { return "report_document_versions" }

func (v *DocumentVersion) ToMetaDTO() dto.VersionMeta {
	return dto.VersionMeta{
		Id:            v.ID.String(),
		VersionNumber: v.VersionNumber,
		Comment:       v.Comment,
		IsAutoSaved:   v.IsAutoSaved,
		AuthorId:      v.AuthorID,
		SectionsCount: v.SectionsCount,
		BlocksCount:   v.BlocksCount,
		CharsCount:    v.CharsCount,
		CreatedAt:     v.CreatedAt,
	}
}

func (v *DocumentVersion) ToDTO() *dto.Version {
	if v == nil {
		return nil
	}
	return &dto.Version{
		VersionMeta: v.ToMetaDTO(),
		DocumentId:  v.DocumentID.String(),
		Snapshot:    v.Snapshot.Clone(),
	}
}

// CreateVersion сохраняет снимок документа с номером на единицу больше последнего.
//
// Параметры:
//   - db: соединение с базой данных.
//   - docID: документ, к которому относится версия.
//   - snapshot: состояние документа; если nil, берется сохраненное содержимое документа.
//   - comment: описание версии, не длиннее MaxVersionComment символов.
//   - autoSaved: версия создана автоматически.
//   - authorID: автор версии.
//
// Возвращает:
//   - *DocumentVersion: созданная версия.
//   - error: ErrDocumentNotFound, ErrVersionCommentLength или ошибка базы данных.
func CreateVersion(db *gorm.DB, docID uuid.UUID, snapshot *edtypes.Document, comment string, autoSaved bool, authorID string) (*DocumentVersion, error) {
	if len([]rune(comment)) > MaxVersionComment {
		return nil, apierrors.ErrVersionCommentLength
	}

	var res *DocumentVersion
	err := db.Transaction(func(tx *gorm.DB) error {
		doc, err := GetDocument(tx, docID)
		if err != nil {
			return err
		}
		if snapshot == nil {
			snapshot = &doc.Content
		}

		var maxNumber int
		if err := tx.Model(&DocumentVersion{}).
			Select("COALESCE(MAX(version_number), 0)").
			Where("document_id = ?", docID).
			Scan(&maxNumber).Error; err != nil {
			return err
		}

		content := snapshot.Clone()
		content.ID = docID.String()
		st := content.Stats()
		v := DocumentVersion{
			ID:            GenUUID(),
			DocumentID:    docID,
			VersionNumber: maxNumber + 1,
			Comment:       comment,
			IsAutoSaved:   autoSaved,
			AuthorID:      authorID,
			SectionsCount: st.Sections,
			BlocksCount:   st.Blocks,
			CharsCount:    st.Chars,
			Snapshot:      *content,
		}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		res = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListVersions версии документа от новых к старым, без снимков.
func ListVersions(db *gorm.DB, docID uuid.UUID, offset, limit int, includeAuto bool) (dto.VersionList, error) {
	query := db.Omit("snapshot").
		Where("document_id = ?", docID).
		Order("version_number desc")
	if !includeAuto {
		query = query.Where("is_auto_saved = ?", false)
	}

	page, err := PaginationRequest[DocumentVersion](offset, limit, query)
	if err != nil {
		return dto.VersionList{}, err
	}

	res := dto.VersionList{
		Total:    page.Count,
		HasNext:  int64(offset+limit) < page.Count,
		HasPrev:  offset > 0,
		Versions: make([]dto.VersionMeta, 0, len(page.Result)),
	}
	for i := range page.Result {
		res.Versions = append(res.Versions, page.Result[i].ToMetaDTO())
	}
	return res, nil
}

// GetVersion версия документа. Версия другого документа считается ненайденной.
func GetVersion(db *gorm.DB, docID, versionID uuid.UUID) (*DocumentVersion, error) {
	var res DocumentVersion
	if err := db.Where("id = ? AND document_id = ?", versionID, docID).First(&res).Error; err != nil {
		return nil, notFound(err, apierrors.ErrVersionNotFound)
	}
	return &res, nil
}

// RestoreResult итог восстановления версии.
type RestoreResult struct {
	RestoredNumber int
	BackupNumber   int
	Document       *Document
}

// RestoreVersion сначала сохраняет текущее содержимое автоматической резервной версией,
// затем заменяет документ снимком выбранной версии.
func RestoreVersion(db *gorm.DB, docID, versionID uuid.UUID, authorID string) (*RestoreResult, error) {
	var res RestoreResult
	err := db.Transaction(func(tx *gorm.DB) error {
		version, err := GetVersion(tx, docID, versionID)
		if err != nil {
			return err
		}

		backup, err := CreateVersion(tx, docID, nil,
			fmt.Sprintf("Auto-backup before restore to v%d", version.VersionNumber), true, authorID)
		if err != nil {
			return err
		}

		doc, err := SaveDocument(tx, docID, &version.Snapshot)
		if err != nil {
			return err
		}

		res = RestoreResult{
			RestoredNumber: version.VersionNumber,
			BackupNumber:   backup.VersionNumber,
			Document:       doc,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteVersion удаляет версию. Последнюю версию удалить нельзя, чужую версию тоже.
func DeleteVersion(db *gorm.DB, docID, versionID uuid.UUID, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		version, err := GetVersion(tx, docID, versionID)
		if err != nil {
			return err
		}

		var maxNumber int
		if err := tx.Model(&DocumentVersion{}).
			Select("COALESCE(MAX(version_number), 0)").
			Where("document_id = ?", docID).
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		if version.VersionNumber == maxNumber {
			return apierrors.ErrDeleteLatestVersion
		}
		if userID != "" && version.AuthorID != "" && version.AuthorID != userID {
			return apierrors.ErrVersionForbidden
		}

		return tx.Delete(version).Error
	})
}

// PruneAutoSavedVersions оставляет у каждого документа не больше keep последних автоматических версий.
// Последняя версия документа не удаляется.
func PruneAutoSavedVersions(db *gorm.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	var docIDs []uuid.UUID
	if err := db.Model(&DocumentVersion{}).
		Distinct("document_id").
		Where("is_auto_saved = ?", true).
		Pluck("document_id", &docIDs).Error; err != nil {
		return 0, err
	}

	var total int64
	for _, docID := range docIDs {
		var latest int
		if err := db.Model(&DocumentVersion{}).
			Select("COALESCE(MAX(version_number), 0)").
			Where("document_id = ?", docID).
			Scan(&latest).Error; err != nil {
			return total, err
		}

		var ids []uuid.UUID
		if err := db.Model(&DocumentVersion{}).
			Where("document_id = ? AND is_auto_saved = ? AND version_number < ?", docID, true, latest).
			Order("version_number desc").
			Pluck("id", &ids).Error; err != nil {
			return total, err
		}
		if len(ids) <= keep {
			continue
		}
		stale := ids[keep:]

		tx := db.Where("id IN ?", stale).Delete(&DocumentVersion{})
		if tx.Error != nil {
			return total, tx.Error
		}
		total += tx.RowsAffected
		slog.Debug("Pruned auto-saved versions", "documentId", docID, "count", tx.RowsAffected)
	}
	return total, nil
}

// Versions сохраняет версии документов по запросу команды SAVE_VERSION.
type Versions struct {
	db *gorm.DB
}

func NewVersions(db *gorm.DB) *Versions {
	return &Versions{db: db}
}

func (v *Versions) SaveVersion(doc *edtypes.Document, comment string, authorID string) (int, error) {
	id, err := ParseID(doc.ID)
	if err != nil {
		return 0, err
	}
	version, err := CreateVersion(v.db, id, doc, comment, false, authorID)
	if err != nil {
		return 0, err
	}
	return version.VersionNumber, nil
}
