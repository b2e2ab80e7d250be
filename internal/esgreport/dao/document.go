package dao

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"gorm.io/gorm"
)

// Document отчет. Дерево разделов и блоков хранится целиком в Content (jsonb),
// заголовок, статус и теги продублированы в колонках для списков и поиска.
type Document struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string `json:"title" gorm:"index"`
	Status   string `json:"status" gorm:"index"`
	AuthorID string `json:"author_id" gorm:"index"`
	Tags     Tags   `json:"tags"`
	Version  int    `json:"version"`

	SectionsCount int `json:"sections_count"`
	BlocksCount   int `json:"blocks_count"`

	Content edtypes.Document `json:"content"`
}

func (Document) TableName() string { return "report_documents" }

// BeforeDelete удаляет версии документа вместе с ним.
func (d *Document) BeforeDelete(tx *gorm.DB) error {
	return tx.Where("document_id = ?", d.ID).Delete(&DocumentVersion{}).Error
}

// syncColumns переносит поля из дерева документа в колонки.
func (d *Document) syncColumns() {
	d.Content.ID = d.ID.String()
	d.Title = d.Content.Title
	d.Status = string(d.Content.Metadata.Status)
	if d.Content.Metadata.AuthorID != "" {
		d.AuthorID = d.Content.Metadata.AuthorID
	}
	d.Tags = Tags(d.Content.Metadata.Tags)
	d.Version = d.Content.Metadata.Version
	st := d.Content.Stats()
	d.SectionsCount = st.Sections
	d.BlocksCount = st.Blocks
}

func (d *Document) ToLightDTO() *dto.DocumentLight {
	if d == nil {
		return nil
	}
	tags := []string(d.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &dto.DocumentLight{
		Id:            d.ID.String(),
		Title:         d.Title,
		Status:        d.Status,
		AuthorId:      d.AuthorID,
		Tags:          tags,
		Version:       d.Version,
		SectionsCount: d.SectionsCount,
		BlocksCount:   d.BlocksCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (d *Document) ToDTO() *dto.Document {
	if d == nil {
		return nil
	}
	content := d.Content.Clone()
	return &dto.Document{
		DocumentLight: *d.ToLightDTO(),
		Content:       content,
	}
}

func validateDocument(doc *edtypes.Document) error {
	if strings.TrimSpace(doc.Title) == "" {
		return apierrors.ErrDocumentTitleEmpty
	}
	if err := doc.Validate(); err != nil {
		return apierrors.ErrDocumentInvalid.WithFormattedMessage(err.Error())
	}
	return nil
}

// CreateDocument сохраняет новый документ. Если у дерева нет корректного UUID, он назначается заново.
//
// Параметры:
//   - db: соединение с базой данных.
//   - doc: дерево документа; не изменяется.
//   - authorID: автор, если не указан в метаданных.
//
// Возвращает:
//   - *Document: сохраненная запись.
//   - error: ErrDocumentTitleEmpty, ErrDocumentInvalid или ошибка базы данных.
func CreateDocument(db *gorm.DB, doc *edtypes.Document, authorID string) (*Document, error) {
	if doc == nil {
		return nil, apierrors.ErrDocumentInvalid.WithFormattedMessage("empty document")
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	id, err := uuid.FromString(doc.ID)
	if err != nil || id.IsNil() {
		id = GenUUID()
	}

	content := doc.Clone()
	if content.Metadata.AuthorID == "" {
		content.Metadata.AuthorID = authorID
	}
	if content.Metadata.Version <= 0 {
		content.Metadata.Version = 1
	}

	res := Document{ID: id, AuthorID: authorID, Content: *content}
	res.syncColumns()
	if err := db.Create(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func GetDocument(db *gorm.DB, id uuid.UUID) (*Document, error) {
	var res Document
	if err := db.Where("id = ?", id).First(&res).Error; err != nil {
		return nil, notFound(err, apierrors.ErrDocumentNotFound)
	}
	res.Content.ID = res.ID.String()
	return &res, nil
}

// ListDocuments список документов от последних измененных, без содержимого.
func ListDocuments(db *gorm.DB, offset, limit int) (PaginationResponse[Document], error) {
	query := db.Omit("content").Order("updated_at desc")
	return PaginationRequest[Document](offset, limit, query)
}

// SaveDocument сохраняет дерево документа целиком поверх текущего и увеличивает metadata.version.
func SaveDocument(db *gorm.DB, id uuid.UUID, doc *edtypes.Document) (*Document, error) {
	if doc == nil {
		return nil, apierrors.ErrDocumentInvalid.WithFormattedMessage("empty document")
	}
	if doc.ID != "" && doc.ID != id.String() {
		return nil, apierrors.ErrDocumentIDMismatch
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var res *Document
	err := db.Transaction(func(tx *gorm.DB) error {
		current, err := GetDocument(tx, id)
		if err != nil {
			return err
		}

		content := doc.Clone()
		content.Metadata.Version = current.Content.Metadata.Version + 1
		content.Metadata.RevisionID = edtypes.NewID()
		if content.Metadata.CreatedAt.IsZero() {
			content.Metadata.CreatedAt = current.Content.Metadata.CreatedAt
		}
		content.Metadata.UpdatedAt = time.Now().UTC()

		current.Content = *content
		current.syncColumns()
		if err := tx.Save(current).Error; err != nil {
			return err
		}
		res = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func DeleteDocument(db *gorm.DB, id uuid.UUID) error {
	doc, err := GetDocument(db, id)
	if err != nil {
		return err
	}
	return db.Delete(doc).Error
}
