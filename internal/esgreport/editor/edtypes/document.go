package edtypes

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "draft"
	StatusInProgress DocumentStatus = "in_progress"
	StatusInReview   DocumentStatus = "in_review"
	StatusApproved   DocumentStatus = "approved"
	StatusPublished  DocumentStatus = "published"
	StatusArchived   DocumentStatus = "archived"
	StatusRejected   DocumentStatus = "rejected"
)

type Permission struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type LinkedDocumentRef struct {
	DocumentID string `json:"documentId"`
	Relation   string `json:"relation"`
	Note       string `json:"note,omitempty"`
}

type DocumentMetadata struct {
	Version         int                 `json:"version"`
	RevisionID      string              `json:"revisionId"`
	Status          DocumentStatus      `json:"status"`
	AuthorID        string              `json:"authorId"`
	Language        string              `json:"language"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	Permissions     []Permission        `json:"permissions,omitempty"`
	Tags            []string            `json:"tags,omitempty"`
	LinkedDocuments []LinkedDocumentRef `json:"linkedDocuments,omitempty"`
}

type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type PageMargin struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// PageSetup параметры страницы, только подсказка для верстки.
type PageSetup struct {
	Format      string     `json:"format"`
	CustomSize  *PageSize  `json:"customSize,omitempty"`
	Orientation string     `json:"orientation"`
	Margin      PageMargin `json:"margin"`
}

// StandardReference ссылка раздела на коды стандарта отчетности.
type StandardReference struct {
	Code      []string `json:"code"`
	Framework string   `json:"framework"`
}

type SectionAttachment struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	UploadedAt string `json:"uploadedAt"`
	UploadedBy string `json:"uploadedBy"`
}

type SectionMetadata struct {
	Owner       string              `json:"owner,omitempty"`
	Category    string              `json:"category,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Status      string              `json:"status,omitempty"`
	Attachments []SectionAttachment `json:"attachments,omitempty"`
}

func (m *SectionMetadata) Clone() *SectionMetadata {
	if m == nil {
		return nil
	}
	res := *m
	res.Tags = cloneStrings(m.Tags)
	if m.Attachments != nil {
		res.Attachments = append([]SectionAttachment(nil), m.Attachments...)
	}
	return &res
}

// Section логический раздел отчета.
type Section struct {
	ID           string              `json:"id"`
	Type         NodeType            `json:"type"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	GRIReference []StandardReference `json:"griReference,omitempty"`
	Metadata     *SectionMetadata    `json:"metadata,omitempty"`
	Blocks       []Block             `json:"blocks"`
}

func (s Section) Clone() Section {
	res := s
	res.GRIReference = cloneReferences(s.GRIReference)
	res.Metadata = s.Metadata.Clone()
	if s.Blocks != nil {
		res.Blocks = make([]Block, len(s.Blocks))
		for i, b := range s.Blocks {
			res.Blocks[i] = b.Clone()
		}
	}
	return res
}

// BlockIndex позиция блока в разделе или -1.
func (s Section) BlockIndex(blockID string) int {
	for i, b := range s.Blocks {
		if b.ID == blockID {
			return i
		}
	}
	return -1
}

// Document корень дерева отчета.
type Document struct {
	ID        string           `json:"id"`
	Type      NodeType         `json:"type"`
	Title     string           `json:"title"`
	Metadata  DocumentMetadata `json:"metadata"`
	PageSetup PageSetup        `json:"pageSetup"`
	Sections  []Section        `json:"sections"`
}

// Clone полная копия документа, не разделяющая с оригиналом ни одного изменяемого значения.
// Используется для снимков истории.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	res := *d
	res.Metadata = d.Metadata.clone()
	if d.PageSetup.CustomSize != nil {
		cs := *d.PageSetup.CustomSize
		res.PageSetup.CustomSize = &cs
	}
	if d.Sections != nil {
		res.Sections = make([]Section, len(d.Sections))
		for i, s := range d.Sections {
			res.Sections[i] = s.Clone()
		}
	}
	return &res
}

func (m DocumentMetadata) clone() DocumentMetadata {
	res := m
	if m.Permissions != nil {
		res.Permissions = append([]Permission(nil), m.Permissions...)
	}
	res.Tags = cloneStrings(m.Tags)
	if m.LinkedDocuments != nil {
		res.LinkedDocuments = append([]LinkedDocumentRef(nil), m.LinkedDocuments...)
	}
	return res
}

// SectionIndex позиция раздела или -1.
func (d *Document) SectionIndex(sectionID string) int {
	if d == nil {
		return -1
	}
	for i, s := range d.Sections {
		if s.ID == sectionID {
			return i
		}
	}
	return -1
}

func (d *Document) FindSection(sectionID string) (*Section, bool) {
	i := d.SectionIndex(sectionID)
	if i < 0 {
		return nil, false
	}
	return &d.Sections[i], true
}

// FindBlock ищет блок в указанном разделе.
func (d *Document) FindBlock(sectionID, blockID string) (*Block, bool) {
	s, ok := d.FindSection(sectionID)
	if !ok {
		return nil, false
	}
	i := s.BlockIndex(blockID)
	if i < 0 {
		return nil, false
	}
	return &s.Blocks[i], true
}

// LocateBlock ищет блок во всех разделах, возвращает индексы раздела и блока.
func (d *Document) LocateBlock(blockID string) (sectionIdx int, blockIdx int, ok bool) {
	if d == nil {
		return -1, -1, false
	}
	for si, s := range d.Sections {
		if bi := s.BlockIndex(blockID); bi >= 0 {
			return si, bi, true
		}
	}
	return -1, -1, false
}

// Stats счетчики документа, сохраняемые вместе с версией.
type Stats struct {
	Sections int `json:"sectionsCount"`
	Blocks   int `json:"blocksCount"`
	Chars    int `json:"charsCount"`
}

func (d *Document) Stats() Stats {
	var st Stats
	if d == nil {
		return st
	}
	st.Sections = len(d.Sections)
	for _, s := range d.Sections {
		st.Blocks += len(s.Blocks)
		for _, b := range s.Blocks {
			st.Chars += b.CharCount()
		}
	}
	return st
}

// Value реализует интерфейс driver.Valuer для сохранения Document в PostgreSQL JSONB.
func (d Document) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan реализует интерфейс sql.Scanner для чтения Document из PostgreSQL JSONB.
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = Document{Type: NodeDocument, Sections: make([]Section, 0)}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}

	var res Document
	if err := json.Unmarshal(bytes, &res); err != nil {
		return err
	}
	*d = res
	return nil
}

// GormDataType указывает GORM использовать тип JSONB для PostgreSQL колонок.
func (Document) GormDataType() string {
	return "jsonb"
}

func cloneReferences(in []StandardReference) []StandardReference {
	if in == nil {
		return nil
	}
	res := make([]StandardReference, len(in))
	for i, r := range in {
		res[i] = StandardReference{Code: cloneStrings(r.Code), Framework: r.Framework}
	}
	return res
}
