package commands

import (
	"fmt"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
)

// VersionSaver сохраняет именованный снимок документа и возвращает номер версии.
type VersionSaver interface {
	SaveVersion(doc *edtypes.Document, comment string, authorID string) (int, error)
}

type SaveVersionPayload struct {
	Comment  string `json:"comment" validate:"max=500"`
	AuthorID string `json:"authorId,omitempty"`
}

// SaveVersion фиксирует текущий документ как версию. История редактирования не меняется.
type SaveVersion struct {
	base
	payload  SaveVersionPayload
	versions VersionSaver

	number int
}

func NewSaveVersion(st *store.Store, versions VersionSaver, p SaveVersionPayload) (*SaveVersion, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return &SaveVersion{base: newBase(st), payload: p, versions: versions}, nil
}

func (c *SaveVersion) Type() CommandType { return TypeSaveVersion }

// Number номер созданной версии, 0 до выполнения.
func (c *SaveVersion) Number() int { return c.number }

func (c *SaveVersion) Execute() error {
	doc := c.store.Snapshot()
	if doc == nil {
		return nil
	}
	if c.versions == nil {
		return ErrNoVersionStore
	}
	n, err := c.versions.SaveVersion(doc, c.payload.Comment, c.payload.AuthorID)
	if err != nil {
		return fmt.Errorf("save version: %w", err)
	}
	c.number = n
	return nil
}

func (c *SaveVersion) Describe() string {
	if c.payload.Comment == "" {
		return "Save version"
	}
	return fmt.Sprintf("Save version %q", c.payload.Comment)
}
