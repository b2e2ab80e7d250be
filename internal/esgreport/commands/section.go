package commands

import (
	"fmt"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/mutation"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
)

type InsertSectionPayload struct {
	Position int              `json:"position"`
	Section  *edtypes.Section `json:"section,omitempty"`
	Title    string           `json:"title,omitempty"`
}

// InsertSection вставляет раздел. Без готового раздела создается пустой раздел с заголовком Title.
type InsertSection struct {
	base
	payload InsertSectionPayload
	section edtypes.Section
}

func NewInsertSection(st *store.Store, p InsertSectionPayload) (*InsertSection, error) {
	var section edtypes.Section
	if p.Section != nil {
		section = p.Section.Clone()
		if section.ID == "" {
			section.ID = edtypes.NewID()
		}
		section.Type = edtypes.NodeSection
		for _, b := range section.Blocks {
			if err := b.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
			}
		}
	} else {
		section = edtypes.NewEmptySection(p.Title)
	}
	return &InsertSection{base: newBase(st), payload: p, section: section}, nil
}

func (c *InsertSection) Type() CommandType { return TypeInsertSection }

// SectionID идентификатор вставляемого раздела.
func (c *InsertSection) SectionID() string { return c.section.ID }

func (c *InsertSection) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.InsertSection(c.payload.Position, c.section)
	})
	return nil
}

func (c *InsertSection) Describe() string {
	return fmt.Sprintf("Insert section %q at position %d", c.section.Title, c.payload.Position)
}

type DeleteSectionPayload struct {
	SectionID string `json:"sectionId" validate:"required"`
}

type DeleteSection struct {
	base
	payload DeleteSectionPayload
}

func NewDeleteSection(st *store.Store, p DeleteSectionPayload) (*DeleteSection, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return &DeleteSection{base: newBase(st), payload: p}, nil
}

func (c *DeleteSection) Type() CommandType { return TypeDeleteSection }

func (c *DeleteSection) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.DeleteSection(c.payload.SectionID)
	})
	return nil
}

func (c *DeleteSection) Describe() string {
	return fmt.Sprintf("Delete section %s", c.payload.SectionID)
}

type UpdateSectionPayload struct {
	SectionID string `json:"sectionId" validate:"required"`
	mutation.SectionPatch
	// Position перемещает раздел, если задана
	Position *int `json:"position,omitempty"`
}

// UpdateSection меняет поля раздела и, при необходимости, его позицию одним действием.
type UpdateSection struct {
	base
	payload UpdateSectionPayload
}

func NewUpdateSection(st *store.Store, p UpdateSectionPayload) (*UpdateSection, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	if p.SectionPatch.Empty() && p.Position == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidPayload)
	}
	return &UpdateSection{base: newBase(st), payload: p}, nil
}

func (c *UpdateSection) Type() CommandType { return TypeUpdateSection }

func (c *UpdateSection) Execute() error {
	p := c.payload
	c.apply(c.Type(), func(st *store.Store) bool {
		muts := []mutation.Mutation{mutation.UpdateSection(p.SectionID, p.SectionPatch)}
		if p.Position != nil {
			muts = append(muts, mutation.MoveSection(p.SectionID, *p.Position))
		}
		return st.Apply(muts...)
	})
	return nil
}

func (c *UpdateSection) Describe() string {
	return fmt.Sprintf("Update section %s", c.payload.SectionID)
}
