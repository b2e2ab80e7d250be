package mutation

import (
	"log/slog"
	"slices"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

// SectionPatch изменяемые поля раздела. nil означает "не менять".
type SectionPatch struct {
	Title        *string                     `json:"title,omitempty"`
	Description  *string                     `json:"description,omitempty"`
	Metadata     *edtypes.SectionMetadata    `json:"metadata,omitempty"`
	GRIReference []edtypes.StandardReference `json:"griReference,omitempty"`
}

func (p SectionPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Metadata == nil && p.GRIReference == nil
}

// InsertSection вставляет раздел в позицию, приведенную к [0, len]. Раздел, в котором
// идентификатор любого узла занят в документе или повторяется, не вставляется.
func InsertSection(position int, section edtypes.Section) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		if doc == nil {
			return doc, false
		}
		s := section.Clone()
		if s.ID == "" {
			s.ID = edtypes.NewID()
		}
		s.Type = edtypes.NodeSection
		if s.Blocks == nil {
			s.Blocks = []edtypes.Block{}
		}
		if id, taken := takenID(doc, s.NodeIDs()); taken {
			slog.Warn("Node id already exists", "sectionId", s.ID, "nodeId", id)
			return doc, false
		}

		res := *doc
		res.Sections = slices.Insert(slices.Clone(doc.Sections), clamp(position, len(doc.Sections)), s)
		return &res, true
	}
}

func DeleteSection(sectionID string) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si := doc.SectionIndex(sectionID)
		if si < 0 {
			missing("deleteSection", "sectionId", sectionID)
			return doc, false
		}
		res := *doc
		res.Sections = slices.Delete(slices.Clone(doc.Sections), si, si+1)
		return &res, true
	}
}

// MoveSection меняет позицию раздела в документе.
func MoveSection(sectionID string, toPosition int) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si := doc.SectionIndex(sectionID)
		if si < 0 {
			missing("moveSection", "sectionId", sectionID)
			return doc, false
		}
		to := clamp(toPosition, len(doc.Sections)-1)
		if to == si {
			return doc, false
		}
		res := *doc
		moved := doc.Sections[si]
		rest := slices.Delete(slices.Clone(doc.Sections), si, si+1)
		res.Sections = slices.Insert(rest, to, moved)
		return &res, true
	}
}

func UpdateSection(sectionID string, patch SectionPatch) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si := doc.SectionIndex(sectionID)
		if si < 0 {
			missing("updateSection", "sectionId", sectionID)
			return doc, false
		}
		if patch.Empty() {
			return doc, false
		}
		return withSection(doc, si, func(s edtypes.Section) edtypes.Section {
			if patch.Title != nil {
				s.Title = *patch.Title
			}
			if patch.Description != nil {
				s.Description = *patch.Description
			}
			if patch.Metadata != nil {
				s.Metadata = patch.Metadata.Clone()
			}
			if patch.GRIReference != nil {
				s.GRIReference = slices.Clone(patch.GRIReference)
			}
			return s
		}), true
	}
}

// UpdateTitle меняет заголовок документа.
func UpdateTitle(title string) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		if doc == nil || doc.Title == title {
			return doc, false
		}
		res := *doc
		res.Title = title
		return &res, true
	}
}
