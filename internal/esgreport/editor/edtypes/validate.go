package edtypes

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyID          = errors.New("node id is empty")
	ErrDuplicateID      = errors.New("duplicate node id")
	ErrContentMismatch  = errors.New("block content does not match block type")
	ErrInvalidMark      = errors.New("invalid mark")
	ErrDuplicateMark    = errors.New("duplicate mark")
	ErrUnknownBlockType = errors.New("unknown block type")
)

type idSet map[string]struct{}

func (s idSet) add(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s: %w", kind, ErrEmptyID)
	}
	if _, ok := s[id]; ok {
		return fmt.Errorf("%s %s: %w", kind, id, ErrDuplicateID)
	}
	s[id] = struct{}{}
	return nil
}

// Validate проверяет инварианты дерева: уникальность идентификаторов,
// соответствие содержимого виду блока и корректность марок.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New("document is nil")
	}
	ids := idSet{}
	if err := ids.add("document", d.ID); err != nil {
		return err
	}
	for _, s := range d.Sections {
		if err := ids.add("section", s.ID); err != nil {
			return err
		}
		for _, b := range s.Blocks {
			if err := b.validate(ids); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate проверяет отдельный блок.
func (b Block) Validate() error {
	return b.validate(idSet{})
}

func (b Block) validate(ids idSet) error {
	if err := ids.add("block", b.ID); err != nil {
		return err
	}
	if _, ok := ParseBlockType(string(b.BlockType)); !ok {
		return fmt.Errorf("block %s %q: %w", b.ID, b.BlockType, ErrUnknownBlockType)
	}

	switch b.BlockType.ContentKind() {
	case ContentInline:
		if len(b.Children) > 0 || b.Data != nil {
			return fmt.Errorf("block %s: %w", b.ID, ErrContentMismatch)
		}
	case ContentItems:
		if len(b.Content) > 0 || b.Data != nil {
			return fmt.Errorf("block %s: %w", b.ID, ErrContentMismatch)
		}
	case ContentData:
		if len(b.Content) > 0 || len(b.Children) > 0 || b.Data == nil || b.Data.BlockType() != b.BlockType {
			return fmt.Errorf("block %s: %w", b.ID, ErrContentMismatch)
		}
	}

	if err := validateInlines(ids, b.Content); err != nil {
		return err
	}
	for _, li := range b.Children {
		if err := ids.add("list item", li.ID); err != nil {
			return err
		}
		if err := validateInlines(ids, li.Content); err != nil {
			return err
		}
	}
	return nil
}

func validateInlines(ids idSet, runs []Inline) error {
	for _, r := range runs {
		if err := ids.add("inline", r.ID); err != nil {
			return err
		}
		seen := make(map[Mark]bool, len(r.Marks))
		for _, m := range r.Marks {
			if !m.Valid() {
				return fmt.Errorf("inline %s %q: %w", r.ID, m, ErrInvalidMark)
			}
			if seen[m] {
				return fmt.Errorf("inline %s %q: %w", r.ID, m, ErrDuplicateMark)
			}
			seen[m] = true
		}
	}
	return nil
}

// NodeIDs идентификаторы блока и всех вложенных узлов: элементов списка и фрагментов.
func (b Block) NodeIDs() []string {
	res := make([]string, 0, 1+len(b.Content)+len(b.Children))
	res = append(res, b.ID)
	for _, r := range b.Content {
		res = append(res, r.ID)
	}
	for _, li := range b.Children {
		res = append(res, li.ID)
		for _, r := range li.Content {
			res = append(res, r.ID)
		}
	}
	return res
}

// NodeIDs идентификаторы раздела и всех его блоков с вложенными узлами.
func (s Section) NodeIDs() []string {
	res := []string{s.ID}
	for _, b := range s.Blocks {
		res = append(res, b.NodeIDs()...)
	}
	return res
}

// NodeIDs множество идентификаторов всех узлов документа, включая сам документ.
func (d *Document) NodeIDs() map[string]struct{} {
	res := map[string]struct{}{}
	if d == nil {
		return res
	}
	res[d.ID] = struct{}{}
	for _, s := range d.Sections {
		for _, id := range s.NodeIDs() {
			res[id] = struct{}{}
		}
	}
	return res
}
