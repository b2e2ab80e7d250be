package commands

import (
	"fmt"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
)

type InsertBlockPayload struct {
	SectionID string            `json:"sectionId" validate:"required"`
	Position  int               `json:"position"`
	Block     *edtypes.Block    `json:"block,omitempty"`
	BlockType edtypes.BlockType `json:"blockType,omitempty"`
}

// InsertBlock вставляет блок. Если в параметрах только вид блока, создается пустой блок этого вида.
type InsertBlock struct {
	base
	payload InsertBlockPayload
	block   edtypes.Block
}

func NewInsertBlock(st *store.Store, p InsertBlockPayload) (*InsertBlock, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}

	var block edtypes.Block
	switch {
	case p.Block != nil:
		block = p.Block.Clone()
		if block.ID == "" {
			block.ID = edtypes.NewID()
		}
		if block.Type == "" {
			block.Type = edtypes.NodeBlock
		}
	case p.BlockType != "":
		bt, ok := edtypes.ParseBlockType(string(p.BlockType))
		if !ok {
			return nil, fmt.Errorf("%w: unknown block type %q", ErrInvalidPayload, p.BlockType)
		}
		block = edtypes.NewEmptyBlock(bt)
	default:
		return nil, fmt.Errorf("%w: block or blockType required", ErrInvalidPayload)
	}
	if err := block.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &InsertBlock{base: newBase(st), payload: p, block: block}, nil
}

func (c *InsertBlock) Type() CommandType { return TypeInsertBlock }

// BlockID идентификатор вставляемого блока.
func (c *InsertBlock) BlockID() string { return c.block.ID }

func (c *InsertBlock) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.InsertBlock(c.payload.SectionID, c.payload.Position, c.block)
	})
	return nil
}

func (c *InsertBlock) Describe() string {
	return fmt.Sprintf("Insert %s block at position %d in section %s", c.block.BlockType, c.payload.Position, c.payload.SectionID)
}

type UpdateBlockContentPayload struct {
	SectionID string           `json:"sectionId" validate:"required"`
	BlockID   string           `json:"blockId" validate:"required"`
	Content   []edtypes.Inline `json:"content"`
}

type UpdateBlockContent struct {
	base
	payload UpdateBlockContentPayload
}

func NewUpdateBlockContent(st *store.Store, p UpdateBlockContentPayload) (*UpdateBlockContent, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	for i := range p.Content {
		if p.Content[i].ID == "" {
			p.Content[i].ID = edtypes.NewID()
		}
		if p.Content[i].Type == "" {
			p.Content[i].Type = edtypes.NodeInline
		}
	}
	p.Content = edtypes.CloneInlines(p.Content)
	return &UpdateBlockContent{base: newBase(st), payload: p}, nil
}

func (c *UpdateBlockContent) Type() CommandType { return TypeUpdateBlockContent }

func (c *UpdateBlockContent) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.UpdateBlockContent(c.payload.BlockID, c.payload.SectionID, c.payload.Content)
	})
	return nil
}

func (c *UpdateBlockContent) Describe() string {
	return fmt.Sprintf("Update content of block %s in section %s", c.payload.BlockID, c.payload.SectionID)
}

type DeleteBlockPayload struct {
	SectionID string `json:"sectionId" validate:"required"`
	BlockID   string `json:"blockId" validate:"required"`
}

type DeleteBlock struct {
	base
	payload DeleteBlockPayload
}

func NewDeleteBlock(st *store.Store, p DeleteBlockPayload) (*DeleteBlock, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return &DeleteBlock{base: newBase(st), payload: p}, nil
}

func (c *DeleteBlock) Type() CommandType { return TypeDeleteBlock }

func (c *DeleteBlock) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.DeleteBlock(c.payload.BlockID, c.payload.SectionID)
	})
	return nil
}

func (c *DeleteBlock) Describe() string {
	return fmt.Sprintf("Delete block %s in section [%s]", c.payload.BlockID, c.payload.SectionID)
}

type MoveBlockPayload struct {
	SourceSectionID string `json:"sourceSectionId" validate:"required"`
	TargetSectionID string `json:"targetSectionId" validate:"required"`
	BlockID         string `json:"blockId" validate:"required"`
	FromPosition    int    `json:"fromPosition"`
	ToPosition      int    `json:"toPosition"`
}

type MoveBlock struct {
	base
	payload MoveBlockPayload
}

func NewMoveBlock(st *store.Store, p MoveBlockPayload) (*MoveBlock, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return &MoveBlock{base: newBase(st), payload: p}, nil
}

func (c *MoveBlock) Type() CommandType { return TypeMoveBlock }

func (c *MoveBlock) Execute() error {
	p := c.payload
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.MoveBlock(p.BlockID, p.SourceSectionID, p.TargetSectionID, p.FromPosition, p.ToPosition)
	})
	return nil
}

func (c *MoveBlock) Describe() string {
	p := c.payload
	return fmt.Sprintf("Move block %s from section %s[%d] → %s[%d]", p.BlockID, p.SourceSectionID, p.FromPosition, p.TargetSectionID, p.ToPosition)
}

type ApplyMarkPayload struct {
	SectionID   string       `json:"sectionId" validate:"required"`
	BlockID     string       `json:"blockId" validate:"required"`
	InlineIndex int          `json:"inlineIndex" validate:"min=0"`
	Mark        edtypes.Mark `json:"mark" validate:"required"`
	// Toggle по умолчанию true
	Toggle *bool `json:"toggle,omitempty"`
}

type ApplyMark struct {
	base
	payload ApplyMarkPayload
	toggle  bool
}

func NewApplyMark(st *store.Store, p ApplyMarkPayload) (*ApplyMark, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	if !p.Mark.Valid() {
		return nil, fmt.Errorf("%w: unknown mark %q", ErrInvalidPayload, p.Mark)
	}
	toggle := true
	if p.Toggle != nil {
		toggle = *p.Toggle
	}
	return &ApplyMark{base: newBase(st), payload: p, toggle: toggle}, nil
}

func (c *ApplyMark) Type() CommandType { return TypeApplyMark }

func (c *ApplyMark) Execute() error {
	p := c.payload
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.ApplyMark(p.BlockID, p.SectionID, p.InlineIndex, p.Mark, c.toggle)
	})
	return nil
}

func (c *ApplyMark) Describe() string {
	action := "Apply"
	if c.toggle {
		action = "Toggle"
	}
	return fmt.Sprintf("%s mark %q on inline %d of block %s", action, c.payload.Mark, c.payload.InlineIndex, c.payload.BlockID)
}

type UpdateBlockAttributesPayload struct {
	SectionID  string         `json:"sectionId" validate:"required"`
	BlockID    string         `json:"blockId" validate:"required"`
	Attributes map[string]any `json:"attributes" validate:"required"`
}

type UpdateBlockAttributes struct {
	base
	payload UpdateBlockAttributesPayload
}

func NewUpdateBlockAttributes(st *store.Store, p UpdateBlockAttributesPayload) (*UpdateBlockAttributes, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	p.Attributes = edtypes.Attributes(p.Attributes).Clone()
	return &UpdateBlockAttributes{base: newBase(st), payload: p}, nil
}

func (c *UpdateBlockAttributes) Type() CommandType { return TypeUpdateBlockAttributes }

func (c *UpdateBlockAttributes) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.UpdateBlockAttributes(c.payload.BlockID, c.payload.SectionID, c.payload.Attributes)
	})
	return nil
}

func (c *UpdateBlockAttributes) Describe() string {
	return fmt.Sprintf("Update attributes of block %s in section %s", c.payload.BlockID, c.payload.SectionID)
}

type UpdateBlockMetadataPayload struct {
	SectionID string         `json:"sectionId" validate:"required"`
	BlockID   string         `json:"blockId" validate:"required"`
	Metadata  map[string]any `json:"metadata" validate:"required"`
}

// UpdateBlockMetadata дополняет метаданные блока (привязка к стандартам, подсказки ассистента).
type UpdateBlockMetadata struct {
	base
	payload UpdateBlockMetadataPayload
}

func NewUpdateBlockMetadata(st *store.Store, p UpdateBlockMetadataPayload) (*UpdateBlockMetadata, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	p.Metadata = edtypes.Attributes(p.Metadata).Clone()
	return &UpdateBlockMetadata{base: newBase(st), payload: p}, nil
}

func (c *UpdateBlockMetadata) Type() CommandType { return TypeUpdateBlockMetadata }

func (c *UpdateBlockMetadata) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.UpdateBlockMetadata(c.payload.BlockID, c.payload.SectionID, c.payload.Metadata)
	})
	return nil
}

func (c *UpdateBlockMetadata) Describe() string {
	return fmt.Sprintf("Update metadata of block %s in section %s", c.payload.BlockID, c.payload.SectionID)
}

type UpdateBlockDataPayload struct {
	SectionID string            `json:"sectionId" validate:"required"`
	BlockID   string            `json:"blockId" validate:"required"`
	BlockType edtypes.BlockType `json:"blockType" validate:"required"`
	Data      edtypes.BlockData `json:"-"`
}

// UpdateBlockData заменяет данные таблицы, изображения, диаграммы или показателя.
type UpdateBlockData struct {
	base
	payload UpdateBlockDataPayload
}

func NewUpdateBlockData(st *store.Store, p UpdateBlockDataPayload) (*UpdateBlockData, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	if p.Data == nil || p.Data.BlockType() != p.BlockType {
		return nil, fmt.Errorf("%w: data does not match block type %q", ErrInvalidPayload, p.BlockType)
	}
	return &UpdateBlockData{base: newBase(st), payload: p}, nil
}

func (c *UpdateBlockData) Type() CommandType { return TypeUpdateBlockData }

func (c *UpdateBlockData) Execute() error {
	c.apply(c.Type(), func(st *store.Store) bool {
		return st.UpdateBlockData(c.payload.BlockID, c.payload.SectionID, c.payload.Data)
	})
	return nil
}

func (c *UpdateBlockData) Describe() string {
	return fmt.Sprintf("Update %s data of block %s in section %s", c.payload.BlockType, c.payload.BlockID, c.payload.SectionID)
}
