package commands

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/store"
)

var validate = validator.New()

func validatePayload(p any) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Env зависимости, которые получают создаваемые команды.
type Env struct {
	Store    *store.Store
	Versions VersionSaver
}

var commandTypes = []CommandType{
	TypeInsertBlock,
	TypeUpdateBlockContent,
	TypeDeleteBlock,
	TypeMoveBlock,
	TypeApplyMark,
	TypeUpdateBlockAttributes,
	TypeUpdateBlockMetadata,
	TypeUpdateBlockData,
	TypeInsertSection,
	TypeDeleteSection,
	TypeUpdateSection,
	TypeSaveVersion,
}

// Types все поддерживаемые типы команд.
func Types() []CommandType {
	return append([]CommandType(nil), commandTypes...)
}

// build не дает вернуть типизированный nil внутри интерфейса.
func build[C Command](c C, err error) (Command, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

func decodeJSON[T any](payload []byte) (T, error) {
	var p T
	if len(payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

// Decode создает команду по типу и JSON параметрам.
//
// Параметры:
//   - env: хранилище сеанса и хранилище версий.
//   - t: тип команды.
//   - payload: параметры команды в JSON.
//
// Возвращает:
//   - Command: готовая к выполнению команда.
//   - error: ErrUnknownCommand для неизвестного типа, ErrInvalidPayload для некорректных параметров.
func Decode(env Env, t CommandType, payload []byte) (Command, error) {
	switch t {
	case TypeInsertBlock:
		p, err := decodeJSON[InsertBlockPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewInsertBlock(env.Store, p))
	case TypeUpdateBlockContent:
		p, err := decodeJSON[UpdateBlockContentPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewUpdateBlockContent(env.Store, p))
	case TypeDeleteBlock:
		p, err := decodeJSON[DeleteBlockPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewDeleteBlock(env.Store, p))
	case TypeMoveBlock:
		p, err := decodeJSON[MoveBlockPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewMoveBlock(env.Store, p))
	case TypeApplyMark:
		p, err := decodeJSON[ApplyMarkPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewApplyMark(env.Store, p))
	case TypeUpdateBlockAttributes:
		p, err := decodeJSON[UpdateBlockAttributesPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewUpdateBlockAttributes(env.Store, p))
	case TypeUpdateBlockMetadata:
		p, err := decodeJSON[UpdateBlockMetadataPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewUpdateBlockMetadata(env.Store, p))
	case TypeUpdateBlockData:
		p, err := decodeBlockDataPayload(payload)
		if err != nil {
			return nil, err
		}
		return build(NewUpdateBlockData(env.Store, p))
	case TypeInsertSection:
		p, err := decodeJSON[InsertSectionPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewInsertSection(env.Store, p))
	case TypeDeleteSection:
		p, err := decodeJSON[DeleteSectionPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewDeleteSection(env.Store, p))
	case TypeUpdateSection:
		p, err := decodeJSON[UpdateSectionPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewUpdateSection(env.Store, p))
	case TypeSaveVersion:
		p, err := decodeJSON[SaveVersionPayload](payload)
		if err != nil {
			return nil, err
		}
		return build(NewSaveVersion(env.Store, env.Versions, p))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, t)
}

func decodeBlockDataPayload(payload []byte) (UpdateBlockDataPayload, error) {
	var raw struct {
		UpdateBlockDataPayload
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return UpdateBlockDataPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	p := raw.UpdateBlockDataPayload
	bt, ok := edtypes.ParseBlockType(string(p.BlockType))
	if !ok || bt.ContentKind() != edtypes.ContentData {
		return p, fmt.Errorf("%w: block type %q has no data", ErrInvalidPayload, p.BlockType)
	}
	p.BlockType = bt
	data, err := edtypes.DecodeBlockData(bt, raw.Data)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	p.Data = data
	return p, nil
}
