// Пакет описывает изменения документа как чистые переходы между состояниями.
//
// Основные возможности:
//   - Каждое изменение возвращает новый документ, неизмененные разделы и блоки разделяются с исходным.
//   - Исходный документ никогда не меняется.
//   - Отсутствующая цель (раздел, блок, фрагмент) не является ошибкой: изменение сообщает, что ничего не поменялось.
package mutation

import (
	"log/slog"
	"slices"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

// Mutation переход документа. Второе значение false означает, что документ не изменился
// и вызывающий не должен записывать историю.
type Mutation func(doc *edtypes.Document) (*edtypes.Document, bool)

func clamp(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}

// withSection копирует документ и список разделов, заменяя раздел si результатом fn.
func withSection(doc *edtypes.Document, si int, fn func(s edtypes.Section) edtypes.Section) *edtypes.Document {
	res := *doc
	res.Sections = slices.Clone(doc.Sections)
	res.Sections[si] = fn(doc.Sections[si])
	return &res
}

// withBlock заменяет блок bi раздела si результатом fn.
func withBlock(doc *edtypes.Document, si, bi int, fn func(b edtypes.Block) edtypes.Block) *edtypes.Document {
	return withSection(doc, si, func(s edtypes.Section) edtypes.Section {
		s.Blocks = slices.Clone(s.Blocks)
		s.Blocks[bi] = fn(s.Blocks[bi])
		return s
	})
}

// locate находит раздел и блок; ok=false, если что-то отсутствует.
func locate(doc *edtypes.Document, sectionID, blockID string) (si, bi int, ok bool) {
	if doc == nil {
		return -1, -1, false
	}
	si = doc.SectionIndex(sectionID)
	if si < 0 {
		return -1, -1, false
	}
	bi = doc.Sections[si].BlockIndex(blockID)
	if bi < 0 {
		return si, -1, false
	}
	return si, bi, true
}

// takenID первый идентификатор из ids, который уже занят в документе или повторяется в ids.
func takenID(doc *edtypes.Document, ids []string) (string, bool) {
	taken := doc.NodeIDs()
	for _, id := range ids {
		if _, ok := taken[id]; ok {
			return id, true
		}
		taken[id] = struct{}{}
	}
	return "", false
}

func missing(op string, args ...any) {
	slog.Debug("Mutation target not found", append([]any{"op", op}, args...)...)
}

// InsertBlock вставляет блок в раздел. Позиция приводится к [0, len].
// Блок не вставляется, если идентификатор любого его узла уже есть в документе
// или повторяется внутри блока.
func InsertBlock(sectionID string, position int, block edtypes.Block) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si := doc.SectionIndex(sectionID)
		if si < 0 {
			missing("insertBlock", "sectionId", sectionID)
			return doc, false
		}
		b := block.Clone()
		if b.ID == "" {
			b.ID = edtypes.NewID()
		}
		if b.Type == "" {
			b.Type = edtypes.NodeBlock
		}
		if id, taken := takenID(doc, b.NodeIDs()); taken {
			slog.Warn("Node id already exists", "blockId", b.ID, "nodeId", id)
			return doc, false
		}

		return withSection(doc, si, func(s edtypes.Section) edtypes.Section {
			s.Blocks = slices.Insert(slices.Clone(s.Blocks), clamp(position, len(s.Blocks)), b)
			return s
		}), true
	}
}

func DeleteBlock(blockID, sectionID string) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sectionID, blockID)
		if !ok {
			missing("deleteBlock", "sectionId", sectionID, "blockId", blockID)
			return doc, false
		}
		return withSection(doc, si, func(s edtypes.Section) edtypes.Section {
			s.Blocks = slices.Delete(slices.Clone(s.Blocks), bi, bi+1)
			return s
		}), true
	}
}

// MoveBlock перемещает блок.
// В пределах раздела блок извлекается из fromPosition и вставляется в toPosition
// массива, из которого он уже удален. Если в fromPosition лежит другой блок, позиция
// определяется по идентификатору. Между разделами блок удаляется из источника по
// идентификатору и вставляется в toPosition текущего массива цели.
func MoveBlock(blockID, sourceSectionID, targetSectionID string, fromPosition, toPosition int) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sourceSectionID, blockID)
		ti := doc.SectionIndex(targetSectionID)
		if !ok || ti < 0 {
			missing("moveBlock", "blockId", blockID, "source", sourceSectionID, "target", targetSectionID)
			return doc, false
		}

		if si == ti {
			from := fromPosition
			blocks := doc.Sections[si].Blocks
			if from < 0 || from >= len(blocks) || blocks[from].ID != blockID {
				from = bi
			}
			to := clamp(toPosition, len(blocks)-1)
			if from == to {
				return doc, false
			}
			return withSection(doc, si, func(s edtypes.Section) edtypes.Section {
				moved := s.Blocks[from]
				rest := slices.Delete(slices.Clone(s.Blocks), from, from+1)
				s.Blocks = slices.Insert(rest, to, moved)
				return s
			}), true
		}

		moved := doc.Sections[si].Blocks[bi]
		res := withSection(doc, si, func(s edtypes.Section) edtypes.Section {
			s.Blocks = slices.Delete(slices.Clone(s.Blocks), bi, bi+1)
			return s
		})
		return withSection(res, ti, func(s edtypes.Section) edtypes.Section {
			s.Blocks = slices.Insert(slices.Clone(s.Blocks), clamp(toPosition, len(s.Blocks)), moved)
			return s
		}), true
	}
}

// UpdateBlockContent целиком заменяет фрагменты текстового блока.
// Фрагмент без идентификатора или с идентификатором, занятым другим узлом документа,
// получает новый идентификатор.
func UpdateBlockContent(blockID, sectionID string, content []edtypes.Inline) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sectionID, blockID)
		if !ok {
			missing("updateBlockContent", "sectionId", sectionID, "blockId", blockID)
			return doc, false
		}
		if doc.Sections[si].Blocks[bi].BlockType.ContentKind() != edtypes.ContentInline {
			slog.Debug("Block has no inline content", "blockId", blockID, "blockType", doc.Sections[si].Blocks[bi].BlockType)
			return doc, false
		}
		taken := doc.NodeIDs()
		for _, r := range doc.Sections[si].Blocks[bi].Content {
			delete(taken, r.ID)
		}
		runs := edtypes.CloneInlines(content)
		for i := range runs {
			if _, dup := taken[runs[i].ID]; dup || runs[i].ID == "" {
				runs[i].ID = edtypes.NewID()
			}
			taken[runs[i].ID] = struct{}{}
		}

		return withBlock(doc, si, bi, func(b edtypes.Block) edtypes.Block {
			b.Content = runs
			if b.Content == nil {
				b.Content = []edtypes.Inline{}
			}
			return b
		}), true
	}
}

// UpdateBlockText заменяет содержимое текстового блока одним фрагментом без форматирования.
func UpdateBlockText(blockID, sectionID, text string) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		return UpdateBlockContent(blockID, sectionID, edtypes.NewEmptyInline(text))(doc)
	}
}

// ApplyMark меняет марку фрагмента inlineIndex. При toggle марка снимается, если она есть,
// иначе добавляется. Без toggle марка только добавляется.
func ApplyMark(blockID, sectionID string, inlineIndex int, mark edtypes.Mark, toggle bool) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sectionID, blockID)
		if !ok {
			missing("applyMark", "sectionId", sectionID, "blockId", blockID)
			return doc, false
		}
		if !mark.Valid() {
			slog.Debug("Unknown mark type", "type", mark)
			return doc, false
		}
		content := doc.Sections[si].Blocks[bi].Content
		if inlineIndex < 0 || inlineIndex >= len(content) {
			missing("applyMark", "blockId", blockID, "inlineIndex", inlineIndex)
			return doc, false
		}
		marks := content[inlineIndex].Marks
		if !toggle && marks.Has(mark) {
			return doc, false
		}

		return withBlock(doc, si, bi, func(b edtypes.Block) edtypes.Block {
			b.Content = slices.Clone(b.Content)
			in := b.Content[inlineIndex]
			if toggle {
				in.Marks = marks.Toggle(mark)
			} else {
				in.Marks = marks.With(mark)
			}
			b.Content[inlineIndex] = in
			return b
		}), true
	}
}

// UpdateBlockAttributes поверхностно сливает patch с атрибутами блока.
func UpdateBlockAttributes(blockID, sectionID string, patch map[string]any) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sectionID, blockID)
		if !ok {
			missing("updateBlockAttributes", "sectionId", sectionID, "blockId", blockID)
			return doc, false
		}
		return withBlock(doc, si, bi, func(b edtypes.Block) edtypes.Block {
			b.Attributes = b.Attributes.Merge(patch)
			return b
		}), true
	}
}

// UpdateBlockMetadata поверхностно сливает patch с метаданными блока (теги стандартов, подсказки ассистента).
func UpdateBlockMetadata(blockID, sectionID string, patch map[string]any) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sectionID, blockID)
		if !ok {
			missing("updateBlockMetadata", "sectionId", sectionID, "blockId", blockID)
			return doc, false
		}
		return withBlock(doc, si, bi, func(b edtypes.Block) edtypes.Block {
			b.Metadata = edtypes.Attributes(b.Metadata).Merge(patch)
			return b
		}), true
	}
}

// UpdateBlockData заменяет данные структурного блока. Вид данных должен совпадать с видом блока.
func UpdateBlockData(blockID, sectionID string, data edtypes.BlockData) Mutation {
	return func(doc *edtypes.Document) (*edtypes.Document, bool) {
		si, bi, ok := locate(doc, sectionID, blockID)
		if !ok {
			missing("updateBlockData", "sectionId", sectionID, "blockId", blockID)
			return doc, false
		}
		if data == nil || data.BlockType() != doc.Sections[si].Blocks[bi].BlockType {
			slog.Debug("Block data does not match block type", "blockId", blockID)
			return doc, false
		}
		return withBlock(doc, si, bi, func(b edtypes.Block) edtypes.Block {
			b.Data = data
			return b.Clone()
		}), true
	}
}
