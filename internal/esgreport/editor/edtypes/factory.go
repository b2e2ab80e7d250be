package edtypes

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	DefaultDocumentTitle = "New ESG Report"
	DefaultSectionTitle  = "New Section"
	DefaultLanguage      = "ko"

	headingPlaceholder  = "제목"
	listItemPlaceholder = "항목 1"
)

// NewID новый непрозрачный идентификатор узла. Никогда не выводится из содержимого.
func NewID() string {
	return uuid.Must(uuid.NewV4()).String()
}

func NewInline(text string) Inline {
	return Inline{
		ID:    NewID(),
		Type:  NodeInline,
		Text:  text,
		Marks: Marks{},
	}
}

func NewLinkInline(text, url string) Inline {
	in := NewInline(text)
	in.Link = &Link{URL: url}
	return in
}

// NewEmptyInline последовательность из одного фрагмента с заданным текстом.
func NewEmptyInline(text string) []Inline {
	return []Inline{NewInline(text)}
}

// NewEmptyBlock блок заданного вида со значениями по умолчанию.
// Неизвестный вид дает абзац.
func NewEmptyBlock(kind BlockType) Block {
	b := Block{
		ID:         NewID(),
		Type:       NodeBlock,
		Attributes: Attributes{},
	}

	switch kind {
	case BlockHeading:
		b.BlockType = BlockHeading
		b.Attributes = Attributes{"level": 2, "align": "left"}
		b.Content = NewEmptyInline(headingPlaceholder)
	case BlockList:
		b.BlockType = BlockList
		b.Attributes = Attributes{"listType": "unordered", "indent": 0}
		b.Children = []ListItem{{ID: NewID(), Content: NewEmptyInline(listItemPlaceholder)}}
	case BlockQuote:
		b.BlockType = BlockQuote
		b.Content = NewEmptyInline("")
	case BlockTable:
		rows, cols := 2, 2
		cells := make([][]string, rows)
		for i := range cells {
			cells[i] = make([]string, cols)
		}
		b.BlockType = BlockTable
		b.Data = TableData{Rows: rows, Cols: cols, Cells: cells}
	case BlockImage:
		b.BlockType = BlockImage
		b.Attributes = Attributes{"align": "center", "width": "100%"}
		b.Data = ImageData{}
	case BlockChart:
		b.BlockType = BlockChart
		b.Data = ChartData{Type: ChartBar, Data: []map[string]any{}, Options: map[string]any{}}
	case BlockMetric:
		b.BlockType = BlockMetric
		b.Data = MetricData{Category: MetricEnvironmental, Value: ""}
	default:
		b.BlockType = BlockParagraph
		b.Content = NewEmptyInline("")
	}
	return b
}

func NewEmptySection(title string) Section {
	if title == "" {
		title = DefaultSectionTitle
	}
	return Section{
		ID:     NewID(),
		Type:   NodeSection,
		Title:  title,
		Blocks: []Block{},
		Metadata: &SectionMetadata{
			Status:   string(StatusDraft),
			Category: "General",
		},
	}
}

func NewEmptyDocument(title string) *Document {
	if title == "" {
		title = DefaultDocumentTitle
	}
	now := time.Now().UTC()
	return &Document{
		ID:    NewID(),
		Type:  NodeDocument,
		Title: title,
		Metadata: DocumentMetadata{
			Version:    1,
			RevisionID: NewID(),
			Status:     StatusDraft,
			Language:   DefaultLanguage,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		PageSetup: PageSetup{
			Format:      "A4",
			Orientation: "portrait",
			Margin:      PageMargin{Top: 20, Bottom: 20, Left: 20, Right: 20},
		},
		Sections: []Section{},
	}
}
