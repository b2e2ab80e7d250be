package edtypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
)

// BlockType вид блока.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockList      BlockType = "list"
	BlockQuote     BlockType = "quote"
	BlockTable     BlockType = "table"
	BlockImage     BlockType = "image"
	BlockChart     BlockType = "chart"
	BlockMetric    BlockType = "metric"
)

// legacyMetricType старое имя блока показателя, встречается в сохраненных документах.
const legacyMetricType = "esgMetric"

var blockTypes = []BlockType{
	BlockParagraph,
	BlockHeading,
	BlockList,
	BlockQuote,
	BlockTable,
	BlockImage,
	BlockChart,
	BlockMetric,
}

func BlockTypes() []BlockType {
	return append([]BlockType(nil), blockTypes...)
}

// ParseBlockType приводит внешнее имя вида блока к BlockType.
func ParseBlockType(s string) (BlockType, bool) {
	if s == legacyMetricType {
		return BlockMetric, true
	}
	for _, t := range blockTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ContentKind способ хранения содержимого блока.
type ContentKind int

const (
	ContentInline ContentKind = iota
	ContentItems
	ContentData
)

func (t BlockType) ContentKind() ContentKind {
	switch t {
	case BlockList:
		return ContentItems
	case BlockTable, BlockImage, BlockChart, BlockMetric:
		return ContentData
	default:
		return ContentInline
	}
}

// Attributes атрибуты отображения блока. Набор ключей открытый, типизированные геттеры ниже.
type Attributes map[string]any

func (a Attributes) String(key string) string {
	if a == nil {
		return ""
	}
	s, _ := a[key].(string)
	return s
}

func (a Attributes) Int(key string) int {
	if a == nil {
		return 0
	}
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		// JSON числа приходят как float64
		return int(v)
	case json.Number:
		i, _ := v.Int64()
		return int(i)
	}
	return 0
}

func (a Attributes) Align() string { return a.String("align") }

func (a Attributes) Indent() int { return a.Int("indent") }

func (a Attributes) Level() int { return a.Int("level") }

func (a Attributes) ListType() string { return a.String("listType") }

func (a Attributes) StartNumber() int { return a.Int("startNumber") }

func (a Attributes) Ordered() bool { return a.ListType() == "ordered" }

func (a Attributes) Clone() Attributes { return Attributes(cloneMap(a)) }

func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Merge поверхностно накладывает patch на копию атрибутов.
func (a Attributes) Merge(patch map[string]any) Attributes {
	res := make(Attributes, len(a)+len(patch))
	maps.Copy(res, a.Clone())
	for k, v := range patch {
		res[k] = cloneValue(v)
	}
	return res
}

// BlockData содержимое структурных блоков (таблица, изображение, диаграмма, показатель).
type BlockData interface {
	BlockType() BlockType
	cloneData() BlockData
}

type ImageData struct {
	Src     string `json:"src"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
}

func (ImageData) BlockType() BlockType { return BlockImage }

func (d ImageData) cloneData() BlockData { return d }

type TableData struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Cells [][]string `json:"cells"`
}

func (TableData) BlockType() BlockType { return BlockTable }

func (d TableData) cloneData() BlockData {
	res := d
	if d.Cells != nil {
		res.Cells = make([][]string, len(d.Cells))
		for i, row := range d.Cells {
			res.Cells[i] = append([]string(nil), row...)
		}
	}
	return res
}

type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
	ChartArea ChartType = "area"
)

type ChartData struct {
	Type    ChartType        `json:"type"`
	Data    []map[string]any `json:"data"`
	Options map[string]any   `json:"options"`
}

func (ChartData) BlockType() BlockType { return BlockChart }

func (d ChartData) cloneData() BlockData {
	res := d
	if d.Data != nil {
		res.Data = make([]map[string]any, len(d.Data))
		for i, p := range d.Data {
			res.Data[i] = cloneMap(p)
		}
	}
	res.Options = cloneMap(d.Options)
	return res
}

type MetricCategory string

const (
	MetricEnvironmental MetricCategory = "environmental"
	MetricSocial        MetricCategory = "social"
	MetricGovernance    MetricCategory = "governance"
)

type MetricData struct {
	MetricName string         `json:"metricName"`
	Category   MetricCategory `json:"category"`
	Value      any            `json:"value"`
	Unit       string         `json:"unit,omitempty"`
}

func (MetricData) BlockType() BlockType { return BlockMetric }

func (d MetricData) cloneData() BlockData {
	res := d
	res.Value = cloneValue(d.Value)
	return res
}

// ListItem элемент списка.
type ListItem struct {
	ID      string   `json:"id"`
	Content []Inline `json:"content"`
}

func (li ListItem) Clone() ListItem {
	return ListItem{ID: li.ID, Content: CloneInlines(li.Content)}
}

// Block единица содержимого раздела.
// В зависимости от BlockType заполнено ровно одно из Content, Children, Data.
type Block struct {
	ID         string
	Type       NodeType
	BlockType  BlockType
	Attributes Attributes
	Content    []Inline
	Children   []ListItem
	Data       BlockData
	Metadata   map[string]any
}

type blockJSON struct {
	ID         string          `json:"id"`
	Type       NodeType        `json:"type,omitempty"`
	BlockType  string          `json:"blockType"`
	Attributes Attributes      `json:"attributes"`
	Content    *[]Inline       `json:"content,omitempty"`
	Children   *[]ListItem     `json:"children,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// MarshalJSON пишет только то представление содержимого, которое соответствует виду блока.
func (b Block) MarshalJSON() ([]byte, error) {
	w := blockJSON{
		ID:         b.ID,
		Type:       b.Type,
		BlockType:  string(b.BlockType),
		Attributes: b.Attributes,
		Metadata:   b.Metadata,
	}
	if w.Attributes == nil {
		w.Attributes = Attributes{}
	}

	switch b.BlockType.ContentKind() {
	case ContentInline:
		content := b.Content
		if content == nil {
			content = []Inline{}
		}
		w.Content = &content
	case ContentItems:
		children := b.Children
		if children == nil {
			children = []ListItem{}
		}
		w.Children = &children
	case ContentData:
		if b.Data != nil {
			raw, err := json.Marshal(b.Data)
			if err != nil {
				return nil, err
			}
			w.Data = raw
		}
	}
	return json.Marshal(w)
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	bt, ok := ParseBlockType(w.BlockType)
	if !ok {
		return fmt.Errorf("unknown block type %q", w.BlockType)
	}

	*b = Block{
		ID:         w.ID,
		Type:       w.Type,
		BlockType:  bt,
		Attributes: w.Attributes,
		Metadata:   w.Metadata,
	}
	if b.Type == "" {
		b.Type = NodeBlock
	}
	if w.Content != nil {
		b.Content = *w.Content
	}
	if w.Children != nil {
		b.Children = *w.Children
	}

	if len(w.Data) == 0 || string(w.Data) == "null" {
		return nil
	}
	if bt.ContentKind() != ContentData {
		slog.Debug("Ignore data payload of inline block", "blockType", bt, "id", w.ID)
		return nil
	}
	d, err := decodeBlockData(bt, w.Data)
	if err != nil {
		return fmt.Errorf("block %s data: %w", w.ID, err)
	}
	b.Data = d
	return nil
}

// DecodeBlockData разбирает data структурного блока по его виду.
func DecodeBlockData(bt BlockType, raw []byte) (BlockData, error) {
	return decodeBlockData(bt, raw)
}

func decodeBlockData(bt BlockType, raw []byte) (BlockData, error) {
	switch bt {
	case BlockImage:
		var d ImageData
		err := json.Unmarshal(raw, &d)
		return d, err
	case BlockTable:
		var d TableData
		err := json.Unmarshal(raw, &d)
		return d, err
	case BlockChart:
		var d ChartData
		err := json.Unmarshal(raw, &d)
		return d, err
	case BlockMetric:
		var d MetricData
		err := json.Unmarshal(raw, &d)
		return d, err
	}
	return nil, errors.New("block type has no data payload")
}

func (b Block) Clone() Block {
	res := b
	res.Attributes = b.Attributes.Clone()
	res.Content = CloneInlines(b.Content)
	if b.Children != nil {
		res.Children = make([]ListItem, len(b.Children))
		for i, li := range b.Children {
			res.Children[i] = li.Clone()
		}
	}
	if b.Data != nil {
		res.Data = b.Data.cloneData()
	}
	res.Metadata = cloneMap(b.Metadata)
	return res
}

// Text возвращает плоский текст блока.
func (b Block) Text() string {
	switch b.BlockType.ContentKind() {
	case ContentInline:
		return InlinesText(b.Content)
	case ContentItems:
		var res string
		for i, li := range b.Children {
			if i > 0 {
				res += "\n"
			}
			res += InlinesText(li.Content)
		}
		return res
	}
	return ""
}

// CharCount количество символов текста блока, для структурных блоков 0.
func (b Block) CharCount() int {
	n := 0
	for _, r := range b.Content {
		n += len([]rune(r.Text))
	}
	for _, li := range b.Children {
		for _, r := range li.Content {
			n += len([]rune(r.Text))
		}
	}
	return n
}
