package edtypes

import (
	"slices"
	"time"
)

// NodeType тег уровня узла в дереве документа.
type NodeType string

const (
	NodeDocument NodeType = "document"
	NodeSection  NodeType = "section"
	NodeBlock    NodeType = "block"
	NodeInline   NodeType = "inline"
)

// Mark форматирование текстового фрагмента.
type Mark string

const (
	MarkBold        Mark = "bold"
	MarkItalic      Mark = "italic"
	MarkUnderline   Mark = "underline"
	MarkStrike      Mark = "strike"
	MarkHighlight   Mark = "highlight"
	MarkCode        Mark = "code"
	MarkSubscript   Mark = "subscript"
	MarkSuperscript Mark = "superscript"
)

var allMarks = []Mark{
	MarkBold,
	MarkItalic,
	MarkUnderline,
	MarkStrike,
	MarkHighlight,
	MarkCode,
	MarkSubscript,
	MarkSuperscript,
}

// AllMarks возвращает все поддерживаемые марки в каноническом порядке.
func AllMarks() []Mark {
	return slices.Clone(allMarks)
}

func (m Mark) Valid() bool {
	return slices.Contains(allMarks, m)
}

// Marks набор марок фрагмента. Порядок не значим, дубликаты не допускаются.
type Marks []Mark

func (ms Marks) Has(m Mark) bool {
	return slices.Contains(ms, m)
}

// With возвращает новый набор с добавленной маркой. Если марка уже есть, набор не меняется.
func (ms Marks) With(m Mark) Marks {
	if ms.Has(m) {
		return ms.Clone()
	}
	res := make(Marks, 0, len(ms)+1)
	res = append(res, ms...)
	return append(res, m)
}

// Without возвращает новый набор без указанной марки.
func (ms Marks) Without(m Mark) Marks {
	res := make(Marks, 0, len(ms))
	for _, mm := range ms {
		if mm != m {
			res = append(res, mm)
		}
	}
	return res
}

// Toggle снимает марку, если она есть, иначе добавляет.
func (ms Marks) Toggle(m Mark) Marks {
	if ms.Has(m) {
		return ms.Without(m)
	}
	return ms.With(m)
}

// Equal сравнивает наборы без учета порядка.
func (ms Marks) Equal(other Marks) bool {
	a := ms.Normalize()
	b := other.Normalize()
	if len(a) != len(b) {
		return false
	}
	for _, m := range a {
		if !b.Has(m) {
			return false
		}
	}
	return true
}

// Normalize удаляет дубликаты, сохраняя порядок первого вхождения.
func (ms Marks) Normalize() Marks {
	res := make(Marks, 0, len(ms))
	for _, m := range ms {
		if !res.Has(m) {
			res = append(res, m)
		}
	}
	return res
}

func (ms Marks) Clone() Marks {
	if ms == nil {
		return nil
	}
	return slices.Clone(ms)
}

type Link struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Target string `json:"target,omitempty"`
}

// LinkEqual сравнивает ссылки двух фрагментов, отсутствие ссылки равно только отсутствию.
func LinkEqual(a, b *Link) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Annotation комментарий рецензента к фрагменту.
type Annotation struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Resolved  bool      `json:"resolved,omitempty"`
}

// Inline непрерывный фрагмент текста с одинаковым форматированием.
type Inline struct {
	ID         string      `json:"id"`
	Type       NodeType    `json:"type"`
	Text       string      `json:"text"`
	Marks      Marks       `json:"marks,omitempty"`
	Link       *Link       `json:"link,omitempty"`
	Annotation *Annotation `json:"annotation,omitempty"`
}

// SameFormat true, если у фрагментов совпадают марки и ссылка.
func (i Inline) SameFormat(other Inline) bool {
	return i.Marks.Equal(other.Marks) && LinkEqual(i.Link, other.Link)
}

func (i Inline) Clone() Inline {
	res := i
	res.Marks = i.Marks.Clone()
	if i.Link != nil {
		l := *i.Link
		res.Link = &l
	}
	if i.Annotation != nil {
		a := *i.Annotation
		res.Annotation = &a
	}
	return res
}

// CloneInlines глубоко копирует последовательность фрагментов.
func CloneInlines(in []Inline) []Inline {
	if in == nil {
		return nil
	}
	res := make([]Inline, len(in))
	for i, r := range in {
		res[i] = r.Clone()
	}
	return res
}

// InlinesText склеивает текст всех фрагментов.
func InlinesText(in []Inline) string {
	n := 0
	for _, r := range in {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range in {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}
