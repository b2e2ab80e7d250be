// Экспорт документа отчета в Markdown.
//
// Основные возможности:
//   - Разделы становятся заголовками второго уровня, ссылки на стандарты (GRI и др.) выводятся под заголовком.
//   - Форматирование фрагментов (жирный, курсив, зачеркивание, код, выделение, ссылки) переводится в разметку Markdown.
//   - Таблицы и показатели выводятся таблицами, изображения и графики ссылками и подписями.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	md "github.com/nao1215/markdown"
)

// Markdown пишет документ в w.
func Markdown(w io.Writer, doc *edtypes.Document) error {
	if doc == nil {
		return nil
	}

	m := md.NewMarkdown(w).H1(doc.Title)
	if len(doc.Metadata.Tags) > 0 {
		tags := make([]string, 0, len(doc.Metadata.Tags))
		for _, t := range doc.Metadata.Tags {
			tags = append(tags, md.Code(t))
		}
		m.PlainText("").PlainText(strings.Join(tags, " "))
	}

	for _, sec := range doc.Sections {
		m.PlainText("").H2(sec.Title)
		if refs := references(sec.GRIReference); refs != "" {
			m.PlainText("").PlainText(md.Italic(refs))
		}
		if sec.Description != "" {
			m.PlainText("").PlainText(sec.Description)
		}
		for _, b := range sec.Blocks {
			m.PlainText("")
			writeBlock(m, b)
		}
	}

	return m.Build()
}

// String документ в Markdown одной строкой.
func String(doc *edtypes.Document) (string, error) {
	var sb strings.Builder
	if err := Markdown(&sb, doc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func references(refs []edtypes.StandardReference) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		if len(r.Code) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", r.Framework, strings.Join(r.Code, ", ")))
	}
	return strings.Join(parts, "; ")
}

func writeBlock(m *md.Markdown, b edtypes.Block) {
	switch b.BlockType {
	case edtypes.BlockHeading:
		text := Inlines(b.Content)
		switch level := b.Attributes.Level(); {
		case level <= 1:
			m.H3(text)
		case level == 2:
			m.H4(text)
		case level == 3:
			m.H5(text)
		default:
			m.H6(text)
		}
	case edtypes.BlockQuote:
		m.Blockquote(Inlines(b.Content))
	case edtypes.BlockList:
		items := make([]string, 0, len(b.Children))
		for _, li := range b.Children {
			items = append(items, Inlines(li.Content))
		}
		if b.Attributes.Ordered() {
			m.OrderedList(items...)
		} else {
			m.BulletList(items...)
		}
	case edtypes.BlockTable:
		writeTable(m, b.Data)
	case edtypes.BlockImage:
		if img, ok := b.Data.(edtypes.ImageData); ok && img.Src != "" {
			m.PlainText(md.Image(img.Alt, img.Src))
			if img.Caption != "" {
				m.PlainText(md.Italic(img.Caption))
			}
		}
	case edtypes.BlockChart:
		if chart, ok := b.Data.(edtypes.ChartData); ok {
			title, _ := chart.Options["title"].(string)
			if title == "" {
				title = "Chart"
			}
			m.PlainTextf("%s (%s, %d points)", md.Bold(title), chart.Type, len(chart.Data))
		}
	case edtypes.BlockMetric:
		if metric, ok := b.Data.(edtypes.MetricData); ok {
			m.CustomTable(md.TableSet{
				Header: []string{"Metric", "Category", "Value", "Unit"},
				Rows:   [][]string{{metric.MetricName, string(metric.Category), fmt.Sprint(metric.Value), metric.Unit}},
			}, md.TableOptions{AutoWrapText: false})
		}
	default:
		m.PlainText(Inlines(b.Content))
	}
}

func writeTable(m *md.Markdown, data edtypes.BlockData) {
	table, ok := data.(edtypes.TableData)
	if !ok || len(table.Cells) == 0 {
		return
	}

	header := padRow(table.Cells[0], table.Cols)
	rows := make([][]string, 0, len(table.Cells)-1)
	for _, r := range table.Cells[1:] {
		rows = append(rows, padRow(r, len(header)))
	}
	m.CustomTable(md.TableSet{Header: header, Rows: rows}, md.TableOptions{AutoWrapText: false})
}

func padRow(row []string, n int) []string {
	if n < len(row) {
		n = len(row)
	}
	res := make([]string, n)
	copy(res, row)
	return res
}

// Inlines переводит фрагменты в разметку Markdown.
// Подчеркивание, верхний и нижний индекс в Markdown не выражаются и опускаются.
func Inlines(runs []edtypes.Inline) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(inline(r))
	}
	return sb.String()
}

func inline(r edtypes.Inline) string {
	if r.Text == "" {
		return ""
	}

	text := r.Text
	if r.Marks.Has(edtypes.MarkCode) {
		text = md.Code(text)
	}
	switch {
	case r.Marks.Has(edtypes.MarkBold) && r.Marks.Has(edtypes.MarkItalic):
		text = md.BoldItalic(text)
	case r.Marks.Has(edtypes.MarkBold):
		text = md.Bold(text)
	case r.Marks.Has(edtypes.MarkItalic):
		text = md.Italic(text)
	}
	if r.Marks.Has(edtypes.MarkStrike) {
		text = md.Strikethrough(text)
	}
	if r.Marks.Has(edtypes.MarkHighlight) {
		text = md.Highlight(text)
	}
	if r.Link != nil && r.Link.URL != "" {
		text = md.Link(text, r.Link.URL)
	}
	return text
}

// Summary краткая сводка документа для журнала экспорта: количество блоков по видам.
func Summary(doc *edtypes.Document) string {
	counts := map[edtypes.BlockType]int{}
	for _, s := range doc.Sections {
		for _, b := range s.Blocks {
			counts[b.BlockType]++
		}
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[edtypes.BlockType(k)]))
	}
	return strings.Join(parts, " ")
}
