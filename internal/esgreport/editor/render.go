package editor

import (
	"fmt"
	"html"
	"strings"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

// markTags порядок вложения тегов, первый оборачивает остальные.
var markTags = []struct {
	mark edtypes.Mark
	tag  string
}{
	{edtypes.MarkBold, "strong"},
	{edtypes.MarkItalic, "em"},
	{edtypes.MarkUnderline, "u"},
	{edtypes.MarkStrike, "s"},
	{edtypes.MarkHighlight, "mark"},
	{edtypes.MarkCode, "code"},
	{edtypes.MarkSubscript, "sub"},
	{edtypes.MarkSuperscript, "sup"},
}

// RenderHTML рендерит фрагменты во внутренний HTML поверхности.
// Повторный разбор результата дает те же фрагменты с точностью до идентификаторов и слияния.
func RenderHTML(runs []edtypes.Inline) string {
	var sb strings.Builder
	for _, r := range runs {
		writeInline(&sb, r)
	}
	return sb.String()
}

func writeInline(sb *strings.Builder, r edtypes.Inline) {
	if r.Text == "" {
		return
	}
	if r.Link != nil {
		sb.WriteString(`<a href="`)
		sb.WriteString(html.EscapeString(r.Link.URL))
		sb.WriteString(`"`)
		if r.Link.Target != "" {
			sb.WriteString(` target="`)
			sb.WriteString(html.EscapeString(r.Link.Target))
			sb.WriteString(`"`)
		}
		if r.Link.Title != "" {
			sb.WriteString(` title="`)
			sb.WriteString(html.EscapeString(r.Link.Title))
			sb.WriteString(`"`)
		}
		sb.WriteString(">")
	}

	var closing []string
	for _, mt := range markTags {
		if r.Marks.Has(mt.mark) {
			sb.WriteString("<" + mt.tag + ">")
			closing = append(closing, "</"+mt.tag+">")
		}
	}

	lines := strings.Split(r.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("<br>")
		}
		sb.WriteString(html.EscapeString(line))
	}

	for i := len(closing) - 1; i >= 0; i-- {
		sb.WriteString(closing[i])
	}
	if r.Link != nil {
		sb.WriteString("</a>")
	}
}

// BlockHTML рендерит блок целиком.
func BlockHTML(b edtypes.Block) string {
	var sb strings.Builder
	switch b.BlockType {
	case edtypes.BlockParagraph:
		fmt.Fprintf(&sb, "<p%s>%s</p>", alignStyle(b.Attributes), RenderHTML(b.Content))
	case edtypes.BlockHeading:
		level := b.Attributes.Level()
		if level < 1 || level > 6 {
			level = 2
		}
		fmt.Fprintf(&sb, "<h%d%s>%s</h%d>", level, alignStyle(b.Attributes), RenderHTML(b.Content), level)
	case edtypes.BlockQuote:
		fmt.Fprintf(&sb, "<blockquote>%s</blockquote>", RenderHTML(b.Content))
	case edtypes.BlockList:
		tag := "ul"
		start := ""
		if b.Attributes.Ordered() {
			tag = "ol"
			if n := b.Attributes.StartNumber(); n > 1 {
				start = fmt.Sprintf(` start="%d"`, n)
			}
		}
		fmt.Fprintf(&sb, "<%s%s>", tag, start)
		for _, li := range b.Children {
			fmt.Fprintf(&sb, "<li>%s</li>", RenderHTML(li.Content))
		}
		fmt.Fprintf(&sb, "</%s>", tag)
	case edtypes.BlockTable:
		td, _ := b.Data.(edtypes.TableData)
		sb.WriteString("<table>")
		for _, row := range td.Cells {
			sb.WriteString("<tr>")
			for _, cell := range row {
				fmt.Fprintf(&sb, "<td>%s</td>", html.EscapeString(cell))
			}
			sb.WriteString("</tr>")
		}
		sb.WriteString("</table>")
	case edtypes.BlockImage:
		img, _ := b.Data.(edtypes.ImageData)
		fmt.Fprintf(&sb, `<figure><img src="%s" alt="%s">`, html.EscapeString(img.Src), html.EscapeString(img.Alt))
		if img.Caption != "" {
			fmt.Fprintf(&sb, "<figcaption>%s</figcaption>", html.EscapeString(img.Caption))
		}
		sb.WriteString("</figure>")
	case edtypes.BlockMetric:
		m, _ := b.Data.(edtypes.MetricData)
		fmt.Fprintf(&sb, `<div data-metric="%s">%s: %s</div>`,
			html.EscapeString(string(m.Category)), html.EscapeString(m.MetricName), html.EscapeString(MetricValue(m)))
	case edtypes.BlockChart:
		c, _ := b.Data.(edtypes.ChartData)
		fmt.Fprintf(&sb, `<div data-chart="%s"></div>`, html.EscapeString(string(c.Type)))
	}
	return sb.String()
}

// MetricValue значение показателя вместе с единицей измерения.
func MetricValue(m edtypes.MetricData) string {
	v := ""
	if m.Value != nil {
		v = fmt.Sprint(m.Value)
	}
	if m.Unit != "" && v != "" {
		return v + " " + m.Unit
	}
	return v
}

func alignStyle(a edtypes.Attributes) string {
	switch a.Align() {
	case "center", "right", "justify":
		return fmt.Sprintf(` style="text-align: %s"`, a.Align())
	}
	return ""
}
