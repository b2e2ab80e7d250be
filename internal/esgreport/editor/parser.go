// Пакет переводит HTML редактируемой поверхности блока в последовательность текстовых фрагментов модели и обратно.
//
// Основные возможности:
//   - Разбор фрагмента HTML из io.Reader или уже разобранного узла.
//   - Перевод тегов форматирования в марки (strong/b, em/i, u, s/strike, mark, code, sub, sup).
//   - Перевод ссылок <a> в ссылку фрагмента с target="_blank".
//   - Слияние соседних фрагментов с одинаковым форматированием.
//   - Рендер фрагментов обратно в HTML и извлечение плоского текста.
package editor

import (
	"io"
	"log/slog"
	"strings"

	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
	policy "github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/redactor-policy"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkTarget значение target у ссылок, полученных с поверхности.
const LinkTarget = "_blank"

// ParseInlines разбирает внутренний HTML поверхности и возвращает нормализованные фрагменты.
func ParseInlines(r io.Reader) ([]edtypes.Inline, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, err
	}

	var runs []edtypes.Inline
	for _, n := range nodes {
		runs = append(runs, parseNode(n)...)
	}
	return MergeAdjacent(runs), nil
}

// SanitizeAndParse очищает HTML политикой поверхности и разбирает его.
func SanitizeAndParse(surface string) ([]edtypes.Inline, error) {
	return ParseInlines(strings.NewReader(policy.SanitizeSurface(surface)))
}

// InlinesFromNode разбирает детей уже построенного узла поверхности.
func InlinesFromNode(root *html.Node) []edtypes.Inline {
	if root == nil {
		return nil
	}
	var runs []edtypes.Inline
	for c := range root.ChildNodes() {
		runs = append(runs, parseNode(c)...)
	}
	return MergeAdjacent(runs)
}

func parseNode(n *html.Node) []edtypes.Inline {
	switch n.Type {
	case html.TextNode:
		if len(n.Data) == 0 {
			return nil
		}
		return []edtypes.Inline{edtypes.NewInline(n.Data)}
	case html.ElementNode:
	default:
		// комментарии, doctype
		return nil
	}

	var children []edtypes.Inline
	for c := range n.ChildNodes() {
		children = append(children, parseNode(c)...)
	}

	switch strings.ToLower(n.Data) {
	case "strong", "b":
		return addMark(children, edtypes.MarkBold)
	case "em", "i":
		return addMark(children, edtypes.MarkItalic)
	case "u":
		return addMark(children, edtypes.MarkUnderline)
	case "s", "strike", "del":
		return addMark(children, edtypes.MarkStrike)
	case "mark":
		return addMark(children, edtypes.MarkHighlight)
	case "code":
		return addMark(children, edtypes.MarkCode)
	case "sub":
		return addMark(children, edtypes.MarkSubscript)
	case "sup":
		return addMark(children, edtypes.MarkSuperscript)
	case "a":
		href := getAttrValue("href", n.Attr)
		title := getAttrValue("title", n.Attr)
		for i := range children {
			children[i].Link = &edtypes.Link{URL: href, Title: title, Target: LinkTarget}
		}
		return children
	case "br":
		return []edtypes.Inline{edtypes.NewInline("\n")}
	default:
		if len(children) == 0 && n.FirstChild == nil {
			slog.Debug("Skip empty element on surface", "tag", n.Data)
		}
		return children
	}
}

func addMark(runs []edtypes.Inline, m edtypes.Mark) []edtypes.Inline {
	for i := range runs {
		runs[i].Marks = runs[i].Marks.With(m)
	}
	return runs
}

func getAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
