// Политики очистки HTML, приходящего из редактируемой поверхности блока.
//
// Основные возможности:
//   - SurfacePolicy оставляет только теги, которые парсер поверхности переводит в марки и ссылки.
//   - Ссылки ограничены схемами http, https, mailto и относительными адресами.
//   - StripTagsPolicy удаляет всю разметку, используется для заголовков и описаний.
package policy

import (
	"html"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var SurfacePolicy *bluemonday.Policy = bluemonday.NewPolicy()

// Теги, из которых парсер извлекает форматирование.
var surfaceElements = []string{
	"strong", "b",
	"em", "i",
	"u",
	"s", "strike", "del",
	"mark",
	"code",
	"sub", "sup",
	"br",
	"span", "p", "div",
}

func init() {
	targetRegexp := regexp.MustCompile(`^_(blank|self)$`)

	SurfacePolicy.AllowElements(surfaceElements...)
	SurfacePolicy.AllowAttrs("href").OnElements("a")
	SurfacePolicy.AllowAttrs("target").Matching(targetRegexp).OnElements("a")
	SurfacePolicy.AllowAttrs("title").OnElements("a")
	SurfacePolicy.AllowURLSchemes("http", "https", "mailto")
	SurfacePolicy.AllowRelativeURLs(true)
	SurfacePolicy.RequireNoFollowOnLinks(false)
	SurfacePolicy.RequireNoReferrerOnLinks(false)
	SurfacePolicy.AddTargetBlankToFullyQualifiedLinks(false)
}

// SanitizeSurface очищает HTML поверхности блока.
func SanitizeSurface(html string) string {
	return SurfacePolicy.Sanitize(html)
}

// StripTags удаляет всю разметку, оставляя текст без экранирования.
func StripTags(s string) string {
	return html.UnescapeString(StripTagsPolicy.Sanitize(s))
}
