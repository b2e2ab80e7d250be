package editor

import (
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/editor/edtypes"
)

// MergeAdjacent объединяет соседние фрагменты с одинаковыми марками (без учета порядка) и ссылкой.
// Результат сохраняет идентификатор первого фрагмента группы и первую аннотацию группы.
// Входной срез не меняется.
func MergeAdjacent(runs []edtypes.Inline) []edtypes.Inline {
	if len(runs) < 2 {
		return edtypes.CloneInlines(runs)
	}

	merged := make([]edtypes.Inline, 0, len(runs))
	prev := runs[0].Clone()
	for _, cur := range runs[1:] {
		if prev.SameFormat(cur) {
			prev.Text += cur.Text
			if prev.Annotation == nil && cur.Annotation != nil {
				prev.Annotation = cur.Clone().Annotation
			}
			continue
		}
		merged = append(merged, prev)
		prev = cur.Clone()
	}
	return append(merged, prev)
}

// PlainText текст фрагментов без форматирования.
func PlainText(runs []edtypes.Inline) string {
	return edtypes.InlinesText(runs)
}
