package edtypes

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	res := make(map[string]any, len(in))
	for k, v := range in {
		res[k] = cloneValue(v)
	}
	return res
}

// cloneValue копирует значения, пришедшие из JSON (map, slice, скаляры).
func cloneValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return cloneMap(vv)
	case Attributes:
		return vv.Clone()
	case []any:
		res := make([]any, len(vv))
		for i, e := range vv {
			res[i] = cloneValue(e)
		}
		return res
	case []map[string]any:
		res := make([]map[string]any, len(vv))
		for i, e := range vv {
			res[i] = cloneMap(e)
		}
		return res
	case map[string]string:
		res := make(map[string]string, len(vv))
		for k, e := range vv {
			res[k] = e
		}
		return res
	case []string:
		return cloneStrings(vv)
	case [][]string:
		res := make([][]string, len(vv))
		for i, row := range vv {
			res[i] = cloneStrings(row)
		}
		return res
	}
	return v
}
