package types

// Filter: параметры фильтрации и пагинации из query-строки.
type Filter struct {
	Search         string                 `json:"search,omitempty"`
	Sort           map[string]string      `json:"sort,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	Page           int                    `json:"page"`
	WithPagination bool                   `json:"with_pagination"`
}

// String возвращает строковое значение фильтра или "".
func (f Filter) String(key string) string {
	if v, ok := f.Filter[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

type Pagination struct {
	TotalCount uint64 `json:"total_count"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}

// http://localhost:8080/api/permanences?search=...&sort[date]=desc&filter[statut]=validee&limit=10&page=1&withPagination=true
