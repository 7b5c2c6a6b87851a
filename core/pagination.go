package core

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageQuery holds the common list parameters.
type PageQuery struct {
	Page      int
	Limit     int
	Search    string
	Orderings []DBOrdering
}

// Clean applies defaults and bounds: page >= 1, 1 <= limit <= MaxPageSize.
func (q *PageQuery) Clean() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	q.Search = CleanString(q.Search)
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Page is a paginated list response.
type Page struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

func NewPage(data interface{}, total int, q PageQuery) Page {
	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return Page{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}
}

// Paginate returns the [start, end) bounds of the requested page within n items.
func Paginate(n int, q PageQuery) (start, end int) {
	start = q.Offset()
	if start > n {
		start = n
	}
	end = start + q.Limit
	if end > n {
		end = n
	}
	return start, end
}
