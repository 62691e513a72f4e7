package services

// Identity is the authenticated caller, decoded from the bearer token.
type Identity struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	NickName string `json:"nickName"`
}

// Page is a normalized pagination request.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// NewPage clamps page and limit to valid values.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

// PageMeta describes a page of results.
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newPageMeta(total int64, p Page) PageMeta {
	return PageMeta{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: int((total + int64(p.Limit) - 1) / int64(p.Limit)),
	}
}
