package services

import "github.com/dmitrijs2005/guildgate/internal/server/models"

// DefaultPageSize is the number of applications per review page.
const DefaultPageSize = 5

// Page is one page of the review queue. Index is zero-based.
type Page struct {
	Items     []*models.Application
	Index     int
	PageCount int
	Total     int
	HasPrev   bool
	HasNext   bool
}

// Paginate cuts apps into pages of pageSize (DefaultPageSize when < 1) and
// returns the page at pageIndex, clamped to the existing pages.
func Paginate(apps []*models.Application, pageIndex, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(apps)
	pageCount := (total + pageSize - 1) / pageSize

	last := pageCount - 1
	if last < 0 {
		last = 0
	}
	if pageIndex > last {
		pageIndex = last
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	start := pageIndex * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:     apps[start:end:end],
		Index:     pageIndex,
		PageCount: pageCount,
		Total:     total,
		HasPrev:   pageIndex > 0,
		HasNext:   pageIndex < pageCount-1,
	}
}
