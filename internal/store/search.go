package store

import (
	"strings"

	"github.com/ezrizhu/bgpdash/internal/api"
)

// Query selects updates. Zero fields do not filter.
type Query struct {
	Date    string
	Prefix  string
	ASN     uint32
	Page    int
	PerPage int
}

func (q Query) matches(u api.Update) bool {
	if q.Date != "" && !strings.HasPrefix(u.Timestamp, q.Date) {
		return false
	}
	if q.Prefix != "" && u.Prefix != q.Prefix {
		return false
	}
	if q.ASN != 0 && u.OriginAS != q.ASN {
		return false
	}
	return true
}

// Search returns one page of the updates matching q. Pages are 1-based; a
// page past the end is empty.
func (s *Store) Search(q Query) api.UpdatePage {
	if q.Page < 1 {
		q.Page = api.DefaultPage
	}
	if q.PerPage < 1 {
		q.PerPage = api.DefaultPerPage
	}
	if q.PerPage > api.MaxPerPage {
		q.PerPage = api.MaxPerPage
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []api.Update
	for _, u := range s.data.Updates {
		if q.matches(u) {
			matched = append(matched, u)
		}
	}

	n := len(matched)
	page := api.UpdatePage{
		Total:       n,
		TotalPages:  n / q.PerPage,
		CurrentPage: q.Page,
		Data:        []api.Update{},
	}
	if n%q.PerPage != 0 {
		page.TotalPages++
	}

	// compare page counts before multiplying so huge pages cannot overflow
	if q.Page > page.TotalPages {
		return page
	}
	start := (q.Page - 1) * q.PerPage
	end := start + q.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	page.Data = append(page.Data, matched[start:end]...)
	return page
}
