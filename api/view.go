package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/SzematPro/ai-task-manager/board"
	"github.com/SzematPro/ai-task-manager/domain"
)

var (
	errInvalidStatus    = errors.New("invalid status filter")
	errInvalidPriority  = errors.New("invalid priority filter")
	errInvalidSort      = errors.New("invalid sort field")
	errInvalidDirection = errors.New("invalid sort direction")
	errInvalidDueRange  = errors.New("invalid due date range")
)

// viewFromQuery overlays the request's query parameters on base. changed
// reports whether any view parameter was present.
func viewFromQuery(c echo.Context, base board.View) (v board.View, changed bool, err error) {
	v = base
	params := c.QueryParams()
	has := func(name string) bool {
		_, ok := params[name]
		return ok
	}

	if has("status") {
		v.Filter.Status = strings.TrimSpace(c.QueryParam("status"))
		changed = true
	}
	if has("priority") {
		v.Filter.Priority = strings.TrimSpace(c.QueryParam("priority"))
		changed = true
	}
	if has("category") {
		v.Filter.Category = strings.TrimSpace(c.QueryParam("category"))
		changed = true
	}
	if has("dueFrom") {
		v.Filter.DueFrom, err = optionalDate(c.QueryParam("dueFrom"))
		if err != nil {
			return base, false, errInvalidDueRange
		}
		changed = true
	}
	if has("dueTo") {
		v.Filter.DueTo, err = optionalDate(c.QueryParam("dueTo"))
		if err != nil {
			return base, false, errInvalidDueRange
		}
		changed = true
	}
	if has("sort") {
		field, ok := board.ParseSortField(c.QueryParam("sort"))
		if !ok {
			return base, false, errInvalidSort
		}
		v.Sort.Field = field
		changed = true
	}
	if has("direction") {
		dir, ok := board.ParseDirection(c.QueryParam("direction"))
		if !ok {
			return base, false, errInvalidDirection
		}
		v.Sort.Direction = dir
		changed = true
	}
	if has("q") {
		v.Query = c.QueryParam("q")
		changed = true
	}
	v, err = normalizeView(v)
	if err != nil {
		return base, false, err
	}
	return v, changed, nil
}

func optionalDate(raw string) (*domain.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// normalizeView rejects filters and sorts the board cannot apply and maps
// sort aliases to their canonical names. Empty values mean "no filter" or
// the default sort.
func normalizeView(v board.View) (board.View, error) {
	if s := v.Filter.Status; s != "" && s != board.Wildcard && !domain.Status(s).Valid() {
		return v, errInvalidStatus
	}
	if p := v.Filter.Priority; p != "" && p != board.Wildcard && !domain.Priority(p).Valid() {
		return v, errInvalidPriority
	}
	if f := v.Sort.Field; f != "" {
		field, ok := board.ParseSortField(string(f))
		if !ok {
			return v, errInvalidSort
		}
		v.Sort.Field = field
	}
	if d := v.Sort.Direction; d != "" {
		dir, ok := board.ParseDirection(string(d))
		if !ok {
			return v, errInvalidDirection
		}
		v.Sort.Direction = dir
	}
	if v.Filter.DueFrom != nil && v.Filter.DueTo != nil && v.Filter.DueTo.Before(v.Filter.DueFrom.Time) {
		return v, errInvalidDueRange
	}
	return v, nil
}
