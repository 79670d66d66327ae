package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidCriteria is returned for query values outside the known sets.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// ParseCriteria reads criteria from query parameters (search, category,
// status, year, sort). Missing parameters keep DefaultCriteria values.
// Status and sort names are matched case-insensitively.
func ParseCriteria(q url.Values) (Criteria, error) {
	c := DefaultCriteria()
	c.Search = strings.TrimSpace(q.Get("search"))

	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c.Category = v
	}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		switch strings.ToLower(v) {
		case "upcoming":
			c.Status = StatusUpcoming
		case "past":
			c.Status = StatusPast
		case "all":
			c.Status = StatusAll
		default:
			return Criteria{}, fmt.Errorf("%w: status %q", ErrInvalidCriteria, v)
		}
	}

	if v := strings.TrimSpace(q.Get("year")); v != "" && !strings.EqualFold(v, All) {
		y, err := strconv.Atoi(v)
		if err != nil || y <= 0 {
			return Criteria{}, fmt.Errorf("%w: year %q", ErrInvalidCriteria, v)
		}
		c.Year = y
	}

	if v := strings.TrimSpace(q.Get("sort")); v != "" {
		switch SortKey(strings.ToLower(v)) {
		case SortDateAsc, SortDateDesc, SortNameAsc:
			c.Sort = SortKey(strings.ToLower(v))
		default:
			return Criteria{}, fmt.Errorf("%w: sort %q", ErrInvalidCriteria, v)
		}
	}

	return c, nil
}

// ParseGalleryCriteria reads gallery criteria (category, year, search).
func ParseGalleryCriteria(q url.Values) (GalleryCriteria, error) {
	c := GalleryCriteria{
		Category: strings.TrimSpace(q.Get("category")),
		Year:     strings.TrimSpace(q.Get("year")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if c.Year != "" && !strings.EqualFold(c.Year, All) {
		if len(c.Year) != 4 {
			return GalleryCriteria{}, fmt.Errorf("%w: year %q", ErrInvalidCriteria, c.Year)
		}
		if _, err := strconv.Atoi(c.Year); err != nil {
			return GalleryCriteria{}, fmt.Errorf("%w: year %q", ErrInvalidCriteria, c.Year)
		}
	}
	if strings.EqualFold(c.Year, All) {
		c.Year = All
	}
	return c, nil
}
