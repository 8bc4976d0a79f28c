package pagination

import (
	"net/url"
	"strconv"
)

// Params carries the optional limit/offset query parameters. A nil Limit
// bypasses pagination entirely.
type Params struct {
	Limit  *int
	Offset int
}

// Page is the list payload placed inside the response envelope.
type Page struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// ParseParams reads limit/offset from raw query values. Both must be
// non-negative integers when present; offenders are reported per field.
// A limit of zero counts as not supplied, so the full result set is
// returned rather than an empty page that links to itself.
func ParseParams(limit, offset string) (Params, map[string]string) {
	p := Params{}
	bad := map[string]string{}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			bad["limit"] = "must be a non-negative integer"
		} else if n > 0 {
			p.Limit = &n
		}
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			bad["offset"] = "must be a non-negative integer"
		} else {
			p.Offset = n
		}
	}
	if len(bad) > 0 {
		return Params{}, bad
	}
	return p, nil
}

// BuildPage assembles the page for the given request URL. With no limit the
// whole result set is returned and both cursors stay null. Next exists iff
// offset+limit < count; previous exists iff offset > 0, clamped to 0.
func BuildPage(reqURL *url.URL, results any, count int64, p Params) Page {
	page := Page{Count: count, Results: results}
	if p.Limit == nil {
		return page
	}
	limit := *p.Limit
	if int64(p.Offset+limit) < count {
		page.Next = cursorURL(reqURL, limit, p.Offset+limit)
	}
	if p.Offset > 0 {
		prev := p.Offset - limit
		if prev < 0 {
			prev = 0
		}
		page.Previous = cursorURL(reqURL, limit, prev)
	}
	return page
}

func cursorURL(reqURL *url.URL, limit, offset int) *string {
	u := *reqURL
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
