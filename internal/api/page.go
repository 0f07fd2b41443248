package api

import (
	"fmt"
	"strconv"
	"strings"
)

// Page is one page of a collection plus the server's count of the whole collection.
type Page[E any] struct {
	Items  []E
	Total  int
	Number int
}

type pageQuery struct {
	Page    int `schema:"page"`
	PerPage int `schema:"per_page"`
}

// ParseTotal reads the collection size the server reports in the "total" header.
// Servers have been seen sending it as "12", " 12 " and "12.0"; anything that is not
// a non-negative whole number is a malformed response.
func ParseTotal(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: missing total", ErrMalformedResponse)
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative total %d", ErrMalformedResponse, n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: total %q", ErrMalformedResponse, raw)
	}
	return int(f), nil
}
