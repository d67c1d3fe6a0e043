package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"contabile/internal/core"
)

var errBadJSON = errors.New("invalid request body")

// decodeJSON parses the request body into v. Unknown fields are ignored,
// so clients resubmitting a full record (extra status, id, owner fields)
// still get the write applied.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s %q", errBadJSON, name, raw)
	}
	return id, nil
}

// pathInt parses a numeric path segment such as {month} or {year}.
func pathInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", errBadJSON, name, raw)
	}
	return n, nil
}

// dateRange parses optional startDate/endDate query parameters. Missing
// values come back as zero dates, which downstream treats as open ends.
func dateRange(query url.Values) (from, to core.Date, err error) {
	if v := strings.TrimSpace(query.Get("startDate")); v != "" {
		from, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	if v := strings.TrimSpace(query.Get("endDate")); v != "" {
		to, err = core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, err
		}
	}
	return from, to, nil
}

// monthYear parses month/year query parameters, both required.
func monthYear(query url.Values) (month, year int, err error) {
	month, err = strconv.Atoi(strings.TrimSpace(query.Get("month")))
	if err != nil {
		return 0, 0, core.ErrInvalidMonth
	}
	year, err = strconv.Atoi(strings.TrimSpace(query.Get("year")))
	if err != nil {
		return 0, 0, core.ErrInvalidYear
	}
	return month, year, nil
}
