package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// paging reads limit/offset with the given default and cap.
func paging(c echo.Context, def, max int) (int, int, error) {
	limit, offset := def, 0
	err := echo.QueryParamsBinder(c).Int("limit", &limit).Int("offset", &offset).BindError()
	if err != nil {
		return 0, 0, err
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset, nil
}
