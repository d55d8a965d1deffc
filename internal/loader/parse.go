// oreon/defense · watchthelight <wtl>

package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/oreonproject/detect/internal/table"
)

// parseTime accepts any layout dateparse recognizes; zone-less values are UTC.
func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// parseInt accepts integers and integral floats ("443", "443.0").
func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// cells reads the resolved columns of one row.
type cells struct {
	t   *table.Table
	row int
}

func (c cells) str(col int) *string {
	v, ok := c.t.Cell(c.row, col)
	if !ok {
		return nil
	}
	return &v
}

func (c cells) timestamp(col int) *time.Time {
	v, ok := c.t.Cell(c.row, col)
	if !ok {
		return nil
	}
	return parseTime(v)
}

func (c cells) integer(col int) *int {
	v, ok := c.t.Cell(c.row, col)
	if !ok {
		return nil
	}
	return parseInt(v)
}
