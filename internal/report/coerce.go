package report

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

var errBlank = errors.New("value is blank")

// parseNumber accepts plain numbers plus both the "1,234.5" and "1.234,5"
// conventions. Inner spaces are dropped.
func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if s == "" {
		return 0, errBlank
	}
	v, err := cast.ToFloat64E(decimalPoint(s))
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

// decimalPoint rewrites s so "." is the only separator left. When both marks
// appear the rightmost one is the decimal mark. A mark that repeats groups
// thousands, and so does a lone comma between a 1-3 digit integer part and
// exactly three digits ("1,234" but not "0,125" or "12,5").
func decimalPoint(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 || groupsThousands(s[:comma], s[comma+1:]) {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

func groupsThousands(intPart, frac string) bool {
	intPart = strings.TrimLeft(intPart, "+-")
	return len(frac) == 3 && len(intPart) >= 1 && len(intPart) <= 3 && intPart[0] != '0'
}

// numberOrZero applies the row-level fallback: bad numbers count as 0 and the
// problem is reported back as a warning line.
func numberOrZero(raw, id, field string) (float64, string) {
	v, err := parseNumber(raw)
	switch {
	case err == nil:
		return v, ""
	case errors.Is(err, errBlank):
		return 0, fmt.Sprintf("%s: %s is blank, counted as 0", id, field)
	default:
		return 0, fmt.Sprintf("%s: %s %v, counted as 0", id, field, err)
	}
}
