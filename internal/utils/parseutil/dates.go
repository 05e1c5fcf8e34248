package parseutil

import (
	"fmt"
	"strings"
	"time"

	"BetenlaceSync/internal/interfaces"
)

// 博彩商常见的日期格式，斜杠一律按 MM/DD/YYYY，短横线日在前按 DD-MM-YYYY
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
	"02-01-2006",
	"02-01-2006 15:04:05",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006/01/02",
}

// ParseDate 解析博彩商日期，空值返回 nil
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "-", "n/a", "0000-00-00":
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := Day(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: 无法识别的日期 %q", interfaces.ErrParse, s)
}

// MustDay 解析 YYYY-MM-DD（命令行参数）
func MustDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式应为YYYY-MM-DD: %q", s)
	}
	return t, nil
}

// Day 截断到 UTC 零点
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay 两个日期是否同一天
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// MonthStart 当月第一天
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd 当月最后一天
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// SameMonth 两个日期是否同年同月
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Days 闭区间内的每一天（升序）
func Days(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
