package parseutil

import (
	"fmt"
	"strconv"
	"strings"

	"BetenlaceSync/internal/interfaces"
)

func cleanNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", "€", "", "£", "", "USD", "", "EUR", "", " ", "", "\u00a0", "").Replace(s)
	return s, neg
}

// ParseAmount 点号小数、逗号千分位，空值为 0
func ParseAmount(s string) (float64, error) {
	c, neg := cleanNumber(s)
	if c == "" || c == "-" {
		return 0, nil
	}
	// 同时出现时以最后出现的分隔符为小数点
	if strings.Contains(c, ",") && strings.Contains(c, ".") && strings.LastIndex(c, ",") > strings.LastIndex(c, ".") {
		return ParseDecimalComma(s)
	}
	c = strings.ReplaceAll(c, ",", "")
	return toFloat(c, neg, s)
}

// ParseDecimalComma 逗号小数、点号千分位（如 1.234,56）
func ParseDecimalComma(s string) (float64, error) {
	c, neg := cleanNumber(s)
	if c == "" || c == "-" {
		return 0, nil
	}
	c = strings.ReplaceAll(c, ".", "")
	c = strings.ReplaceAll(c, ",", ".")
	return toFloat(c, neg, s)
}

func toFloat(c string, neg bool, orig string) (float64, error) {
	f, err := strconv.ParseFloat(c, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: 无法识别的金额 %q", interfaces.ErrParse, orig)
	}
	if neg {
		f = -f
	}
	return f, nil
}

// ParseCount 计数字段，兼容 "1.0" 形式
func ParseCount(s string) (int, error) {
	c := strings.TrimSpace(s)
	if c == "" || c == "-" {
		return 0, nil
	}
	if n, err := strconv.Atoi(c); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(c, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: 无法识别的计数 %q", interfaces.ErrParse, s)
	}
	return int(f), nil
}

// Ptr 取地址
func Ptr[T any](v T) *T { return &v }
