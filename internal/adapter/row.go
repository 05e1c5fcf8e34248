package adapter

import (
	"fmt"
	"strings"
	"time"

	"BetenlaceSync/internal/utils/parseutil"
)

// Row 逐字段解析一行，只保留第一个错误
type Row struct {
	where string
	err   error
}

// NewRow where 用于错误信息，如 "第3行"
func NewRow(where string) *Row { return &Row{where: where} }

func (r *Row) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

func (r *Row) Amount(s string) float64 {
	v, err := parseutil.ParseAmount(s)
	r.keep(err)
	return v
}

func (r *Row) DecimalComma(s string) float64 {
	v, err := parseutil.ParseDecimalComma(s)
	r.keep(err)
	return v
}

func (r *Row) Count(s string) int {
	v, err := parseutil.ParseCount(s)
	r.keep(err)
	return v
}

// OptCount 空串返回 nil
func (r *Row) OptCount(s string) *int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v := r.Count(s)
	return &v
}

// OptAmount 空串返回 nil
func (r *Row) OptAmount(s string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v := r.Amount(s)
	return &v
}

func (r *Row) Date(s string) *time.Time {
	v, err := parseutil.ParseDate(s)
	r.keep(err)
	return v
}

// Err 带位置的第一个错误
func (r *Row) Err() error {
	if r.err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", r.where, r.err)
}
