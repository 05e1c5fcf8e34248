package parseutil

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"BetenlaceSync/internal/interfaces"
)

// Table 带表头索引的 CSV
type Table struct {
	Header map[string]int
	Rows   [][]string
}

// ReadCSV 读取整份 CSV，required 中的列必须存在（大小写、首尾空格不敏感）
func ReadCSV(body []byte, comma rune, required ...string) (*Table, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = comma
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &Table{Header: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: 读取表头失败: %v", interfaces.ErrParse, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	for _, col := range required {
		if _, ok := idx[normalizeHeader(col)]; !ok {
			return nil, fmt.Errorf("%w: 缺少列 %q（表头: %v）", interfaces.ErrParse, col, header)
		}
	}

	t := &Table{Header: idx}
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: 第%d行: %v", interfaces.ErrParse, line, err)
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Get 取某行某列，列不存在或越界返回空串
func (t *Table) Get(row []string, col string) string {
	i, ok := t.Header[normalizeHeader(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Has 表头是否包含某列
func (t *Table) Has(col string) bool {
	_, ok := t.Header[normalizeHeader(col)]
	return ok
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
