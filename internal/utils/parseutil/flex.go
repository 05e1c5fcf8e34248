package parseutil

import (
	"bytes"
	"encoding/json"
	"time"
)

// Flex 博彩商 JSON 中数字、字符串、null 混用的字段
type Flex string

func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
	default:
		*f = Flex(b)
	}
	return nil
}

func (f Flex) String() string { return string(f) }

// Present 字段非空
func (f Flex) Present() bool { return f != "" }

func (f Flex) Amount() (float64, error)  { return ParseAmount(string(f)) }
func (f Flex) Count() (int, error)       { return ParseCount(string(f)) }
func (f Flex) Date() (*time.Time, error) { return ParseDate(string(f)) }
