package parseutil

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"BetenlaceSync/internal/interfaces"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2024-03-07", &want},
		{"2024-03-07 13:45:00", &want},
		{"2024-03-07T13:45:00Z", &want},
		{"07-03-2024", &want},
		{"03/07/2024", &want},
		{"", nil},
		{"null", nil},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", tt.in, err)
		}
		if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDate("7 March"); !errors.Is(err, interfaces.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{"1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"$ 30", 30},
		{"(15.25)", -15.25},
		{"-3", -3},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDecimalComma(t *testing.T) {
	got, err := ParseDecimalComma("1.234,5")
	if err != nil || got != 1234.5 {
		t.Errorf("got %v, %v", got, err)
	}
	got, err = ParseDecimalComma("-12,75")
	if err != nil || got != -12.75 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestParseCount(t *testing.T) {
	if n, err := ParseCount("1.0"); err != nil || n != 1 {
		t.Errorf("got %d, %v", n, err)
	}
	if _, err := ParseCount("1.5"); !errors.Is(err, interfaces.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	body := []byte("\xef\xbb\xbfPromCode; Deposit ;Punter\nAB1;1,5;u1\n\n;;\nAB2;2;u2\n")
	tbl, err := ReadCSV(body, ';', "promcode", "deposit")
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if got := tbl.Get(tbl.Rows[1], "PUNTER"); got != "u2" {
		t.Errorf("punter = %q", got)
	}
	if tbl.Get(tbl.Rows[0], "missing") != "" {
		t.Error("missing column should be empty")
	}

	if _, err := ReadCSV([]byte("a,b\n1,2\n"), ',', "c"); !errors.Is(err, interfaces.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestDays(t *testing.T) {
	from := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	days := Days(from, to)
	if len(days) != 3 || !days[1].Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("days = %v", days)
	}
	if !MonthEnd(from).Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month end = %v", MonthEnd(from))
	}
}

func TestFlex(t *testing.T) {
	var row struct {
		A Flex `json:"a"`
		B Flex `json:"b"`
		C Flex `json:"c"`
		D Flex `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":12.5,"b":"1,200.50","c":null,"d":"2024-05-14"}`), &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, _ := row.A.Amount(); v != 12.5 {
		t.Errorf("a = %v", v)
	}
	if v, _ := row.B.Amount(); v != 1200.5 {
		t.Errorf("b = %v", v)
	}
	if row.C.Present() {
		t.Error("null should not be present")
	}
	if d, _ := row.D.Date(); d == nil || d.Day() != 14 {
		t.Errorf("d = %v", d)
	}
}
