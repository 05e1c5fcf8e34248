package httpclient

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHTTPClient_DecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") != "gzip" {
			t.Errorf("Accept-Encoding = %q", r.Header.Get("Accept-Encoding"))
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("prom_code,clicks\nabc,3\n"))
		_ = gz.Close()
	}))
	defer srv.Close()

	c := NewClient(NewHTTPClient(Settings{Timeout: 5}, quietLogger()), 1, quietLogger())
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "prom_code,clicks\nabc,3\n" {
		t.Fatalf("body = %q", resp.Body)
	}
	if resp.Header.Get("Content-Encoding") != "" {
		t.Fatalf("解压后应移除 Content-Encoding")
	}
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	hc := NewHTTPClient(Settings{Proxy: "://bad"}, quietLogger())
	if hc.Timeout <= 0 {
		t.Fatalf("timeout = %v", hc.Timeout)
	}
}
