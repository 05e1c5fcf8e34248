package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"BetenlaceSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func noBackoff(t *testing.T) {
	t.Helper()
	prev := RetryBackoff
	RetryBackoff = func() time.Duration { return 0 }
	t.Cleanup(func() { RetryBackoff = prev })
}

func TestClientDo_RetriesThenSucceeds(t *testing.T) {
	noBackoff(t)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 5, quietLogger())
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("body = %q, want ok", resp.Body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestClientDo_ErrorKinds(t *testing.T) {
	noBackoff(t)
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, interfaces.ErrUpstreamAuth},
		{"forbidden", http.StatusForbidden, interfaces.ErrUpstreamAuth},
		{"server error", http.StatusInternalServerError, interfaces.ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.Client(), 5, quietLogger())
			_, err := c.Get(context.Background(), srv.URL, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := atomic.LoadInt32(&calls); got != 5 {
				t.Errorf("calls = %d, want 5", got)
			}
		})
	}
}

func TestClientDo_StopsOnCancel(t *testing.T) {
	noBackoff(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(srv.Client(), 5, quietLogger())
	if _, err := c.Get(ctx, srv.URL, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSessionLogin_KeepsCookie(t *testing.T) {
	noBackoff(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err != nil || c.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`data`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.Client(), 2, quietLogger())
	session, _, err := SessionLogin(context.Background(), c, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/login", nil)
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp, err := session.Get(context.Background(), srv.URL+"/report", nil)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if string(resp.Body) != "data" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestWithQuery(t *testing.T) {
	got, err := WithQuery("https://api.example.com/stats?from=2024-01-01", map[string]string{"api_key": "k"})
	if err != nil {
		t.Fatal(err)
	}
	want := "https://api.example.com/stats?api_key=k&from=2024-01-01"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
