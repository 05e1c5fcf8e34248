package rushbet

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BetenlaceSync/internal/adapter/adaptertest"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
)

const campaign = "rushbet col"

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Access-Key") != "ak" || r.Header.Get("Secret-Key") != "sk" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if got := r.URL.Query().Get("start"); got != "05/14/2024" {
			t.Errorf("start = %q", got)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

var creds = config.CampaignConfig{AccessKey: "ak", SecretKey: "sk"}

func TestMonthFirstDates(t *testing.T) {
	srv := newServer(t, "Tracker,Player,Registration Date,First Deposit Date,Deposits,Wagers,Net Revenue,RevShare,CPA\n"+
		"RB1,x9,05/02/2024,05/14/2024,\"$1,500.00\",900,120,36,1\n"+
		"RB1,x10,,,0,0,0,0,2\n"+
		"Grand Total,,,,1500,900,120,36,3\n")
	cfg := adaptertest.Config(srv.URL, campaign, creds)
	report, err := adaptertest.Run(t, NewRushbetAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Accounts) != 2 || report.Diagnostics.SummaryDrops != 1 {
		t.Fatalf("accounts=%d drops=%d", len(report.Accounts), report.Diagnostics.SummaryDrops)
	}
	a := report.Accounts[0]
	if a.RegisteredAt == nil || !a.RegisteredAt.Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("registered_at = %v, want May 2", a.RegisteredAt)
	}
	if a.Deposit != 1500 || a.RevenueShare != 36 {
		t.Errorf("row = %+v", a)
	}
	// 计数 >1 原样输出，由 CPA 判定标记为数据异常
	if c := report.Accounts[1].RawCPACount; c == nil || *c != 2 {
		t.Errorf("raw cpa = %v", c)
	}
}

func TestNoResults(t *testing.T) {
	srv := newServer(t, "No results for the selected period")
	cfg := adaptertest.Config(srv.URL, campaign, creds)
	_, err := adaptertest.Run(t, NewRushbetAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestForbidden(t *testing.T) {
	srv := newServer(t, "")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{AccessKey: "ak", SecretKey: "nope"})
	_, err := adaptertest.Run(t, NewRushbetAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamAuth) {
		t.Fatalf("err = %v", err)
	}
}
