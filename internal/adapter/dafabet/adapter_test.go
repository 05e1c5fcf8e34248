package dafabet

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"BetenlaceSync/internal/adapter/adaptertest"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
)

const campaign = "dafabet latam"

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("start") != "2024-05-14" {
			t.Errorf("start = %q", r.URL.Query().Get("start"))
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMemberReport(t *testing.T) {
	srv := newServer(t, "Tracking Code,Date,Registrations,First Deposits,Active Players,CPA,Deposit,Turnover,Net Revenue\n"+
		"DF1,2024-05-14,3,2,2,1,200,800,150\n"+
		"DF2,2024-05-14,1,0,,,0,0,0\n"+
		"Total,,4,2,2,1,200,800,150\n")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{APIKey: "key", RevenueSharePercentage: 0.25})
	report, err := adaptertest.Run(t, NewDafabetAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Accounts) != 0 || len(report.Members) != 2 || report.Diagnostics.SummaryDrops != 1 {
		t.Fatalf("accounts=%d members=%d drops=%d", len(report.Accounts), len(report.Members), report.Diagnostics.SummaryDrops)
	}
	m := report.Members[0]
	if m.RegisteredCount != 3 || m.FirstDepositCount != 2 || m.CPACount == nil || *m.CPACount != 1 {
		t.Errorf("member = %+v", m)
	}
	if math.Abs(m.RevenueShare-37.5) > 1e-9 {
		t.Errorf("revenue share = %v", m.RevenueShare)
	}
	if report.Members[1].CPACount != nil || report.Members[1].WageringCount != nil {
		t.Error("blank counts should stay nil")
	}
}

func TestNoRecords(t *testing.T) {
	srv := newServer(t, "No records found")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{APIKey: "key", RevenueSharePercentage: 0.25})
	_, err := adaptertest.Run(t, NewDafabetAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestPercentageRequired(t *testing.T) {
	cfg := adaptertest.Config("http://127.0.0.1:0", campaign, config.CampaignConfig{APIKey: "key"})
	_, err := NewDafabetAdapter(cfg, adaptertest.Logger()).Policy(campaign)
	if !errors.Is(err, interfaces.ErrCampaignMisconfigured) {
		t.Fatalf("err = %v", err)
	}
}
