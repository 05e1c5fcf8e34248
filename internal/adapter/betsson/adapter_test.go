package betsson

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"BetenlaceSync/internal/adapter/adaptertest"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
)

const campaign = "betsson col"

func newServer(t *testing.T, csv string, tokens *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("client_id") != "id" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		atomic.AddInt32(tokens, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/reports/player-activity", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(csv))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func creds(id string) config.CampaignConfig {
	return config.CampaignConfig{ClientID: id, ClientSecret: "secret", CPAConditionFromRS: 30}
}

func TestParseReport(t *testing.T) {
	var tokens int32
	srv := newServer(t, "RowType,Date,Tracking Code,Player ID,Registration Date,First Deposit Date,Deposits,Turnover,Net Revenue,Commission\n"+
		"D,2024-05-14,BS1,u1,2024-05-10,2024-05-14,\"1,000.50\",300,90,27\n"+
		"D,2024-05-14,BS2,u2,,,0,15,-4,-1.2\n"+
		"S,2024-05-14,,,,,1000.50,315,86,25.8\n", &tokens)
	cfg := adaptertest.Config(srv.URL, campaign, creds("id"))
	report, err := adaptertest.Run(t, NewBetssonAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if atomic.LoadInt32(&tokens) != 1 {
		t.Errorf("token requests = %d, want 1", tokens)
	}
	if len(report.Accounts) != 2 || report.Diagnostics.SummaryDrops != 1 {
		t.Fatalf("accounts=%d drops=%d", len(report.Accounts), report.Diagnostics.SummaryDrops)
	}
	a := report.Accounts[0]
	if a.Deposit != 1000.5 || a.RevenueShare != 27 || a.NetRevenue != 90 {
		t.Errorf("row = %+v", a)
	}
	if report.Accounts[1].RevenueShare != -1.2 {
		t.Errorf("commission is authoritative, got %v", report.Accounts[1].RevenueShare)
	}
}

func TestHeaderOnlyIsEmpty(t *testing.T) {
	var tokens int32
	srv := newServer(t, "RowType,Tracking Code,Player ID,Registration Date,First Deposit Date,Deposits,Turnover,Net Revenue,Commission\n", &tokens)
	cfg := adaptertest.Config(srv.URL, campaign, creds("id"))
	_, err := adaptertest.Run(t, NewBetssonAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestMissingColumn(t *testing.T) {
	var tokens int32
	srv := newServer(t, "RowType,Tracking Code\nD,BS1\n", &tokens)
	cfg := adaptertest.Config(srv.URL, campaign, creds("id"))
	_, err := adaptertest.Run(t, NewBetssonAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrParse) {
		t.Fatalf("err = %v", err)
	}
}

func TestRejectedClient(t *testing.T) {
	var tokens int32
	srv := newServer(t, "", &tokens)
	cfg := adaptertest.Config(srv.URL, campaign, creds("other"))
	_, err := adaptertest.Run(t, NewBetssonAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamAuth) {
		t.Fatalf("err = %v", err)
	}
}
