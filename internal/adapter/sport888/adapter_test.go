package sport888

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/adapter/adaptertest"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
)

const campaign = "888sport col"

const playersCSV = "Row ID,Tracking Code,Player ID,Signup Date,FTD Date,Deposits,Stakes,Net Gaming,Commission,CPA Count\n" +
	"1,S8A,pl1,2024-05-14,2024-05-14,100,250,60,18,1\n" +
	"2,S8A,pl2,2024-05-01,,0,40,5,1.5,0\n" +
	"Total,,,,,100,290,65,19.5,1\n"

const membersCSV = "Tracking Code,Registrations,FTDs,Deposits,Stakes,Net Gaming,Commission,CPA\n" +
	"S8A,1,1,100,290,65,19.5,1\n" +
	"Total,1,1,100,290,65,19.5,1\n"

func newServer(t *testing.T, players, members string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/stats/players.csv":
			_, _ = w.Write([]byte(players))
		case "/stats/members.csv":
			_, _ = w.Write([]byte(members))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBothStreams(t *testing.T) {
	srv := newServer(t, playersCSV, membersCSV)
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{APIKey: "k"})
	report, err := adaptertest.Run(t, New888sportAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Accounts) != 2 || len(report.Members) != 1 || report.Diagnostics.SummaryDrops != 2 {
		t.Fatalf("accounts=%d members=%d drops=%d", len(report.Accounts), len(report.Members), report.Diagnostics.SummaryDrops)
	}
	if c := report.Accounts[0].RawCPACount; c == nil || *c != 1 {
		t.Errorf("raw cpa = %v", c)
	}
	if m := report.Members[0]; m.RevenueShare != 19.5 || m.CPACount == nil || *m.CPACount != 1 {
		t.Errorf("member = %+v", m)
	}
}

func TestOnlyMembers(t *testing.T) {
	srv := newServer(t, "NO_DATA", membersCSV)
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{APIKey: "k"})
	report, err := adaptertest.Run(t, New888sportAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Accounts) != 0 || len(report.Members) != 1 {
		t.Fatalf("accounts=%d members=%d", len(report.Accounts), len(report.Members))
	}
}

func TestBothEmpty(t *testing.T) {
	srv := newServer(t, "NO_DATA", "")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{APIKey: "k"})
	_, err := adaptertest.Run(t, New888sportAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestDebugFiles(t *testing.T) {
	srv := newServer(t, playersCSV, membersCSV)
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{APIKey: "k"})
	dir := t.TempDir()
	opts := interfaces.DefaultRunOptions()
	opts.File = filepath.Join(dir, "out.csv")
	opts.FileRaw = filepath.Join(dir, "raw.csv")
	req := &interfaces.FetchRequest{
		Campaign: campaign,
		Creds:    cfg.Campaigns[campaign],
		FromDate: adaptertest.Day,
		ToDate:   adaptertest.Day,
		Options:  opts,
	}
	if _, err := adapter.Run(context.Background(), New888sportAdapter(cfg, adaptertest.Logger()), req, adaptertest.Logger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, name := range []string{"raw.players.csv", "raw.members.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("raw part %s not written: %v", name, err)
		}
	}
	out, err := os.ReadFile(opts.File)
	if err != nil {
		t.Fatalf("read normalized: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "kind,prom_code") || !strings.HasPrefix(lines[3], "member,S8A") {
		t.Errorf("normalized csv = %q", out)
	}
}
