package luckia

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

const campaign = "luckia es"

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("usuario") != "u" || r.PostForm.Get("clave") != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "s1", Path: "/"})
	})
	mux.HandleFunc("/informes/jugadores.csv", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("JSESSIONID"); err != nil || c.Value != "s1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("fechaDesde") != "14-05-2024" {
			t.Errorf("fechaDesde = %q", r.URL.Query().Get("fechaDesde"))
		}
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseSemicolonCSV(t *testing.T) {
	srv := newServer(t, "Codigo Promocional;ID Jugador;Fecha Registro;Fecha Primer Deposito;Fecha CPA;Depositos;Apuestas;Ingresos Netos;Comision\n"+
		"LK1;j1;02-05-2024;03-05-2024;14-05-2024;1.234,50;300,00;100,00;25,00\n"+
		"LK1;j2;;;;0;0;-10,5;-2,63\n"+
		"TOTAL;;;;;1.234,50;300,00;89,50;22,37\n")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{Username: "u", Password: "p"})
	report, err := adaptertest.Run(t, NewLuckiaAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Accounts) != 2 || report.Diagnostics.SummaryDrops != 1 {
		t.Fatalf("accounts=%d drops=%d", len(report.Accounts), report.Diagnostics.SummaryDrops)
	}
	a := report.Accounts[0]
	if a.Deposit != 1234.5 || a.Stake != 300 || a.RevenueShare != 25 {
		t.Errorf("row = %+v", a)
	}
	if a.RegisteredAt == nil || !a.RegisteredAt.Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("registered_at = %v", a.RegisteredAt)
	}
	if a.CPAAt == nil || !a.CPAAt.Equal(adaptertest.Day) {
		t.Errorf("cpa_at = %v", a.CPAAt)
	}
	if report.Accounts[1].CPAAt != nil || report.Accounts[1].NetRevenue != -10.5 {
		t.Errorf("row 2 = %+v", report.Accounts[1])
	}
}

func TestNoData(t *testing.T) {
	srv := newServer(t, "No hay datos para el periodo")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{Username: "u", Password: "p"})
	_, err := adaptertest.Run(t, NewLuckiaAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := newServer(t, "")
	cfg := adaptertest.Config(srv.URL, campaign, config.CampaignConfig{Username: "u", Password: "wrong"})
	_, err := adaptertest.Run(t, NewLuckiaAdapter(cfg, adaptertest.Logger()), cfg, campaign)
	if !errors.Is(err, interfaces.ErrUpstreamAuth) {
		t.Fatalf("err = %v", err)
	}
}
