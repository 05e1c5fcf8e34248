package luckia

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/httpclient"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
)

const Name = "luckia"

// luckia 报表参数与日期列均为 DD-MM-YYYY
const dateLayout = "02-01-2006"

func init() {
	adapter.Register(Name, NewLuckiaAdapter)
}

// Adapter luckia：表单登录拿会话 cookie，CSV 以分号分隔、逗号小数，CPA 由博彩商给出日期
type Adapter struct {
	adapter.Base
}

func NewLuckiaAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"luckia es", "luckia col"},
		Family:   model.CPABookmakerDated,
		FISource: model.FixedIncomeFromCampaign,
	}}
}

var columns = []string{
	"Codigo Promocional", "ID Jugador", "Fecha Registro", "Fecha Primer Deposito", "Fecha CPA",
	"Depositos", "Apuestas", "Ingresos Netos", "Comision",
}

func (l *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"username": req.Creds.Username,
		"password": req.Creds.Password,
	}); err != nil {
		return nil, err
	}
	loginURL := l.AuthURL("/login")
	form := url.Values{"usuario": {req.Creds.Username}, "clave": {req.Creds.Password}}.Encode()
	session, _, err := httpclient.SessionLogin(ctx, l.Client(), func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	u, err := httpclient.WithQuery(l.URL("/informes/jugadores.csv"), map[string]string{
		"fechaDesde": req.FromDate.Format(dateLayout),
		"fechaHasta": req.ToDate.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	resp, err := session.Get(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("拉取luckia玩家报表失败: %w", err)
	}
	return l.Payload(req, adapter.Part("players", resp)), nil
}

func (l *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("players")
	if !ok {
		return nil, adapter.ParseErr("缺少players响应")
	}
	body := bytes.TrimSpace(part.Body)
	if len(body) == 0 || bytes.Contains(bytes.ToLower(body), []byte("no hay datos")) {
		return nil, adapter.Empty("luckia返回无数据")
	}
	table, err := parseutil.ReadCSV(body, ';', columns...)
	if err != nil {
		return nil, err
	}

	report := l.NewReport(req)
	report.Diagnostics.RawRows = len(table.Rows)
	for i, rec := range table.Rows {
		code := table.Get(rec, "Codigo Promocional")
		if strings.EqualFold(code, "total") {
			report.Diagnostics.SummaryDrops++
			continue
		}
		r := adapter.NewRow(fmt.Sprintf("第%d行", i+2))
		netRevenue := r.DecimalComma(table.Get(rec, "Ingresos Netos"))
		row := model.AccountRow{
			PromCode:       code,
			PunterID:       table.Get(rec, "ID Jugador"),
			Deposit:        r.DecimalComma(table.Get(rec, "Depositos")),
			Stake:          r.DecimalComma(table.Get(rec, "Apuestas")),
			NetRevenue:     netRevenue,
			RevenueShare:   l.RevenueShare(req, netRevenue, r.DecimalComma(table.Get(rec, "Comision"))),
			RegisteredAt:   r.Date(table.Get(rec, "Fecha Registro")),
			FirstDepositAt: r.Date(table.Get(rec, "Fecha Primer Deposito")),
			CPAAt:          r.Date(table.Get(rec, "Fecha CPA")),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d行缺少Codigo Promocional/ID Jugador", i+2)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
