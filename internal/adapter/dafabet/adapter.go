package dafabet

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/httpclient"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
)

const Name = "dafabet"

func init() {
	adapter.Register(Name, NewDafabetAdapter)
}

// Adapter dafabet：API key 放请求头，只提供按 tracking code 汇总的 member 报表
type Adapter struct {
	adapter.Base
}

func NewDafabetAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"dafabet latam"},
		Family:   model.CPACountProvided,
		FISource: model.FixedIncomeFromCampaign,
		LocalRS:  true,
	}}
}

var columns = []string{"Tracking Code", "Registrations", "First Deposits", "CPA", "Deposit", "Turnover", "Net Revenue"}

func (d *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{"api_key": req.Creds.APIKey}); err != nil {
		return nil, err
	}
	u, err := httpclient.WithQuery(d.URL("/affiliate/member-report"), map[string]string{
		"start": req.FromDate.Format(time.DateOnly),
		"end":   req.ToDate.Format(time.DateOnly),
	})
	if err != nil {
		return nil, err
	}
	resp, err := d.Client().Get(ctx, u, adapter.Header("X-API-KEY", req.Creds.APIKey, "Accept", "text/csv"))
	if err != nil {
		return nil, fmt.Errorf("拉取dafabet member报表失败: %w", err)
	}
	return d.Payload(req, adapter.Part("members", resp)), nil
}

func (d *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("members")
	if !ok {
		return nil, adapter.ParseErr("缺少members响应")
	}
	body := bytes.TrimSpace(part.Body)
	if len(body) == 0 || bytes.Contains(bytes.ToLower(body), []byte("no records found")) {
		return nil, adapter.Empty("dafabet返回无数据")
	}
	table, err := parseutil.ReadCSV(body, ',', columns...)
	if err != nil {
		return nil, err
	}

	report := d.NewReport(req)
	report.Diagnostics.RawRows = len(table.Rows)
	for i, rec := range table.Rows {
		code := table.Get(rec, "Tracking Code")
		if strings.EqualFold(code, "total") || code == "" {
			report.Diagnostics.SummaryDrops++
			continue
		}
		r := adapter.NewRow(fmt.Sprintf("第%d行", i+2))
		netRevenue := r.Amount(table.Get(rec, "Net Revenue"))
		row := model.MemberRow{
			PromCode:          code,
			Deposit:           r.Amount(table.Get(rec, "Deposit")),
			Stake:             r.Amount(table.Get(rec, "Turnover")),
			NetRevenue:        netRevenue,
			RevenueShare:      d.RevenueShare(req, netRevenue, 0),
			RegisteredCount:   r.Count(table.Get(rec, "Registrations")),
			FirstDepositCount: r.Count(table.Get(rec, "First Deposits")),
			CPACount:          r.OptCount(table.Get(rec, "CPA")),
			WageringCount:     r.OptCount(table.Get(rec, "Active Players")),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		report.Members = append(report.Members, row)
	}
	if report.Empty() {
		return nil, adapter.Empty("dafabet报表只有汇总行")
	}
	report.Diagnostics.MemberRows = len(report.Members)
	return report, nil
}
