package sport888

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

const Name = "888sport"

func init() {
	adapter.Register(Name, New888sportAdapter)
}

// Adapter 888sport：API key 走 query，玩家与 tracking code 两份 CSV，均带汇总行
type Adapter struct {
	adapter.Base
}

func New888sportAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"888sport col", "888sport latam"},
		Family:   model.CPACountProvided,
		FISource: model.FixedIncomeFromCampaign,
	}}
}

var (
	playerColumns = []string{"Row ID", "Tracking Code", "Player ID", "Signup Date", "FTD Date", "Deposits", "Stakes", "Net Gaming", "Commission", "CPA Count"}
	memberColumns = []string{"Tracking Code", "Registrations", "FTDs", "Deposits", "Stakes", "Net Gaming", "Commission", "CPA"}
)

func (s *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{"api_key": req.Creds.APIKey}); err != nil {
		return nil, err
	}
	c := s.Client()
	params := map[string]string{
		"key":  req.Creds.APIKey,
		"from": req.FromDate.Format(time.DateOnly),
		"to":   req.ToDate.Format(time.DateOnly),
	}
	payload := s.Payload(req)
	for _, name := range []string{"players", "members"} {
		u, err := httpclient.WithQuery(s.URL("/stats/"+name+".csv"), params)
		if err != nil {
			return nil, err
		}
		resp, err := c.Get(ctx, u, nil)
		if err != nil {
			return nil, fmt.Errorf("拉取888sport %s报表失败: %w", name, err)
		}
		payload.Parts = append(payload.Parts, adapter.Part(name, resp))
	}
	return payload, nil
}

func noData(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) == 0 || bytes.EqualFold(body, []byte("NO_DATA"))
}

func (s *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	players, ok1 := raw.Part("players")
	members, ok2 := raw.Part("members")
	if !ok1 || !ok2 {
		return nil, adapter.ParseErr("缺少players/members响应")
	}
	if noData(players.Body) && noData(members.Body) {
		return nil, adapter.Empty("888sport返回无数据")
	}

	report := s.NewReport(req)
	if !noData(players.Body) {
		if err := s.parsePlayers(players.Body, req, report); err != nil {
			return nil, err
		}
	}
	if !noData(members.Body) {
		if err := s.parseMembers(members.Body, req, report); err != nil {
			return nil, err
		}
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	report.Diagnostics.MemberRows = len(report.Members)
	return report, nil
}

func (s *Adapter) parsePlayers(body []byte, req *interfaces.FetchRequest, report *model.NormalizedReport) error {
	table, err := parseutil.ReadCSV(body, ',', playerColumns...)
	if err != nil {
		return fmt.Errorf("players: %w", err)
	}
	report.Diagnostics.RawRows += len(table.Rows)
	for i, rec := range table.Rows {
		if strings.EqualFold(table.Get(rec, "Row ID"), "total") || table.Get(rec, "Player ID") == "" {
			report.Diagnostics.SummaryDrops++
			continue
		}
		r := adapter.NewRow(fmt.Sprintf("players第%d行", i+2))
		netRevenue := r.Amount(table.Get(rec, "Net Gaming"))
		row := model.AccountRow{
			PromCode:       table.Get(rec, "Tracking Code"),
			PunterID:       table.Get(rec, "Player ID"),
			Deposit:        r.Amount(table.Get(rec, "Deposits")),
			Stake:          r.Amount(table.Get(rec, "Stakes")),
			NetRevenue:     netRevenue,
			RevenueShare:   s.RevenueShare(req, netRevenue, r.Amount(table.Get(rec, "Commission"))),
			RegisteredAt:   r.Date(table.Get(rec, "Signup Date")),
			FirstDepositAt: r.Date(table.Get(rec, "FTD Date")),
			RawCPACount:    r.OptCount(table.Get(rec, "CPA Count")),
		}
		if err := r.Err(); err != nil {
			return err
		}
		if row.PromCode == "" {
			return adapter.ParseErr("players第%d行缺少Tracking Code", i+2)
		}
		report.Accounts = append(report.Accounts, row)
	}
	return nil
}

func (s *Adapter) parseMembers(body []byte, req *interfaces.FetchRequest, report *model.NormalizedReport) error {
	table, err := parseutil.ReadCSV(body, ',', memberColumns...)
	if err != nil {
		return fmt.Errorf("members: %w", err)
	}
	report.Diagnostics.RawRows += len(table.Rows)
	for i, rec := range table.Rows {
		code := table.Get(rec, "Tracking Code")
		if code == "" || strings.EqualFold(code, "total") {
			report.Diagnostics.SummaryDrops++
			continue
		}
		r := adapter.NewRow(fmt.Sprintf("members第%d行", i+2))
		netRevenue := r.Amount(table.Get(rec, "Net Gaming"))
		row := model.MemberRow{
			PromCode:          code,
			Deposit:           r.Amount(table.Get(rec, "Deposits")),
			Stake:             r.Amount(table.Get(rec, "Stakes")),
			NetRevenue:        netRevenue,
			RevenueShare:      s.RevenueShare(req, netRevenue, r.Amount(table.Get(rec, "Commission"))),
			RegisteredCount:   r.Count(table.Get(rec, "Registrations")),
			FirstDepositCount: r.Count(table.Get(rec, "FTDs")),
			CPACount:          r.OptCount(table.Get(rec, "CPA")),
		}
		if err := r.Err(); err != nil {
			return err
		}
		report.Members = append(report.Members, row)
	}
	return nil
}
