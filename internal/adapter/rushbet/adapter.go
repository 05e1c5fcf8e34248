package rushbet

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/httpclient"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
)

const Name = "rushbet"

// rushbet 参数与日期列为 MM/DD/YYYY
const dateLayout = "01/02/2006"

func init() {
	adapter.Register(Name, NewRushbetAdapter)
}

// Adapter rushbet：Access-Key/Secret-Key 请求头，CSV，CPA 计数由博彩商给出，RS 采用 RevShare
type Adapter struct {
	adapter.Base
}

func NewRushbetAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"rushbet col"},
		Family:   model.CPACountProvided,
		FISource: model.FixedIncomeFromCampaign,
	}}
}

var columns = []string{"Tracker", "Player", "Registration Date", "First Deposit Date", "Deposits", "Wagers", "Net Revenue", "RevShare", "CPA"}

func (rb *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"access_key": req.Creds.AccessKey,
		"secret_key": req.Creds.SecretKey,
	}); err != nil {
		return nil, err
	}
	u, err := httpclient.WithQuery(rb.URL("/affiliates/reports/players.csv"), map[string]string{
		"start": req.FromDate.Format(dateLayout),
		"end":   req.ToDate.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	resp, err := rb.Client().Get(ctx, u, adapter.Header(
		"Access-Key", req.Creds.AccessKey,
		"Secret-Key", req.Creds.SecretKey,
	))
	if err != nil {
		return nil, fmt.Errorf("拉取rushbet玩家报表失败: %w", err)
	}
	return rb.Payload(req, adapter.Part("players", resp)), nil
}

func (rb *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("players")
	if !ok {
		return nil, adapter.ParseErr("缺少players响应")
	}
	body := bytes.TrimSpace(part.Body)
	if len(body) == 0 || bytes.HasPrefix(bytes.ToLower(body), []byte("no results")) {
		return nil, adapter.Empty("rushbet返回无数据")
	}
	table, err := parseutil.ReadCSV(body, ',', columns...)
	if err != nil {
		return nil, err
	}

	report := rb.NewReport(req)
	report.Diagnostics.RawRows = len(table.Rows)
	for i, rec := range table.Rows {
		tracker := table.Get(rec, "Tracker")
		if strings.Contains(strings.ToLower(tracker), "total") {
			report.Diagnostics.SummaryDrops++
			continue
		}
		r := adapter.NewRow(fmt.Sprintf("第%d行", i+2))
		netRevenue := r.Amount(table.Get(rec, "Net Revenue"))
		row := model.AccountRow{
			PromCode:       tracker,
			PunterID:       table.Get(rec, "Player"),
			Deposit:        r.Amount(table.Get(rec, "Deposits")),
			Stake:          r.Amount(table.Get(rec, "Wagers")),
			NetRevenue:     netRevenue,
			RevenueShare:   rb.RevenueShare(req, netRevenue, r.Amount(table.Get(rec, "RevShare"))),
			RegisteredAt:   r.Date(table.Get(rec, "Registration Date")),
			FirstDepositAt: r.Date(table.Get(rec, "First Deposit Date")),
			RawCPACount:    r.OptCount(table.Get(rec, "CPA")),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d行缺少Tracker/Player", i+2)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
