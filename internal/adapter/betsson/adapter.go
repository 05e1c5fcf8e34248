package betsson

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

const Name = "betsson"

func init() {
	adapter.Register(Name, NewBetssonAdapter)
}

// Adapter betsson：OAuth2 client credentials，CSV 报表，RowType=S 为汇总行，RS 采用 Commission
type Adapter struct {
	adapter.Base
}

func NewBetssonAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"betsson col", "betsson per", "betsson chl"},
		Family:   model.CPARevenueThreshold,
		FISource: model.FixedIncomeNone,
	}}
}

var columns = []string{
	"RowType", "Tracking Code", "Player ID", "Registration Date", "First Deposit Date",
	"Deposits", "Turnover", "Net Revenue", "Commission",
}

func (b *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"client_id":     req.Creds.ClientID,
		"client_secret": req.Creds.ClientSecret,
	}); err != nil {
		return nil, err
	}
	c := b.Client()
	hc, err := httpclient.OAuth2Client(ctx, c.HTTP(), b.AuthURL("/oauth/token"), req.Creds.ClientID, req.Creds.ClientSecret, "reports")
	if err != nil {
		return nil, err
	}
	u, err := httpclient.WithQuery(b.URL("/reports/player-activity"), map[string]string{
		"from":   req.FromDate.Format(time.DateOnly),
		"to":     req.ToDate.Format(time.DateOnly),
		"format": "csv",
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.WithHTTP(hc).Get(ctx, u, adapter.Header("Accept", "text/csv"))
	if err != nil {
		return nil, fmt.Errorf("拉取betsson玩家报表失败: %w", err)
	}
	return b.Payload(req, adapter.Part("players", resp)), nil
}

func (b *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("players")
	if !ok {
		return nil, adapter.ParseErr("缺少players响应")
	}
	body := bytes.TrimSpace(part.Body)
	if len(body) == 0 || strings.EqualFold(string(body), "no data") {
		return nil, adapter.Empty("betsson返回无数据")
	}
	table, err := parseutil.ReadCSV(body, ',', columns...)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, adapter.Empty("betsson报表只有表头")
	}

	report := b.NewReport(req)
	report.Diagnostics.RawRows = len(table.Rows)
	for i, rec := range table.Rows {
		switch strings.ToUpper(table.Get(rec, "RowType")) {
		case "S":
			report.Diagnostics.SummaryDrops++
			continue
		case "D":
		default:
			return nil, adapter.ParseErr("第%d行RowType未知: %q", i+2, table.Get(rec, "RowType"))
		}
		r := adapter.NewRow(fmt.Sprintf("第%d行", i+2))
		netRevenue := r.Amount(table.Get(rec, "Net Revenue"))
		row := model.AccountRow{
			PromCode:       table.Get(rec, "Tracking Code"),
			PunterID:       table.Get(rec, "Player ID"),
			Deposit:        r.Amount(table.Get(rec, "Deposits")),
			Stake:          r.Amount(table.Get(rec, "Turnover")),
			NetRevenue:     netRevenue,
			RevenueShare:   b.RevenueShare(req, netRevenue, r.Amount(table.Get(rec, "Commission"))),
			RegisteredAt:   r.Date(table.Get(rec, "Registration Date")),
			FirstDepositAt: r.Date(table.Get(rec, "First Deposit Date")),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d行缺少Tracking Code/Player ID", i+2)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
