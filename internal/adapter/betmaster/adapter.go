package betmaster

import (
	"context"
	"encoding/json"
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

const Name = "betmaster"

func init() {
	adapter.Register(Name, NewBetmasterAdapter)
}

// Adapter betmaster：Bearer API key，JSON；阈值型 CPA 只累计正 RS，RS = ngr × 比例
type Adapter struct {
	adapter.Base
}

func NewBetmasterAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:       Name,
		Cfg:        cfg,
		Logger:     logger,
		Titles:     []string{"betmaster latam"},
		Family:     model.CPARevenueThreshold,
		FISource:   model.FixedIncomeNone,
		LocalRS:    true,
		ForcePosRS: true,
	}}
}

type statsResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Result  []statsItem `json:"result"`
}

type statsItem struct {
	Promo      string         `json:"promo"`
	CustomerID parseutil.Flex `json:"customer_id"`
	RegDate    parseutil.Flex `json:"reg_date"`
	FTDDate    parseutil.Flex `json:"ftd_date"`
	DepositSum parseutil.Flex `json:"deposit_sum"`
	BetSum     parseutil.Flex `json:"bet_sum"`
	NGR        parseutil.Flex `json:"ngr"`
}

func (b *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{"api_key": req.Creds.APIKey}); err != nil {
		return nil, err
	}
	u, err := httpclient.WithQuery(b.URL("/api/partner/stats"), map[string]string{
		"from": req.FromDate.Format(time.DateOnly),
		"to":   req.ToDate.Format(time.DateOnly),
	})
	if err != nil {
		return nil, err
	}
	resp, err := b.Client().Get(ctx, u, adapter.Header("Authorization", "Bearer "+req.Creds.APIKey))
	if err != nil {
		return nil, fmt.Errorf("拉取betmaster统计失败: %w", err)
	}
	return b.Payload(req, adapter.Part("stats", resp)), nil
}

func (b *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("stats")
	if !ok {
		return nil, adapter.ParseErr("缺少stats响应")
	}
	var resp statsResponse
	if err := json.Unmarshal(part.Body, &resp); err != nil {
		return nil, adapter.ParseErr("betmaster响应不是合法JSON: %v", err)
	}
	if !resp.Success {
		return nil, adapter.ParseErr("betmaster返回失败: %s", resp.Error)
	}
	if len(resp.Result) == 0 {
		return nil, adapter.Empty("betmaster返回0条记录")
	}

	report := b.NewReport(req)
	report.Diagnostics.RawRows = len(resp.Result)
	for i, it := range resp.Result {
		r := adapter.NewRow(fmt.Sprintf("第%d条", i+1))
		netRevenue := r.Amount(it.NGR.String())
		row := model.AccountRow{
			PromCode:       strings.TrimSpace(it.Promo),
			PunterID:       it.CustomerID.String(),
			Deposit:        r.Amount(it.DepositSum.String()),
			Stake:          r.Amount(it.BetSum.String()),
			NetRevenue:     netRevenue,
			RevenueShare:   b.RevenueShare(req, netRevenue, 0),
			RegisteredAt:   r.Date(it.RegDate.String()),
			FirstDepositAt: r.Date(it.FTDDate.String()),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d条缺少promo/customer_id", i+1)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
