package betwinner

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

const Name = "betwinner"

func init() {
	adapter.Register(Name, NewBetwinnerAdapter)
}

// Adapter betwinner：API key 走 query，JSON，row_id=total 为汇总行；RS = net_revenue × 比例
type Adapter struct {
	adapter.Base
}

func NewBetwinnerAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"betwinner col", "betwinner per"},
		Family:   model.CPARevenueThreshold,
		FISource: model.FixedIncomeNone,
		LocalRS:  true,
	}}
}

type playersResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    []playerRow `json:"data"`
}

type playerRow struct {
	RowID            parseutil.Flex `json:"row_id"`
	PlayerID         parseutil.Flex `json:"player_id"`
	SubID            string         `json:"sub_id"`
	RegDate          parseutil.Flex `json:"reg_date"`
	FirstDepositDate parseutil.Flex `json:"first_deposit_date"`
	DepositAmount    parseutil.Flex `json:"deposit_amount"`
	BetAmount        parseutil.Flex `json:"bet_amount"`
	NetRevenue       parseutil.Flex `json:"net_revenue"`
}

func (b *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{"api_key": req.Creds.APIKey}); err != nil {
		return nil, err
	}
	params := map[string]string{
		"api_key":   req.Creds.APIKey,
		"date_from": req.FromDate.Format(time.DateOnly),
		"date_to":   req.ToDate.Format(time.DateOnly),
	}
	if req.Creds.AccountID != "" {
		params["account"] = req.Creds.AccountID
	}
	u, err := httpclient.WithQuery(b.URL("/api/v1/affiliate/players"), params)
	if err != nil {
		return nil, err
	}
	resp, err := b.Client().Get(ctx, u, adapter.Header("Accept", "application/json"))
	if err != nil {
		return nil, fmt.Errorf("拉取betwinner玩家报表失败: %w", err)
	}
	return b.Payload(req, adapter.Part("players", resp)), nil
}

func (b *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("players")
	if !ok {
		return nil, adapter.ParseErr("缺少players响应")
	}
	var resp playersResponse
	if err := json.Unmarshal(part.Body, &resp); err != nil {
		return nil, adapter.ParseErr("betwinner响应不是合法JSON: %v", err)
	}
	if strings.EqualFold(resp.Status, "no_data") || (resp.Status == "ok" && len(resp.Data) == 0) {
		return nil, adapter.Empty("betwinner: %s", resp.Message)
	}
	if resp.Status != "ok" {
		return nil, adapter.ParseErr("betwinner返回状态%q: %s", resp.Status, resp.Message)
	}

	report := b.NewReport(req)
	report.Diagnostics.RawRows = len(resp.Data)
	for i, d := range resp.Data {
		if strings.EqualFold(d.RowID.String(), "total") {
			report.Diagnostics.SummaryDrops++
			continue
		}
		r := adapter.NewRow(fmt.Sprintf("第%d条", i+1))
		netRevenue := r.Amount(d.NetRevenue.String())
		row := model.AccountRow{
			PromCode:       strings.TrimSpace(d.SubID),
			PunterID:       d.PlayerID.String(),
			Deposit:        r.Amount(d.DepositAmount.String()),
			Stake:          r.Amount(d.BetAmount.String()),
			NetRevenue:     netRevenue,
			RevenueShare:   b.RevenueShare(req, netRevenue, 0),
			RegisteredAt:   r.Date(d.RegDate.String()),
			FirstDepositAt: r.Date(d.FirstDepositDate.String()),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d条缺少sub_id/player_id", i+1)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
