package yajuego

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

const Name = "yajuego"

func init() {
	adapter.Register(Name, NewYajuegoAdapter)
}

// Adapter yajuego：access/secret key 请求头，JSON；CPA 计数与单个 CPA 佣金都由博彩商给出
type Adapter struct {
	adapter.Base
}

func NewYajuegoAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"yajuego 80", "yajuego 100"},
		Family:   model.CPACountProvided,
		FISource: model.FixedIncomeFromRow,
	}}
}

type playersResponse struct {
	Message string      `json:"message"`
	Players []playerRow `json:"players"`
}

type playerRow struct {
	PromCode         string         `json:"prom_code"`
	PlayerID         parseutil.Flex `json:"player_id"`
	RegistrationDate parseutil.Flex `json:"registration_date"`
	FirstDepositDate parseutil.Flex `json:"first_deposit_date"`
	Deposit          parseutil.Flex `json:"deposit"`
	Stake            parseutil.Flex `json:"stake"`
	NetRevenue       parseutil.Flex `json:"net_revenue"`
	Commission       parseutil.Flex `json:"commission"`
	FixedIncome      parseutil.Flex `json:"fixed_income"`
	CPA              parseutil.Flex `json:"cpa"`
}

func (y *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"access_key": req.Creds.AccessKey,
		"secret_key": req.Creds.SecretKey,
	}); err != nil {
		return nil, err
	}
	params := map[string]string{
		"from": req.FromDate.Format(time.DateOnly),
		"to":   req.ToDate.Format(time.DateOnly),
	}
	if req.Creds.AccountID != "" {
		params["affiliate"] = req.Creds.AccountID
	}
	u, err := httpclient.WithQuery(y.URL("/api/affiliates/players"), params)
	if err != nil {
		return nil, err
	}
	resp, err := y.Client().Get(ctx, u, adapter.Header(
		"X-Access-Key", req.Creds.AccessKey,
		"X-Secret-Key", req.Creds.SecretKey,
		"Accept", "application/json",
	))
	if err != nil {
		return nil, fmt.Errorf("拉取yajuego玩家报表失败: %w", err)
	}
	return y.Payload(req, adapter.Part("players", resp)), nil
}

func (y *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("players")
	if !ok {
		return nil, adapter.ParseErr("缺少players响应")
	}
	var resp playersResponse
	if err := json.Unmarshal(part.Body, &resp); err != nil {
		return nil, adapter.ParseErr("yajuego响应不是合法JSON: %v", err)
	}
	if len(resp.Players) == 0 {
		if resp.Players == nil && !strings.Contains(strings.ToLower(resp.Message), "no data") {
			return nil, adapter.ParseErr("yajuego响应缺少players: %s", httpclient.Truncate(part.Body, 200))
		}
		return nil, adapter.Empty("yajuego: %s", resp.Message)
	}

	report := y.NewReport(req)
	report.Diagnostics.RawRows = len(resp.Players)
	for i, p := range resp.Players {
		r := adapter.NewRow(fmt.Sprintf("第%d条", i+1))
		netRevenue := r.Amount(p.NetRevenue.String())
		row := model.AccountRow{
			PromCode:       strings.TrimSpace(p.PromCode),
			PunterID:       p.PlayerID.String(),
			Deposit:        r.Amount(p.Deposit.String()),
			Stake:          r.Amount(p.Stake.String()),
			NetRevenue:     netRevenue,
			RevenueShare:   y.RevenueShare(req, netRevenue, r.Amount(p.Commission.String())),
			RegisteredAt:   r.Date(p.RegistrationDate.String()),
			FirstDepositAt: r.Date(p.FirstDepositDate.String()),
			RawCPACount:    r.OptCount(p.CPA.String()),
			FixedIncome:    r.OptAmount(p.FixedIncome.String()),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d条缺少prom_code/player_id", i+1)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
