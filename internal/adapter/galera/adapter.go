package galera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
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

const Name = "galera"

func init() {
	adapter.Register(Name, NewGaleraAdapter)
}

// Adapter galera：JSON 登录换会话 cookie，JSON 报表，CPA 由博彩商给出日期，RS = netRevenue × 比例
type Adapter struct {
	adapter.Base
}

func NewGaleraAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"galera bra"},
		Family:   model.CPABookmakerDated,
		FISource: model.FixedIncomeFromCampaign,
		LocalRS:  true,
	}}
}

type playerRow struct {
	AffiliateCode  string         `json:"affiliateCode"`
	PlayerID       parseutil.Flex `json:"playerId"`
	RegisteredAt   parseutil.Flex `json:"registeredAt"`
	FirstDepositAt parseutil.Flex `json:"firstDepositAt"`
	CPAAt          parseutil.Flex `json:"cpaAt"`
	DepositTotal   parseutil.Flex `json:"depositTotal"`
	BetTotal       parseutil.Flex `json:"betTotal"`
	NetRevenue     parseutil.Flex `json:"netRevenue"`
}

func (g *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"username": req.Creds.Username,
		"password": req.Creds.Password,
	}); err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"username": req.Creds.Username, "password": req.Creds.Password})
	if err != nil {
		return nil, err
	}
	loginURL := g.AuthURL("/api/login")
	session, _, err := httpclient.SessionLogin(ctx, g.Client(), func(ctx context.Context) (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	u, err := httpclient.WithQuery(g.URL("/api/reports/players"), map[string]string{
		"startDate": req.FromDate.Format(time.DateOnly),
		"endDate":   req.ToDate.Format(time.DateOnly),
	})
	if err != nil {
		return nil, err
	}
	resp, err := session.Get(ctx, u, adapter.Header("Accept", "application/json"))
	if err != nil {
		return nil, fmt.Errorf("拉取galera玩家报表失败: %w", err)
	}
	return g.Payload(req, adapter.Part("players", resp)), nil
}

func (g *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	part, ok := raw.Part("players")
	if !ok {
		return nil, adapter.ParseErr("缺少players响应")
	}
	if len(bytes.TrimSpace(part.Body)) == 0 {
		return nil, adapter.Empty("galera返回空响应")
	}
	var rows []playerRow
	if err := json.Unmarshal(part.Body, &rows); err != nil {
		return nil, adapter.ParseErr("galera响应不是JSON数组: %v", err)
	}
	if len(rows) == 0 {
		return nil, adapter.Empty("galera返回0条记录")
	}

	report := g.NewReport(req)
	report.Diagnostics.RawRows = len(rows)
	for i, p := range rows {
		r := adapter.NewRow(fmt.Sprintf("第%d条", i+1))
		netRevenue := r.Amount(p.NetRevenue.String())
		row := model.AccountRow{
			PromCode:       strings.TrimSpace(p.AffiliateCode),
			PunterID:       p.PlayerID.String(),
			Deposit:        r.Amount(p.DepositTotal.String()),
			Stake:          r.Amount(p.BetTotal.String()),
			NetRevenue:     netRevenue,
			RevenueShare:   g.RevenueShare(req, netRevenue, 0),
			RegisteredAt:   r.Date(p.RegisteredAt.String()),
			FirstDepositAt: r.Date(p.FirstDepositAt.String()),
			CPAAt:          r.Date(p.CPAAt.String()),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("第%d条缺少affiliateCode/playerId", i+1)
		}
		report.Accounts = append(report.Accounts, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
