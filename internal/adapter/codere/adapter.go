package codere

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

const Name = "codere"

func init() {
	adapter.Register(Name, NewCodereAdapter)
}

// Adapter codere：OAuth2 client credentials，玩家与 tag 两个 JSON 接口，CPA 计数由博彩商给出
type Adapter struct {
	adapter.Base
}

func NewCodereAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"codere col", "codere mex"},
		Family:   model.CPACountProvided,
		FISource: model.FixedIncomeFromCampaign,
	}}
}

type playersResponse struct {
	Items []struct {
		Tag              string         `json:"tag"`
		CustomerID       parseutil.Flex `json:"customerId"`
		SignupDate       parseutil.Flex `json:"signupDate"`
		FirstDepositDate parseutil.Flex `json:"firstDepositDate"`
		Deposits         parseutil.Flex `json:"deposits"`
		Stakes           parseutil.Flex `json:"stakes"`
		NetRevenue       parseutil.Flex `json:"netRevenue"`
		Commission       parseutil.Flex `json:"commission"`
		CPA              parseutil.Flex `json:"cpa"`
	} `json:"items"`
}

type tagsResponse struct {
	Items []struct {
		Tag           string         `json:"tag"`
		Signups       parseutil.Flex `json:"signups"`
		FTDs          parseutil.Flex `json:"ftds"`
		ActivePlayers parseutil.Flex `json:"activePlayers"`
		Deposits      parseutil.Flex `json:"deposits"`
		Stakes        parseutil.Flex `json:"stakes"`
		NetRevenue    parseutil.Flex `json:"netRevenue"`
		Commission    parseutil.Flex `json:"commission"`
		CPA           parseutil.Flex `json:"cpa"`
	} `json:"items"`
}

func (c *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"client_id":     req.Creds.ClientID,
		"client_secret": req.Creds.ClientSecret,
	}); err != nil {
		return nil, err
	}
	client := c.Client()
	hc, err := httpclient.OAuth2Client(ctx, client.HTTP(), c.AuthURL("/connect/token"), req.Creds.ClientID, req.Creds.ClientSecret, "affiliates.read")
	if err != nil {
		return nil, err
	}
	client = client.WithHTTP(hc)

	params := map[string]string{
		"from": req.FromDate.Format(time.DateOnly),
		"to":   req.ToDate.Format(time.DateOnly),
	}
	payload := c.Payload(req)
	for _, name := range []string{"players", "tags"} {
		u, err := httpclient.WithQuery(c.URL("/affiliates/"+name), params)
		if err != nil {
			return nil, err
		}
		resp, err := client.Get(ctx, u, adapter.Header("Accept", "application/json"))
		if err != nil {
			return nil, fmt.Errorf("拉取codere %s失败: %w", name, err)
		}
		payload.Parts = append(payload.Parts, adapter.Part(name, resp))
	}
	return payload, nil
}

func (c *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	pp, ok1 := raw.Part("players")
	tp, ok2 := raw.Part("tags")
	if !ok1 || !ok2 {
		return nil, adapter.ParseErr("缺少players/tags响应")
	}
	var players playersResponse
	if err := json.Unmarshal(pp.Body, &players); err != nil {
		return nil, adapter.ParseErr("codere players不是合法JSON: %v", err)
	}
	var tags tagsResponse
	if err := json.Unmarshal(tp.Body, &tags); err != nil {
		return nil, adapter.ParseErr("codere tags不是合法JSON: %v", err)
	}
	if len(players.Items) == 0 && len(tags.Items) == 0 {
		return nil, adapter.Empty("codere返回0条记录")
	}

	report := c.NewReport(req)
	report.Diagnostics.RawRows = len(players.Items) + len(tags.Items)
	for i, p := range players.Items {
		r := adapter.NewRow(fmt.Sprintf("players第%d条", i+1))
		netRevenue := r.Amount(p.NetRevenue.String())
		row := model.AccountRow{
			PromCode:       strings.TrimSpace(p.Tag),
			PunterID:       p.CustomerID.String(),
			Deposit:        r.Amount(p.Deposits.String()),
			Stake:          r.Amount(p.Stakes.String()),
			NetRevenue:     netRevenue,
			RevenueShare:   c.RevenueShare(req, netRevenue, r.Amount(p.Commission.String())),
			RegisteredAt:   r.Date(p.SignupDate.String()),
			FirstDepositAt: r.Date(p.FirstDepositDate.String()),
			RawCPACount:    r.OptCount(p.CPA.String()),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" || row.PunterID == "" {
			return nil, adapter.ParseErr("players第%d条缺少tag/customerId", i+1)
		}
		report.Accounts = append(report.Accounts, row)
	}
	for i, t := range tags.Items {
		r := adapter.NewRow(fmt.Sprintf("tags第%d条", i+1))
		netRevenue := r.Amount(t.NetRevenue.String())
		row := model.MemberRow{
			PromCode:          strings.TrimSpace(t.Tag),
			Deposit:           r.Amount(t.Deposits.String()),
			Stake:             r.Amount(t.Stakes.String()),
			NetRevenue:        netRevenue,
			RevenueShare:      c.RevenueShare(req, netRevenue, r.Amount(t.Commission.String())),
			RegisteredCount:   r.Count(t.Signups.String()),
			FirstDepositCount: r.Count(t.FTDs.String()),
			CPACount:          r.OptCount(t.CPA.String()),
			WageringCount:     r.OptCount(t.ActivePlayers.String()),
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		if row.PromCode == "" {
			return nil, adapter.ParseErr("tags第%d条缺少tag", i+1)
		}
		report.Members = append(report.Members, row)
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	report.Diagnostics.MemberRows = len(report.Members)
	return report, nil
}
