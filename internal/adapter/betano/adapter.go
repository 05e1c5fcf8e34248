package betano

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
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

const (
	Name = "betano"

	pageSize = 500
	maxPages = 200
)

func init() {
	adapter.Register(Name, NewBetanoAdapter)
}

// Adapter betano：OAuth2 client credentials，分页 JSON，CPA 由博彩商给出日期，RS 采用 revenue_share
type Adapter struct {
	adapter.Base
}

func NewBetanoAdapter(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
	return &Adapter{Base: adapter.Base{
		Name:     Name,
		Cfg:      cfg,
		Logger:   logger,
		Titles:   []string{"betano col", "betano per", "betano chl"},
		Family:   model.CPABookmakerDated,
		FISource: model.FixedIncomeFromCampaign,
	}}
}

type pageResponse struct {
	Data       []playerRow `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type playerRow struct {
	BTag             string         `json:"btag"`
	PlayerID         parseutil.Flex `json:"player_id"`
	RegistrationDate parseutil.Flex `json:"registration_date"`
	FirstDepositDate parseutil.Flex `json:"first_deposit_date"`
	CPADate          parseutil.Flex `json:"cpa_date"`
	Deposits         parseutil.Flex `json:"deposits"`
	Turnover         parseutil.Flex `json:"turnover"`
	NetRevenue       parseutil.Flex `json:"net_revenue"`
	RevenueShare     parseutil.Flex `json:"revenue_share"`
}

func (b *Adapter) Fetch(ctx context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	if err := adapter.Require(req, map[string]string{
		"client_id":     req.Creds.ClientID,
		"client_secret": req.Creds.ClientSecret,
	}); err != nil {
		return nil, err
	}
	c := b.Client()
	hc, err := httpclient.OAuth2Client(ctx, c.HTTP(), b.AuthURL("/oauth2/token"), req.Creds.ClientID, req.Creds.ClientSecret)
	if err != nil {
		return nil, err
	}
	c = c.WithHTTP(hc)

	payload := b.Payload(req)
	for page := 1; page <= maxPages; page++ {
		u, err := httpclient.WithQuery(b.URL("/v2/reports/players"), map[string]string{
			"from":      req.FromDate.Format(time.DateOnly),
			"to":        req.ToDate.Format(time.DateOnly),
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		})
		if err != nil {
			return nil, err
		}
		resp, err := c.Get(ctx, u, adapter.Header("Accept", "application/json"))
		if err != nil {
			return nil, fmt.Errorf("拉取betano第%d页失败: %w", page, err)
		}
		payload.Parts = append(payload.Parts, adapter.Part(fmt.Sprintf("page%d", page), resp))

		var meta pageResponse
		if err := json.Unmarshal(resp.Body, &meta); err != nil {
			return nil, adapter.ParseErr("betano第%d页不是合法JSON: %v", page, err)
		}
		if page >= meta.Pagination.TotalPages {
			return payload, nil
		}
	}
	return nil, adapter.ParseErr("betano分页超过%d页", maxPages)
}

func (b *Adapter) Parse(raw *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	report := b.NewReport(req)
	for _, part := range raw.Parts {
		if !strings.HasPrefix(part.Name, "page") {
			continue
		}
		var page pageResponse
		if err := json.Unmarshal(part.Body, &page); err != nil {
			return nil, adapter.ParseErr("betano %s不是合法JSON: %v", part.Name, err)
		}
		report.Diagnostics.RawRows += len(page.Data)
		for i, p := range page.Data {
			r := adapter.NewRow(fmt.Sprintf("%s第%d条", part.Name, i+1))
			netRevenue := r.Amount(p.NetRevenue.String())
			row := model.AccountRow{
				PromCode:       strings.TrimSpace(p.BTag),
				PunterID:       p.PlayerID.String(),
				Deposit:        r.Amount(p.Deposits.String()),
				Stake:          r.Amount(p.Turnover.String()),
				NetRevenue:     netRevenue,
				RevenueShare:   b.RevenueShare(req, netRevenue, r.Amount(p.RevenueShare.String())),
				RegisteredAt:   r.Date(p.RegistrationDate.String()),
				FirstDepositAt: r.Date(p.FirstDepositDate.String()),
				CPAAt:          r.Date(p.CPADate.String()),
			}
			if err := r.Err(); err != nil {
				return nil, err
			}
			if row.PromCode == "" || row.PunterID == "" {
				return nil, adapter.ParseErr("%s第%d条缺少btag/player_id", part.Name, i+1)
			}
			report.Accounts = append(report.Accounts, row)
		}
	}
	if report.Empty() {
		return nil, adapter.Empty("betano返回0条记录")
	}
	report.Diagnostics.AccountRows = len(report.Accounts)
	return report, nil
}
