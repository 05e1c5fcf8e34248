package adapter

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Base 各博彩商适配器共用的部分：名称、campaign 选择集、策略、HTTP 客户端
type Base struct {
	Name       string
	Cfg        *config.BookmakerConfig
	Logger     *logrus.Logger
	Titles     []string
	Family     model.CPAFamily
	FISource   model.FixedIncomeSource
	LocalRS    bool // true：RS = net_revenue × revenue_share_percentage；false：采用博彩商给出的值
	ForcePosRS bool // 阈值判断固定只计正 RS
}

func (b *Base) GetName() string     { return b.Name }
func (b *Base) Campaigns() []string { return b.Titles }

// Policy 校验 campaign 属于选择集且已配置，组装策略
func (b *Base) Policy(campaign string) (model.BookmakerPolicy, error) {
	cc, err := b.campaignConfig(campaign)
	if err != nil {
		return model.BookmakerPolicy{}, err
	}
	p := model.BookmakerPolicy{
		Family:                 b.Family,
		FixedIncomeSource:      b.FISource,
		CPAConditionFromRS:     cc.CPAConditionFromRS,
		OnlyPositiveRS:         cc.OnlyPositiveRS || b.ForcePosRS,
		RevenueSharePercentage: cc.RevenueSharePercentage,
	}
	if p.Family == model.CPARevenueThreshold && p.CPAConditionFromRS <= 0 {
		return p, fmt.Errorf("%w: %s/%s 缺少 cpa_condition_from_rs", interfaces.ErrCampaignMisconfigured, b.Name, campaign)
	}
	if b.LocalRS && p.RevenueSharePercentage <= 0 {
		return p, fmt.Errorf("%w: %s/%s 缺少 revenue_share_percentage", interfaces.ErrCampaignMisconfigured, b.Name, campaign)
	}
	return p, nil
}

func (b *Base) campaignConfig(campaign string) (config.CampaignConfig, error) {
	known := false
	for _, t := range b.Titles {
		if t == campaign {
			known = true
			break
		}
	}
	if !known {
		return config.CampaignConfig{}, fmt.Errorf("%w: %s 不支持 campaign %q（可选：%s）",
			interfaces.ErrCampaignMisconfigured, b.Name, campaign, strings.Join(b.Titles, ", "))
	}
	if b.Cfg == nil || b.Cfg.BaseURL == "" {
		return config.CampaignConfig{}, fmt.Errorf("%w: 博彩商%s未配置 base_url", interfaces.ErrCampaignMisconfigured, b.Name)
	}
	cc, ok := b.Cfg.Campaign(campaign)
	if !ok {
		return config.CampaignConfig{}, fmt.Errorf("%w: %s/%s 未配置", interfaces.ErrCampaignMisconfigured, b.Name, campaign)
	}
	return cc, nil
}

// Client 每次运行新建，不跨运行缓存 token/cookie
func (b *Base) Client() *httpclient.Client {
	hc := httpclient.NewHTTPClient(httpclient.Settings{Timeout: b.Cfg.Timeout, Proxy: b.Cfg.Proxy}, b.Logger)
	return httpclient.NewClient(hc, b.Cfg.RetryCount, b.Logger)
}

// URL 拼接 base_url 与路径
func (b *Base) URL(path string) string {
	return strings.TrimRight(b.Cfg.BaseURL, "/") + path
}

// AuthURL 未配置 auth_url 时使用 base_url + fallback
func (b *Base) AuthURL(fallback string) string {
	if b.Cfg.AuthURL != "" {
		return b.Cfg.AuthURL
	}
	return b.URL(fallback)
}

// Log 带博彩商/campaign 上下文的日志
func (b *Base) Log(req *interfaces.FetchRequest) *logrus.Entry {
	return b.Logger.WithFields(logrus.Fields{
		"bookmaker": b.Name,
		"campaign":  req.Campaign,
		"from_date": req.FromDate.Format(time.DateOnly),
		"to_date":   req.ToDate.Format(time.DateOnly),
	})
}

// NewReport 空的标准化结果
func (b *Base) NewReport(req *interfaces.FetchRequest) *model.NormalizedReport {
	return &model.NormalizedReport{
		Bookmaker: b.Name,
		Campaign:  req.Campaign,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
	}
}

// Payload 包装原始响应
func (b *Base) Payload(req *interfaces.FetchRequest, parts ...model.RawPart) *model.RawPayload {
	return &model.RawPayload{Bookmaker: b.Name, Campaign: req.Campaign, Parts: parts}
}

// RevenueShare 按 LocalRS 选择权威值
func (b *Base) RevenueShare(req *interfaces.FetchRequest, netRevenue, vendor float64) float64 {
	if b.LocalRS {
		return netRevenue * req.Creds.RevenueSharePercentage
	}
	return vendor
}

// Require 校验认证所需字段，缺失即配置错误
func Require(req *interfaces.FetchRequest, fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: campaign %q 缺少 %s", interfaces.ErrCampaignMisconfigured, req.Campaign, strings.Join(missing, ", "))
	}
	return nil
}

// Empty 博彩商返回了“无数据”
func Empty(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{interfaces.ErrUpstreamEmpty}, args...)...)
}

// ParseErr 结构不符
func ParseErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{interfaces.ErrParse}, args...)...)
}

// Header 便捷构造请求头
func Header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

// Part 从响应构造原始片段
func Part(name string, resp *httpclient.Response) model.RawPart {
	return model.RawPart{Name: name, ContentType: resp.Header.Get("Content-Type"), Body: resp.Body}
}
