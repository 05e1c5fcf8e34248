package model

import "time"

// CPAFamily 博彩商的 CPA 判定方式
type CPAFamily string

const (
	CPACountProvided    CPAFamily = "COUNT_PROVIDED"    // 博彩商直接给出 cpa 计数
	CPARevenueThreshold CPAFamily = "REVENUE_THRESHOLD" // 累计 RS 达到门槛
	CPABookmakerDated   CPAFamily = "BOOKMAKER_DATED"   // 博彩商给出 cpa 日期
)

// FixedIncomeSource 单个 CPA 佣金的来源
type FixedIncomeSource string

const (
	FixedIncomeFromRow      FixedIncomeSource = "ROW"      // 行内 fixed_income，缺省时取行内 revenue_share
	FixedIncomeFromCampaign FixedIncomeSource = "CAMPAIGN" // campaign.fixed_income_unitary
	FixedIncomeNone         FixedIncomeSource = "NONE"     // 仅 RS 结算
)

// BookmakerPolicy 某 campaign 生效的 CPA/RS 策略
type BookmakerPolicy struct {
	Family                 CPAFamily
	FixedIncomeSource      FixedIncomeSource
	CPAConditionFromRS     float64
	OnlyPositiveRS         bool
	RevenueSharePercentage float64
}

// AccountRow 单个 punter 单日的活动
type AccountRow struct {
	PromCode       string
	PunterID       string
	Deposit        float64
	Stake          float64
	NetRevenue     float64
	RevenueShare   float64
	RegisteredAt   *time.Time
	FirstDepositAt *time.Time
	CPAAt          *time.Time
	RawCPACount    *int
	FixedIncome    *float64
}

// MemberRow 单个链接单日的汇总
type MemberRow struct {
	PromCode          string
	Deposit           float64
	Stake             float64
	NetRevenue        float64
	RevenueShare      float64
	RegisteredCount   int
	FirstDepositCount int
	CPACount          *int
	WageringCount     *int
	FixedIncome       *float64
}

// Diagnostics 一次解析的统计
type Diagnostics struct {
	RawRows       int      `json:"raw_rows"`
	AccountRows   int      `json:"account_rows"`
	MemberRows    int      `json:"member_rows"`
	SummaryDrops  int      `json:"summary_drops"`
	AnomalyRows   int      `json:"anomaly_rows"`
	SkippedLinks  int      `json:"skipped_links"`
	CPACount      int      `json:"cpa_count"`
	PartnerCPA    int      `json:"partner_cpa"`
	LinksTouched  int      `json:"links_touched"`
	Warnings      []string `json:"warnings,omitempty"`
	UpstreamEmpty bool     `json:"upstream_empty,omitempty"`
}

// Warn 追加一条警告
func (d *Diagnostics) Warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

// NormalizedReport 适配器输出的统一记录流
type NormalizedReport struct {
	Bookmaker   string
	Campaign    string
	FromDate    time.Time
	ToDate      time.Time
	Accounts    []AccountRow
	Members     []MemberRow
	Diagnostics Diagnostics
}

// Empty 两个流都为空
func (r *NormalizedReport) Empty() bool {
	return len(r.Accounts) == 0 && len(r.Members) == 0
}

// RawPart 原始响应的一段（一个接口一段）
type RawPart struct {
	Name        string
	ContentType string
	Body        []byte
}

// RawPayload 博彩商原始响应
type RawPayload struct {
	Bookmaker string
	Campaign  string
	Parts     []RawPart
}

// Part 按名称取原始响应
func (p *RawPayload) Part(name string) (RawPart, bool) {
	for _, part := range p.Parts {
		if part.Name == name {
			return part, true
		}
	}
	return RawPart{}, false
}

// ClickCount 点击库中 (link, day) 的汇总
type ClickCount struct {
	LinkID uint64
	Day    time.Time
	Count  int
}
