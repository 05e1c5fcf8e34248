package model

import "time"

// AccountReport 每个 (link, punter) 一行的终身记录
type AccountReport struct {
	ID                       uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	LinkID                   uint64     `gorm:"column:link_id;type:bigint;not null;uniqueIndex:uk_account_link_punter"`
	PunterID                 string     `gorm:"column:punter_id;type:varchar(64);not null;uniqueIndex:uk_account_link_punter"`
	PartnerLinkAccumulatedID *uint64    `gorm:"column:partner_link_accumulated_id"`
	CurrencyCondition        Currency   `gorm:"column:currency_condition;type:varchar(3)"`
	CurrencyFixedIncome      Currency   `gorm:"column:currency_fixed_income;type:varchar(3)"`
	Deposit                  float64    `gorm:"column:deposit;type:numeric(18,6)"`
	Stake                    float64    `gorm:"column:stake;type:numeric(18,6)"`
	NetRevenue               float64    `gorm:"column:net_revenue;type:numeric(18,6)"`
	RevenueShare             float64    `gorm:"column:revenue_share;type:numeric(18,6)"`
	RevenueShareCPA          float64    `gorm:"column:revenue_share_cpa;type:numeric(18,6);comment:阈值判断用的RS累计"`
	FixedIncome              float64    `gorm:"column:fixed_income;type:numeric(18,6)"`
	CPABetenlace             int        `gorm:"column:cpa_betenlace"`
	CPAPartner               int        `gorm:"column:cpa_partner"`
	RegisteredAt             *time.Time `gorm:"column:registered_at;type:date"`
	FirstDepositAt           *time.Time `gorm:"column:first_deposit_at;type:date"`
	CPAAt                    *time.Time `gorm:"column:cpa_at;type:date"`
	CPACountedAt             *time.Time `gorm:"column:cpa_counted_at;type:date;comment:计入当日CPA的运行日"`

	// 最近一次应用日及其贡献（当次运行的日报取数）；各天的贡献另存 AccountDay
	DayAt              *time.Time `gorm:"column:day_at;type:date"`
	DayDeposit         float64    `gorm:"column:day_deposit;type:numeric(18,6)"`
	DayStake           float64    `gorm:"column:day_stake;type:numeric(18,6)"`
	DayNetRevenue      float64    `gorm:"column:day_net_revenue;type:numeric(18,6)"`
	DayRevenueShare    float64    `gorm:"column:day_revenue_share;type:numeric(18,6)"`
	DayRevenueShareCPA float64    `gorm:"column:day_revenue_share_cpa;type:numeric(18,6)"`

	CreatedAt time.Time `gorm:"column:created_at;type:date"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AccountReport) TableName() string { return "account_reports" }

// AccountReportFields 批量更新时写入的字段
var AccountReportFields = []string{
	"partner_link_accumulated_id", "deposit", "stake", "net_revenue", "revenue_share", "revenue_share_cpa",
	"fixed_income", "cpa_betenlace", "cpa_partner", "registered_at", "first_deposit_at", "cpa_at", "cpa_counted_at",
	"day_at", "day_deposit", "day_stake", "day_net_revenue", "day_revenue_share", "day_revenue_share_cpa", "updated_at",
}

// AccountDay 某 account 某天的贡献，重跑任意一天时先扣掉这里记录的值
type AccountDay struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LinkID          uint64    `gorm:"column:link_id;type:bigint;not null;uniqueIndex:uk_account_day"`
	PunterID        string    `gorm:"column:punter_id;type:varchar(64);not null;uniqueIndex:uk_account_day"`
	Day             time.Time `gorm:"column:day;type:date;not null;uniqueIndex:uk_account_day"`
	Deposit         float64   `gorm:"column:deposit;type:numeric(18,6)"`
	Stake           float64   `gorm:"column:stake;type:numeric(18,6)"`
	NetRevenue      float64   `gorm:"column:net_revenue;type:numeric(18,6)"`
	RevenueShare    float64   `gorm:"column:revenue_share;type:numeric(18,6)"`
	RevenueShareCPA float64   `gorm:"column:revenue_share_cpa;type:numeric(18,6)"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AccountDay) TableName() string { return "account_days" }

// AccountDayFields 重跑时覆盖的字段
var AccountDayFields = []string{"deposit", "stake", "net_revenue", "revenue_share", "revenue_share_cpa", "updated_at"}

// BetenlaceCPA 链接维度的当月累计
type BetenlaceCPA struct {
	ID                uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LinkID            uint64    `gorm:"column:link_id;type:bigint;not null;uniqueIndex"`
	Deposit           float64   `gorm:"column:deposit;type:numeric(18,6)"`
	Stake             float64   `gorm:"column:stake;type:numeric(18,6)"`
	NetRevenue        float64   `gorm:"column:net_revenue;type:numeric(18,6)"`
	RevenueShare      float64   `gorm:"column:revenue_share;type:numeric(18,6)"`
	FixedIncome       float64   `gorm:"column:fixed_income;type:numeric(18,6)"`
	RegisteredCount   int       `gorm:"column:registered_count"`
	CPACount          int       `gorm:"column:cpa_count"`
	FirstDepositCount int       `gorm:"column:first_deposit_count"`
	WageringCount     int       `gorm:"column:wagering_count"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BetenlaceCPA) TableName() string { return "betenlace_cpa" }

// BetenlaceCPAFields 批量更新时写入的字段
var BetenlaceCPAFields = []string{
	"deposit", "stake", "net_revenue", "revenue_share", "fixed_income",
	"registered_count", "cpa_count", "first_deposit_count", "wagering_count", "updated_at",
}

// BetenlaceDailyReport 链接维度的日报，(link, created_at) 唯一
type BetenlaceDailyReport struct {
	ID                  uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	LinkID              uint64    `gorm:"column:link_id;type:bigint;not null;uniqueIndex:uk_betenlace_daily"`
	Link                *Link     `gorm:"foreignKey:LinkID"`
	CreatedAt           time.Time `gorm:"column:created_at;type:date;not null;uniqueIndex:uk_betenlace_daily"`
	CurrencyCondition   Currency  `gorm:"column:currency_condition;type:varchar(3)"`
	CurrencyFixedIncome Currency  `gorm:"column:currency_fixed_income;type:varchar(3)"`
	Deposit             float64   `gorm:"column:deposit;type:numeric(18,6)"`
	Stake               float64   `gorm:"column:stake;type:numeric(18,6)"`
	NetRevenue          float64   `gorm:"column:net_revenue;type:numeric(18,6)"`
	RevenueShare        float64   `gorm:"column:revenue_share;type:numeric(18,6)"`
	FixedIncome         float64   `gorm:"column:fixed_income;type:numeric(18,6)"`
	FixedIncomeUnitary  float64   `gorm:"column:fixed_income_unitary;type:numeric(18,6)"`
	FxPartnerID         *uint64   `gorm:"column:fx_partner_id"`
	RegisteredCount     int       `gorm:"column:registered_count"`
	CPACount            int       `gorm:"column:cpa_count"`
	FirstDepositCount   int       `gorm:"column:first_deposit_count"`
	WageringCount       int       `gorm:"column:wagering_count"`
	ClickCount          *int      `gorm:"column:click_count"`
}

func (BetenlaceDailyReport) TableName() string { return "betenlace_daily_reports" }

// BetenlaceDailyFields 批量更新时写入的字段（click_count 由点击重算单独维护）
var BetenlaceDailyFields = []string{
	"currency_condition", "currency_fixed_income", "deposit", "stake", "net_revenue", "revenue_share",
	"fixed_income", "fixed_income_unitary", "fx_partner_id", "registered_count", "cpa_count",
	"first_deposit_count", "wagering_count",
}

// PartnerLinkDailyReport partner 侧日报，与 BetenlaceDailyReport 一对一
type PartnerLinkDailyReport struct {
	ID                       uint64                  `gorm:"column:id;primaryKey;autoIncrement"`
	BetenlaceDailyReportID   uint64                  `gorm:"column:betenlace_daily_report_id;type:bigint;not null;uniqueIndex"`
	BetenlaceDailyReport     *BetenlaceDailyReport   `gorm:"foreignKey:BetenlaceDailyReportID"`
	PartnerLinkAccumulatedID uint64                  `gorm:"column:partner_link_accumulated_id;type:bigint;not null;index"`
	PartnerLinkAccumulated   *PartnerLinkAccumulated `gorm:"foreignKey:PartnerLinkAccumulatedID"`
	CreatedAt                time.Time               `gorm:"column:created_at;type:date;not null;index"`

	CurrencyFixedIncome Currency `gorm:"column:currency_fixed_income;type:varchar(3)"`
	CurrencyLocal       Currency `gorm:"column:currency_local;type:varchar(3)"`

	FixedIncome             float64 `gorm:"column:fixed_income;type:numeric(18,6)"`
	FixedIncomeUnitary      float64 `gorm:"column:fixed_income_unitary;type:numeric(18,6)"`
	FixedIncomeLocal        float64 `gorm:"column:fixed_income_local;type:numeric(18,6)"`
	FixedIncomeUnitaryLocal float64 `gorm:"column:fixed_income_unitary_local;type:numeric(18,6)"`
	FxBookLocal             float64 `gorm:"column:fx_book_local;type:numeric(18,6)"`
	FxBookNetRevenueLocal   float64 `gorm:"column:fx_book_net_revenue_local;type:numeric(18,6)"`
	FxPercentage            float64 `gorm:"column:fx_percentage;type:numeric(8,6)"`

	CPACount          *int    `gorm:"column:cpa_count"`
	PercentageCPA     float64 `gorm:"column:percentage_cpa;type:numeric(8,6)"`
	Deposit           float64 `gorm:"column:deposit;type:numeric(18,6)"`
	RegisteredCount   int     `gorm:"column:registered_count"`
	FirstDepositCount int     `gorm:"column:first_deposit_count"`
	WageringCount     int     `gorm:"column:wagering_count"`

	Tracker                  float64 `gorm:"column:tracker;type:numeric(8,6)"`
	TrackerDeposit           float64 `gorm:"column:tracker_deposit;type:numeric(8,6)"`
	TrackerRegisteredCount   float64 `gorm:"column:tracker_registered_count;type:numeric(8,6)"`
	TrackerFirstDepositCount float64 `gorm:"column:tracker_first_deposit_count;type:numeric(8,6)"`
	TrackerWageringCount     float64 `gorm:"column:tracker_wagering_count;type:numeric(8,6)"`

	AdviserID                     *uint64  `gorm:"column:adviser_id"`
	FixedIncomeAdviserPercentage  *float64 `gorm:"column:fixed_income_adviser_percentage;type:numeric(8,6)"`
	NetRevenueAdviserPercentage   *float64 `gorm:"column:net_revenue_adviser_percentage;type:numeric(8,6)"`
	FixedIncomeAdviser            *float64 `gorm:"column:fixed_income_adviser;type:numeric(18,6)"`
	FixedIncomeAdviserLocal       *float64 `gorm:"column:fixed_income_adviser_local;type:numeric(18,6)"`
	NetRevenueAdviser             *float64 `gorm:"column:net_revenue_adviser;type:numeric(18,6)"`
	NetRevenueAdviserLocal        *float64 `gorm:"column:net_revenue_adviser_local;type:numeric(18,6)"`
	ReferredByID                  *uint64  `gorm:"column:referred_by_id"`
	FixedIncomeReferredPercentage *float64 `gorm:"column:fixed_income_referred_percentage;type:numeric(8,6)"`
	NetRevenueReferredPercentage  *float64 `gorm:"column:net_revenue_referred_percentage;type:numeric(8,6)"`
	FixedIncomeReferred           *float64 `gorm:"column:fixed_income_referred;type:numeric(18,6)"`
	FixedIncomeReferredLocal      *float64 `gorm:"column:fixed_income_referred_local;type:numeric(18,6)"`
	NetRevenueReferred            *float64 `gorm:"column:net_revenue_referred;type:numeric(18,6)"`
	NetRevenueReferredLocal       *float64 `gorm:"column:net_revenue_referred_local;type:numeric(18,6)"`
}

func (PartnerLinkDailyReport) TableName() string { return "partner_link_daily_reports" }

// PartnerDailyFields 批量更新时写入的字段
var PartnerDailyFields = []string{
	"partner_link_accumulated_id", "currency_fixed_income", "currency_local",
	"fixed_income", "fixed_income_unitary", "fixed_income_local", "fixed_income_unitary_local",
	"fx_book_local", "fx_book_net_revenue_local", "fx_percentage", "cpa_count", "percentage_cpa",
	"deposit", "registered_count", "first_deposit_count", "wagering_count",
	"tracker", "tracker_deposit", "tracker_registered_count", "tracker_first_deposit_count", "tracker_wagering_count",
	"adviser_id", "fixed_income_adviser_percentage", "net_revenue_adviser_percentage",
	"fixed_income_adviser", "fixed_income_adviser_local", "net_revenue_adviser", "net_revenue_adviser_local",
	"referred_by_id", "fixed_income_referred_percentage", "net_revenue_referred_percentage",
	"fixed_income_referred", "fixed_income_referred_local", "net_revenue_referred", "net_revenue_referred_local",
}

// PartnerLinkAccumulatedFields 月累计更新字段
var PartnerLinkAccumulatedFields = []string{"cpa_count", "fixed_income", "fixed_income_local", "updated_at"}
