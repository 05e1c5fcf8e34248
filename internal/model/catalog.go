package model

import (
	"time"

	"gorm.io/datatypes"
)

// CampaignStatus campaign 状态
type CampaignStatus string

const (
	CampaignAvailable    CampaignStatus = "AVAILABLE"
	CampaignOutStock     CampaignStatus = "OUT_STOCK"
	CampaignNotAvailable CampaignStatus = "NOT_AVAILABLE"
	CampaignInactive     CampaignStatus = "INACTIVE"
)

// LinkStatus 推广链接状态
type LinkStatus string

const (
	LinkAssigned    LinkStatus = "ASSIGNED"
	LinkUnavailable LinkStatus = "UNAVAILABLE"
	LinkAvailable   LinkStatus = "AVAILABLE"
)

// PartnerLinkStatus partner_link_accumulated 状态
type PartnerLinkStatus string

const (
	PartnerLinkActive     PartnerLinkStatus = "ACTIVE"
	PartnerLinkInactive   PartnerLinkStatus = "INACTIVE"
	PartnerLinkByCampaign PartnerLinkStatus = "BY_CAMPAIGN"
)

// BankStatus partner 银行信息审核状态
type BankStatus string

const (
	BankAccepted BankStatus = "ACCEPTED"
	BankPending  BankStatus = "PENDING"
	BankRejected BankStatus = "REJECTED"
)

// Bookmaker 博彩商静态目录，创建后不变
type Bookmaker struct {
	ID                  uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name                string         `gorm:"column:name;type:varchar(64);uniqueIndex;not null;comment:博彩商名称"`
	SupportedCurrencies datatypes.JSON `gorm:"column:supported_currencies;type:jsonb;comment:支持币种列表"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Bookmaker) TableName() string { return "bookmakers" }

// Campaign 博彩商下的推广活动，决定条件币种与固定收入币种
type Campaign struct {
	ID                  uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	BookmakerID         uint64         `gorm:"column:bookmaker_id;type:bigint;not null;uniqueIndex:uk_campaign_title"`
	Bookmaker           *Bookmaker     `gorm:"foreignKey:BookmakerID"`
	Title               string         `gorm:"column:title;type:varchar(128);not null;uniqueIndex:uk_campaign_title"`
	CurrencyCondition   Currency       `gorm:"column:currency_condition;type:varchar(3);not null;comment:存款/流水/净收入币种"`
	CurrencyFixedIncome Currency       `gorm:"column:currency_fixed_income;type:varchar(3);not null;comment:佣金支付币种"`
	FixedIncomeUnitary  float64        `gorm:"column:fixed_income_unitary;type:numeric(18,6);default:0;comment:单个CPA佣金"`
	Status              CampaignStatus `gorm:"column:status;type:varchar(16);default:AVAILABLE"`
	LastInactiveAt      *time.Time     `gorm:"column:last_inactive_at;type:date"`
	HasLinks            bool           `gorm:"column:has_links;default:false"`
	Temperature         float64        `gorm:"column:temperature;type:numeric(8,6);default:0"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string { return "campaigns" }

// Link 推广链接，prom_code 在 campaign 内唯一，是博彩商侧的关联键
type Link struct {
	ID         uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	CampaignID uint64     `gorm:"column:campaign_id;type:bigint;not null;uniqueIndex:uk_link_prom_code"`
	Campaign   *Campaign  `gorm:"foreignKey:CampaignID"`
	PromCode   string     `gorm:"column:prom_code;type:varchar(64);not null;uniqueIndex:uk_link_prom_code"`
	Status     LinkStatus `gorm:"column:status;type:varchar(16);default:AVAILABLE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	PartnerLinkAccumulated *PartnerLinkAccumulated `gorm:"foreignKey:LinkID"`
	BetenlaceCPA           *BetenlaceCPA           `gorm:"foreignKey:LinkID"`
}

func (Link) TableName() string { return "links" }

// Partner 推广合作方
type Partner struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	FullName      string     `gorm:"column:full_name;type:varchar(128)"`
	Email         string     `gorm:"column:email;type:varchar(128)"`
	Level         int        `gorm:"column:level;default:0"`
	CurrencyLocal Currency   `gorm:"column:currency_local;type:varchar(3);not null"`
	BankStatus    BankStatus `gorm:"column:bank_status;type:varchar(16);default:PENDING"`

	AdviserID                     *uint64  `gorm:"column:adviser_id"`
	FixedIncomeAdviserPercentage  *float64 `gorm:"column:fixed_income_adviser_percentage;type:numeric(8,6)"`
	NetRevenueAdviserPercentage   *float64 `gorm:"column:net_revenue_adviser_percentage;type:numeric(8,6)"`
	ReferredByID                  *uint64  `gorm:"column:referred_by_id"`
	FixedIncomeReferredPercentage *float64 `gorm:"column:fixed_income_referred_percentage;type:numeric(8,6)"`
	NetRevenueReferredPercentage  *float64 `gorm:"column:net_revenue_referred_percentage;type:numeric(8,6)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Partner) TableName() string { return "partners" }

// PartnerBankAccount partner 收款账户，IsPrimary 为出账快照使用的主账户
type PartnerBankAccount struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PartnerID     uint64    `gorm:"column:partner_id;type:bigint;not null;index"`
	IsPrimary     bool      `gorm:"column:is_primary;default:false"`
	BankName      string    `gorm:"column:bank_name;type:varchar(128)"`
	AccountNumber string    `gorm:"column:account_number;type:varchar(64)"`
	AccountType   string    `gorm:"column:account_type;type:varchar(32)"`
	SwiftCode     string    `gorm:"column:swift_code;type:varchar(32)"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PartnerBankAccount) TableName() string { return "partner_bank_accounts" }

// PartnerLinkAccumulated 链接的 partner 侧月累计，同时持有 tracker 与分成比例
type PartnerLinkAccumulated struct {
	ID         uint64            `gorm:"column:id;primaryKey;autoIncrement"`
	PartnerID  uint64            `gorm:"column:partner_id;type:bigint;not null;index"`
	Partner    *Partner          `gorm:"foreignKey:PartnerID"`
	CampaignID uint64            `gorm:"column:campaign_id;type:bigint;not null;index"`
	LinkID     uint64            `gorm:"column:link_id;type:bigint;not null;uniqueIndex"`
	PromCode   string            `gorm:"column:prom_code;type:varchar(64);not null"`
	Status     PartnerLinkStatus `gorm:"column:status;type:varchar(16);default:ACTIVE"`

	CurrencyLocal Currency `gorm:"column:currency_local;type:varchar(3);not null"`
	PercentageCPA float64  `gorm:"column:percentage_cpa;type:numeric(8,6);default:1"`

	Tracker                  float64 `gorm:"column:tracker;type:numeric(8,6);default:1"`
	TrackerDeposit           float64 `gorm:"column:tracker_deposit;type:numeric(8,6);default:1"`
	TrackerRegisteredCount   float64 `gorm:"column:tracker_registered_count;type:numeric(8,6);default:1"`
	TrackerFirstDepositCount float64 `gorm:"column:tracker_first_deposit_count;type:numeric(8,6);default:1"`
	TrackerWageringCount     float64 `gorm:"column:tracker_wagering_count;type:numeric(8,6);default:1"`

	CPACount         int     `gorm:"column:cpa_count;default:0"`
	FixedIncome      float64 `gorm:"column:fixed_income;type:numeric(18,6);default:0"`
	FixedIncomeLocal float64 `gorm:"column:fixed_income_local;type:numeric(18,6);default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PartnerLinkAccumulated) TableName() string { return "partner_link_accumulated" }
