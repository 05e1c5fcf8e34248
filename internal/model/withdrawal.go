package model

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// WithdrawalStatus 出账状态
type WithdrawalStatus string

const (
	WithdrawalNoInfo   WithdrawalStatus = "NO_INFO"
	WithdrawalNotReady WithdrawalStatus = "NOT_READY"
	WithdrawalToPay    WithdrawalStatus = "TO_PAY"
	WithdrawalPayed    WithdrawalStatus = "PAYED"
)

// FixedIncomeTotals 按币种的固定收入桶 + 非 USD 币种的 USD 过渡值 + partner 本币净额
type FixedIncomeTotals struct {
	FixedIncomeUSD    float64 `gorm:"column:fixed_income_usd;type:numeric(18,6)"`
	FixedIncomeEUR    float64 `gorm:"column:fixed_income_eur;type:numeric(18,6)"`
	FixedIncomeEURUSD float64 `gorm:"column:fixed_income_eur_usd;type:numeric(18,6)"`
	FixedIncomeCOP    float64 `gorm:"column:fixed_income_cop;type:numeric(18,6)"`
	FixedIncomeCOPUSD float64 `gorm:"column:fixed_income_cop_usd;type:numeric(18,6)"`
	FixedIncomeMXN    float64 `gorm:"column:fixed_income_mxn;type:numeric(18,6)"`
	FixedIncomeMXNUSD float64 `gorm:"column:fixed_income_mxn_usd;type:numeric(18,6)"`
	FixedIncomeGBP    float64 `gorm:"column:fixed_income_gbp;type:numeric(18,6)"`
	FixedIncomeGBPUSD float64 `gorm:"column:fixed_income_gbp_usd;type:numeric(18,6)"`
	FixedIncomePEN    float64 `gorm:"column:fixed_income_pen;type:numeric(18,6)"`
	FixedIncomePENUSD float64 `gorm:"column:fixed_income_pen_usd;type:numeric(18,6)"`
	FixedIncomeLocal  float64 `gorm:"column:fixed_income_local;type:numeric(18,6)"`
}

// Bucket 返回某币种的固定收入桶与其 USD 过渡桶指针（USD 无过渡桶）
func (t *FixedIncomeTotals) Bucket(c Currency) (amount *float64, usd *float64) {
	switch c {
	case USD:
		return &t.FixedIncomeUSD, nil
	case EUR:
		return &t.FixedIncomeEUR, &t.FixedIncomeEURUSD
	case COP:
		return &t.FixedIncomeCOP, &t.FixedIncomeCOPUSD
	case MXN:
		return &t.FixedIncomeMXN, &t.FixedIncomeMXNUSD
	case GBP:
		return &t.FixedIncomeGBP, &t.FixedIncomeGBPUSD
	case PEN:
		return &t.FixedIncomePEN, &t.FixedIncomePENUSD
	}
	return nil, nil
}

// Add 逐桶相加
func (t *FixedIncomeTotals) Add(o FixedIncomeTotals) {
	for _, c := range FixedIncomeCurrencies {
		a, au := t.Bucket(c)
		b, bu := o.Bucket(c)
		*a += *b
		if au != nil {
			*au += *bu
		}
	}
	t.FixedIncomeLocal += o.FixedIncomeLocal
}

// FixedIncomeTotalsFields 出账行与累计行共用的金额字段
var FixedIncomeTotalsFields = []string{
	"fixed_income_usd", "fixed_income_eur", "fixed_income_eur_usd", "fixed_income_cop", "fixed_income_cop_usd",
	"fixed_income_mxn", "fixed_income_mxn_usd", "fixed_income_gbp", "fixed_income_gbp_usd",
	"fixed_income_pen", "fixed_income_pen_usd", "fixed_income_local",
}

// WithdrawalPartnerMoney 每个 partner 每个出账月一行（未付则跨月滚动）
type WithdrawalPartnerMoney struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	PartnerID uint64 `gorm:"column:partner_id;type:bigint;not null;index"`

	// partner 身份与银行快照
	FullName          string         `gorm:"column:full_name;type:varchar(128)"`
	Email             string         `gorm:"column:email;type:varchar(128)"`
	Level             int            `gorm:"column:level"`
	BankStatus        BankStatus     `gorm:"column:bank_status;type:varchar(16)"`
	BankName          string         `gorm:"column:bank_name;type:varchar(128)"`
	BankAccountNumber string         `gorm:"column:bank_account_number;type:varchar(64)"`
	BankAccountType   string         `gorm:"column:bank_account_type;type:varchar(32)"`
	BankSnapshot      datatypes.JSON `gorm:"column:bank_snapshot;type:jsonb"`
	CurrencyLocal     Currency       `gorm:"column:currency_local;type:varchar(3)"`

	FixedIncomeTotals `gorm:"embedded"`

	Status    WithdrawalStatus `gorm:"column:status;type:varchar(16);index"`
	BilledAt  time.Time        `gorm:"column:billed_at;type:date;comment:最近一次出账月的最后一天"`
	PayedAt   *time.Time       `gorm:"column:payed_at"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	Accums []WithdrawalPartnerMoneyAccum `gorm:"foreignKey:WithdrawalID"`
}

func (WithdrawalPartnerMoney) TableName() string { return "withdrawal_partner_money" }

// WithdrawalFields 出账行更新字段
var WithdrawalFields = append([]string{
	"full_name", "email", "level", "bank_status", "bank_name", "bank_account_number", "bank_account_type",
	"bank_snapshot", "currency_local", "status", "billed_at", "updated_at",
}, FixedIncomeTotalsFields...)

// WithdrawalPartnerMoneyAccum 某出账行下每个月冻结汇率后的金额
type WithdrawalPartnerMoneyAccum struct {
	ID                uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	WithdrawalID      uint64    `gorm:"column:withdrawal_id;type:bigint;not null;uniqueIndex:uk_withdrawal_accum"`
	AccumAt           time.Time `gorm:"column:accum_at;type:date;not null;uniqueIndex:uk_withdrawal_accum;comment:出账月的最后一天"`
	FixedIncomeTotals `gorm:"embedded"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (WithdrawalPartnerMoneyAccum) TableName() string { return "withdrawal_partner_money_accum" }

// WithdrawalAccumFields 累计行更新字段
var WithdrawalAccumFields = append([]string{"updated_at"}, FixedIncomeTotalsFields...)

// MinWithdrawalPartnerMoney 各等级最低出账额（USD），取最新一条
type MinWithdrawalPartnerMoney struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	MinUSDByLevel datatypes.JSON `gorm:"column:min_usd_by_level;type:jsonb;not null;comment:{\"0\":50,\"1\":100}"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (MinWithdrawalPartnerMoney) TableName() string { return "min_withdrawal_partner_money" }

// MinUSD 返回等级对应的最低额，未配置时返回 0
func (m *MinWithdrawalPartnerMoney) MinUSD(level int) (float64, error) {
	byLevel := map[string]float64{}
	if len(m.MinUSDByLevel) > 0 {
		if err := json.Unmarshal(m.MinUSDByLevel, &byLevel); err != nil {
			return 0, err
		}
	}
	return byLevel[strconv.Itoa(level)], nil
}
