package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Currency 支持的币种
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	COP Currency = "COP"
	MXN Currency = "MXN"
	BRL Currency = "BRL"
	PEN Currency = "PEN"
	GBP Currency = "GBP"
	CLP Currency = "CLP"
)

// Currencies FxPartner 矩阵覆盖的全部币种，顺序固定
var Currencies = []Currency{USD, EUR, COP, MXN, BRL, PEN, GBP, CLP}

// FixedIncomeCurrencies 出账时单独累计的固定收入币种
var FixedIncomeCurrencies = []Currency{USD, EUR, COP, MXN, GBP, PEN}

// Valid 是否为矩阵内币种
func (c Currency) Valid() bool {
	for _, x := range Currencies {
		if x == c {
			return true
		}
	}
	return false
}

// CurrencyPair 有向币种对
type CurrencyPair struct {
	From Currency
	To   Currency
}

func (p CurrencyPair) key() string { return string(p.From) + "_" + string(p.To) }

// RateMatrix 有向汇率矩阵，(from,to) → rate
type RateMatrix map[CurrencyPair]float64

// FxPartner 每天一行的汇率矩阵，由 fx-sync 任务写入，管线只读
type FxPartner struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"column:created_at;type:date;not null;uniqueIndex"`
	Rates     datatypes.JSON `gorm:"column:rates;type:jsonb;not null;comment:{\"USD_COP\":4000,...}"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (FxPartner) TableName() string { return "fx_partner" }

// Matrix 解析 rates 列
func (f *FxPartner) Matrix() (RateMatrix, error) {
	raw := map[string]float64{}
	if len(f.Rates) > 0 {
		if err := json.Unmarshal(f.Rates, &raw); err != nil {
			return nil, fmt.Errorf("解析FxPartner(%s)汇率失败: %w", f.CreatedAt.Format(time.DateOnly), err)
		}
	}
	m := make(RateMatrix, len(raw))
	for _, from := range Currencies {
		for _, to := range Currencies {
			p := CurrencyPair{From: from, To: to}
			if v, ok := raw[p.key()]; ok {
				m[p] = v
			}
		}
	}
	return m, nil
}

// SetMatrix 序列化矩阵到 rates 列
func (f *FxPartner) SetMatrix(m RateMatrix) error {
	raw := make(map[string]float64, len(m))
	for p, v := range m {
		raw[p.key()] = v
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	f.Rates = b
	return nil
}

// FxPartnerPercentage partner 侧汇率折扣（如 0.95），取最新一条
type FxPartnerPercentage struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	FxPercentage float64   `gorm:"column:fx_percentage;type:numeric(8,6);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (FxPartnerPercentage) TableName() string { return "fx_partner_percentage" }
