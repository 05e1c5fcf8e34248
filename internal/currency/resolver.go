package currency

import (
	"fmt"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
)

// Mode 是否对 partner 方向的换算打折
type Mode int

const (
	// NoHaircut 原始汇率，同币种为 1
	NoHaircut Mode = iota
	// Haircut 不同币种时乘以 fx_percentage，同币种为 1
	Haircut
	// HaircutAlways 同币种也乘以 fx_percentage（固定收入换算到本币）
	HaircutAlways
)

func (m Mode) String() string {
	switch m {
	case NoHaircut:
		return "no-haircut"
	case Haircut:
		return "haircut"
	case HaircutAlways:
		return "haircut-always"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Resolver 绑定某一天的 FxPartner 与当前 fx_percentage
type Resolver struct {
	fx         *model.FxPartner
	matrix     model.RateMatrix
	percentage float64
}

// NewResolver fx 为 nil 时返回 ErrFXUndefined
func NewResolver(fx *model.FxPartner, percentage float64) (*Resolver, error) {
	if fx == nil {
		return nil, fmt.Errorf("%w: 没有可用的FxPartner", interfaces.ErrFXUndefined)
	}
	m, err := fx.Matrix()
	if err != nil {
		return nil, err
	}
	return &Resolver{fx: fx, matrix: m, percentage: percentage}, nil
}

// Percentage 当前 fx_percentage
func (r *Resolver) Percentage() float64 { return r.percentage }

// Rate from→to 的有效汇率，缺格返回 ErrFXUndefined
func (r *Resolver) Rate(from, to model.Currency, mode Mode) (float64, error) {
	if from == to {
		if mode == HaircutAlways {
			return r.percentage, nil
		}
		return 1, nil
	}
	v, ok := r.matrix[model.CurrencyPair{From: from, To: to}]
	if !ok || v <= 0 {
		return 0, fmt.Errorf("%w: %s→%s（FxPartner %s）", interfaces.ErrFXUndefined, from, to, r.fx.CreatedAt.Format("2006-01-02"))
	}
	if mode != NoHaircut {
		v *= r.percentage
	}
	return v, nil
}

// FixedIncomeRate 固定收入币种 → partner 本币（始终打折）
func (r *Resolver) FixedIncomeRate(fixedIncome, local model.Currency) (float64, error) {
	return r.Rate(fixedIncome, local, HaircutAlways)
}

// ConditionRate 条件币种 → partner 本币（跨币种打折）
func (r *Resolver) ConditionRate(condition, local model.Currency) (float64, error) {
	return r.Rate(condition, local, Haircut)
}
