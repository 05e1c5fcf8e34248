package attribution

import (
	"fmt"
	"math"

	"BetenlaceSync/internal/currency"
	"BetenlaceSync/internal/model"
)

// PartnerInput 计算 partner 日报所需的数据
type PartnerInput struct {
	Daily      *model.BetenlaceDailyReport
	PLA        *model.PartnerLinkAccumulated
	Partner    *model.Partner
	PartnerCPA int
}

// FillPartnerDaily 根据 betenlace 日报与 partner 设置写入 partner 日报的经济字段。
// 汇率取 resolver 绑定的 FxPartner。
func FillPartnerDaily(pd *model.PartnerLinkDailyReport, in PartnerInput, r *currency.Resolver) error {
	if in.PLA == nil || in.Partner == nil {
		return fmt.Errorf("partner 日报缺少 partner_link_accumulated 或 partner")
	}
	d, pla := in.Daily, in.PLA
	local := pla.CurrencyLocal
	if local == "" {
		local = in.Partner.CurrencyLocal
	}

	fxBook, err := r.FixedIncomeRate(d.CurrencyFixedIncome, local)
	if err != nil {
		return err
	}
	fxNet, err := r.ConditionRate(d.CurrencyCondition, local)
	if err != nil {
		return err
	}

	pd.PartnerLinkAccumulatedID = pla.ID
	pd.CreatedAt = d.CreatedAt
	pd.CurrencyFixedIncome = d.CurrencyFixedIncome
	pd.CurrencyLocal = local
	pd.FxBookLocal = fxBook
	pd.FxBookNetRevenueLocal = fxNet
	pd.FxPercentage = r.Percentage()

	cpa := in.PartnerCPA
	pd.CPACount = &cpa
	pd.PercentageCPA = pla.PercentageCPA
	pd.FixedIncomeUnitary = d.FixedIncomeUnitary * pla.PercentageCPA
	pd.FixedIncome = float64(cpa) * pd.FixedIncomeUnitary
	pd.FixedIncomeUnitaryLocal = pd.FixedIncomeUnitary * fxBook
	pd.FixedIncomeLocal = float64(cpa) * pd.FixedIncomeUnitaryLocal

	pd.Tracker = pla.Tracker
	pd.TrackerDeposit = pla.TrackerDeposit
	pd.TrackerRegisteredCount = pla.TrackerRegisteredCount
	pd.TrackerFirstDepositCount = pla.TrackerFirstDepositCount
	pd.TrackerWageringCount = pla.TrackerWageringCount
	pd.Deposit = d.Deposit * pla.TrackerDeposit
	pd.RegisteredCount = scaleCount(d.RegisteredCount, pla.TrackerRegisteredCount)
	pd.FirstDepositCount = scaleCount(d.FirstDepositCount, pla.TrackerFirstDepositCount)
	pd.WageringCount = scaleCount(d.WageringCount, pla.TrackerWageringCount)

	p := in.Partner
	pd.AdviserID = p.AdviserID
	pd.FixedIncomeAdviserPercentage = p.FixedIncomeAdviserPercentage
	pd.NetRevenueAdviserPercentage = p.NetRevenueAdviserPercentage
	pd.FixedIncomeAdviser, pd.FixedIncomeAdviserLocal = share(pd.FixedIncome, p.FixedIncomeAdviserPercentage, fxBook)
	pd.NetRevenueAdviser, pd.NetRevenueAdviserLocal = share(d.RevenueShare, p.NetRevenueAdviserPercentage, fxNet)

	pd.ReferredByID = p.ReferredByID
	pd.FixedIncomeReferredPercentage = p.FixedIncomeReferredPercentage
	pd.NetRevenueReferredPercentage = p.NetRevenueReferredPercentage
	pd.FixedIncomeReferred, pd.FixedIncomeReferredLocal = share(pd.FixedIncome, p.FixedIncomeReferredPercentage, fxBook)
	pd.NetRevenueReferred, pd.NetRevenueReferredLocal = share(d.RevenueShare, p.NetRevenueReferredPercentage, fxNet)
	return nil
}

// share 百分比为空时两个字段都为空
func share(base float64, pct *float64, fx float64) (*float64, *float64) {
	if pct == nil {
		return nil, nil
	}
	abs := base * *pct
	loc := abs * fx
	return &abs, &loc
}

func scaleCount(n int, ratio float64) int {
	if ratio >= 1 {
		return n
	}
	return int(math.Floor(float64(n)*ratio + 1e-9))
}
