package attribution

import (
	"time"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/parseutil"
)

// DailyInput 单个链接当日的全部输入
type DailyInput struct {
	Day      time.Time
	Campaign *model.Campaign
	Policy   model.BookmakerPolicy
	Members  []model.MemberRow      // 该链接当日的汇总行
	Accounts []*model.AccountReport // 当日出现过的 account（已 ApplyDay）
	Bucket   []*model.AccountReport // 当日计入的 CPA，按加入顺序
}

// FillBetenlaceDaily 覆盖写 betenlace 日报：有汇总行时金额与注册数取汇总行，否则由 account 聚合
func FillBetenlaceDaily(d *model.BetenlaceDailyReport, in DailyInput) {
	day := parseutil.Day(in.Day)
	c := in.Campaign
	d.CreatedAt = day
	d.CurrencyCondition = c.CurrencyCondition
	d.CurrencyFixedIncome = c.CurrencyFixedIncome

	var deposit, stake, netRevenue, revenueShare float64
	var registered, firstDeposit, wagering int
	wageringKnown := false
	memberCPA, memberCPAKnown := 0, false
	memberFI, memberFIKnown := 0.0, false

	if len(in.Members) > 0 {
		for _, m := range in.Members {
			deposit += m.Deposit
			stake += m.Stake
			netRevenue += m.NetRevenue
			revenueShare += m.RevenueShare
			registered += m.RegisteredCount
			firstDeposit += m.FirstDepositCount
			if m.WageringCount != nil {
				wagering += *m.WageringCount
				wageringKnown = true
			}
			if m.CPACount != nil {
				memberCPA += *m.CPACount
				memberCPAKnown = true
			}
			if m.FixedIncome != nil {
				memberFI += *m.FixedIncome
				memberFIKnown = true
			}
		}
	} else {
		for _, acc := range in.Accounts {
			deposit += acc.DayDeposit
			stake += acc.DayStake
			netRevenue += acc.DayNetRevenue
			revenueShare += acc.DayRevenueShare
			if acc.RegisteredAt != nil && parseutil.SameDay(*acc.RegisteredAt, day) {
				registered++
			}
			if acc.FirstDepositAt != nil && parseutil.SameDay(*acc.FirstDepositAt, day) {
				firstDeposit++
			}
		}
	}
	if !wageringKnown {
		for _, acc := range in.Accounts {
			if acc.DayStake > 0 {
				wagering++
			}
		}
	}

	cpa := len(in.Bucket)
	if len(in.Accounts) == 0 && memberCPAKnown {
		cpa = memberCPA
	}

	var fi float64
	switch in.Policy.FixedIncomeSource {
	case model.FixedIncomeFromRow:
		switch {
		case len(in.Accounts) > 0:
			for _, acc := range in.Bucket {
				fi += acc.FixedIncome
			}
		case memberFIKnown:
			fi = memberFI
		default:
			fi = float64(cpa) * c.FixedIncomeUnitary
		}
	case model.FixedIncomeFromCampaign:
		fi = float64(cpa) * c.FixedIncomeUnitary
	}

	unitary := c.FixedIncomeUnitary
	if in.Policy.FixedIncomeSource != model.FixedIncomeNone && cpa > 0 {
		unitary = fi / float64(cpa)
	}

	d.Deposit = deposit
	d.Stake = stake
	d.NetRevenue = netRevenue
	d.RevenueShare = revenueShare
	d.RegisteredCount = registered
	d.FirstDepositCount = firstDeposit
	d.WageringCount = wagering
	d.CPACount = cpa
	d.FixedIncome = fi
	d.FixedIncomeUnitary = unitary
}
