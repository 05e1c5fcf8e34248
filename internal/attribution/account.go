package attribution

import (
	"time"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/parseutil"
)

// ApplyDay 把一行当日数值累加进 account report。
// firstTouch 表示本次运行第一次碰到该 account：prev 为该 account 这一天已记录的贡献（没有则为 nil），
// 先整体扣掉；当日记过的 CPA 回退，由 Qualify 重新判定。
func ApplyDay(acc *model.AccountReport, prev *model.AccountDay, row model.AccountRow, day time.Time, policy model.BookmakerPolicy, firstTouch bool) {
	if firstTouch {
		if prev == nil && acc.DayAt != nil && parseutil.SameDay(*acc.DayAt, day) {
			// 没有按天记录的旧数据，退回用最近一天的贡献
			prev = &model.AccountDay{
				Deposit:         acc.DayDeposit,
				Stake:           acc.DayStake,
				NetRevenue:      acc.DayNetRevenue,
				RevenueShare:    acc.DayRevenueShare,
				RevenueShareCPA: acc.DayRevenueShareCPA,
			}
		}
		if prev != nil {
			acc.Deposit -= prev.Deposit
			acc.Stake -= prev.Stake
			acc.NetRevenue -= prev.NetRevenue
			acc.RevenueShare -= prev.RevenueShare
			acc.RevenueShareCPA -= prev.RevenueShareCPA
		}
		if acc.CPACountedAt != nil && parseutil.SameDay(*acc.CPACountedAt, day) {
			rewindCPA(acc)
		}
		acc.DayDeposit, acc.DayStake, acc.DayNetRevenue, acc.DayRevenueShare, acc.DayRevenueShareCPA = 0, 0, 0, 0, 0
		d := parseutil.Day(day)
		acc.DayAt = &d
	}

	rsCPA := row.RevenueShare
	if policy.OnlyPositiveRS && rsCPA < 0 {
		rsCPA = 0
	}

	acc.Deposit += row.Deposit
	acc.Stake += row.Stake
	acc.NetRevenue += row.NetRevenue
	acc.RevenueShare += row.RevenueShare
	acc.RevenueShareCPA += rsCPA
	acc.DayDeposit += row.Deposit
	acc.DayStake += row.Stake
	acc.DayNetRevenue += row.NetRevenue
	acc.DayRevenueShare += row.RevenueShare
	acc.DayRevenueShareCPA += rsCPA

	if acc.RegisteredAt == nil && row.RegisteredAt != nil {
		acc.RegisteredAt = row.RegisteredAt
	}
	if acc.FirstDepositAt == nil && row.FirstDepositAt != nil {
		acc.FirstDepositAt = row.FirstDepositAt
	}
}

func rewindCPA(acc *model.AccountReport) {
	acc.CPABetenlace = 0
	acc.CPAPartner = 0
	acc.CPAAt = nil
	acc.CPACountedAt = nil
	acc.FixedIncome = 0
}

// DayRecord 本次运行后该 account 当日的贡献，按 (link, punter, day) upsert
func DayRecord(acc *model.AccountReport, day time.Time) *model.AccountDay {
	return &model.AccountDay{
		LinkID:          acc.LinkID,
		PunterID:        acc.PunterID,
		Day:             parseutil.Day(day),
		Deposit:         acc.DayDeposit,
		Stake:           acc.DayStake,
		NetRevenue:      acc.DayNetRevenue,
		RevenueShare:    acc.DayRevenueShare,
		RevenueShareCPA: acc.DayRevenueShareCPA,
	}
}
