package attribution

import (
	"fmt"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/parseutil"
)

// Outcome 一行 account 的 CPA 判定结果
type Outcome int

const (
	NoCPA      Outcome = iota // 未达成
	Fired                     // 本次达成，计入当日
	Replayed                  // 重跑当日，之前计过的 CPA 重新计入
	Frozen                    // 之前已有 CPA，不再计数
	Historical                // 博彩商日期不在本月，只记录日期
)

// Counted 是否进入当日 tracker 桶
func (o Outcome) Counted() bool { return o == Fired || o == Replayed }

// QualifyInput 判定所需的上下文
type QualifyInput struct {
	Policy              model.BookmakerPolicy
	RunDate             time.Time
	MonthRef            time.Time // 判定博彩商日期型 CPA 的参考月
	CampaignFixedIncome float64
}

// CheckRow 计数型博彩商单日单 punter 的 cpa 计数不能大于 1
func CheckRow(policy model.BookmakerPolicy, row model.AccountRow) error {
	if policy.Family == model.CPACountProvided && row.RawCPACount != nil && *row.RawCPACount > 1 {
		return fmt.Errorf("%w: punter %s 单日cpa计数为%d", interfaces.ErrDataAnomaly, row.PunterID, *row.RawCPACount)
	}
	if row.RawCPACount != nil && *row.RawCPACount < 0 {
		return fmt.Errorf("%w: punter %s cpa计数为负", interfaces.ErrDataAnomaly, row.PunterID)
	}
	return nil
}

// Qualify 在 ApplyDay 之后调用，按策略决定是否触发 CPA 并写回 account
func Qualify(acc *model.AccountReport, row model.AccountRow, in QualifyInput) Outcome {
	day := parseutil.Day(in.RunDate)

	if acc.CPABetenlace == 1 {
		if acc.CPACountedAt != nil && parseutil.SameDay(*acc.CPACountedAt, day) {
			return Replayed
		}
		return Frozen
	}

	switch in.Policy.Family {
	case model.CPACountProvided:
		if row.RawCPACount == nil || *row.RawCPACount != 1 {
			return NoCPA
		}
		fire(acc, day, day, fixedIncome(row, in))
		return Fired

	case model.CPARevenueThreshold:
		if in.Policy.CPAConditionFromRS <= 0 || acc.RevenueShareCPA < in.Policy.CPAConditionFromRS {
			return NoCPA
		}
		fire(acc, day, day, 0)
		return Fired

	case model.CPABookmakerDated:
		if row.CPAAt == nil {
			return NoCPA
		}
		ref := in.MonthRef
		if ref.IsZero() {
			ref = day
		}
		at := parseutil.Day(*row.CPAAt)
		if !parseutil.SameMonth(at, ref) {
			acc.CPABetenlace = 1
			acc.CPAPartner = 0
			acc.CPAAt = &at
			return Historical
		}
		fire(acc, at, day, fixedIncome(row, in))
		return Fired
	}
	return NoCPA
}

func fire(acc *model.AccountReport, at, countedAt time.Time, fi float64) {
	acc.CPABetenlace = 1
	acc.CPAAt = &at
	acc.CPACountedAt = &countedAt
	acc.FixedIncome = fi
}

func fixedIncome(row model.AccountRow, in QualifyInput) float64 {
	switch in.Policy.FixedIncomeSource {
	case model.FixedIncomeFromRow:
		if row.FixedIncome != nil {
			return *row.FixedIncome
		}
		return row.RevenueShare
	case model.FixedIncomeFromCampaign:
		return in.CampaignFixedIncome
	}
	return 0
}
