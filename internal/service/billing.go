package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"BetenlaceSync/internal/attribution"
	"BetenlaceSync/internal/currency"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BillingResult 一次出账的摘要
type BillingResult struct {
	Month       time.Time
	Dailies     int
	Partners    int
	Withdrawals []*model.WithdrawalPartnerMoney
}

// BillingService 月结：重算上月 partner 日报并生成/滚动出账
type BillingService struct {
	db          *gorm.DB
	catalog     *repository.CatalogRepository
	reports     *repository.ReportRepository
	withdrawals *repository.WithdrawalRepository
	fx          *repository.FxRepository
	events      EventPublisher
	logger      *logrus.Logger
	txTimeout   time.Duration
}

func NewBillingService(
	db *gorm.DB,
	catalog *repository.CatalogRepository,
	reports *repository.ReportRepository,
	withdrawals *repository.WithdrawalRepository,
	fx *repository.FxRepository,
	events EventPublisher,
	logger *logrus.Logger,
	txTimeout time.Duration,
) *BillingService {
	return &BillingService{
		db:          db,
		catalog:     catalog,
		reports:     reports,
		withdrawals: withdrawals,
		fx:          fx,
		events:      events,
		logger:      logger,
		txTimeout:   txTimeout,
	}
}

// moneyTotals 出账金额的十进制累加器，写库时四舍五入到 6 位
type moneyTotals struct {
	fixed map[model.Currency]decimal.Decimal
	usd   map[model.Currency]decimal.Decimal
	local decimal.Decimal
}

func newMoneyTotals() *moneyTotals {
	return &moneyTotals{
		fixed: make(map[model.Currency]decimal.Decimal),
		usd:   make(map[model.Currency]decimal.Decimal),
	}
}

func (m *moneyTotals) addTotals(t model.FixedIncomeTotals) {
	for _, c := range model.FixedIncomeCurrencies {
		a, u := t.Bucket(c)
		m.fixed[c] = m.fixed[c].Add(decimal.NewFromFloat(*a))
		if u != nil {
			m.usd[c] = m.usd[c].Add(decimal.NewFromFloat(*u))
		}
	}
	m.local = m.local.Add(decimal.NewFromFloat(t.FixedIncomeLocal))
}

func (m *moneyTotals) totals() model.FixedIncomeTotals {
	var t model.FixedIncomeTotals
	for _, c := range model.FixedIncomeCurrencies {
		a, u := t.Bucket(c)
		*a = m.fixed[c].Round(6).InexactFloat64()
		if u != nil {
			*u = m.usd[c].Round(6).InexactFloat64()
		}
	}
	t.FixedIncomeLocal = m.local.Round(6).InexactFloat64()
	return t
}

// partnerSlice 单个 partner 在出账月的日报与金额
type partnerSlice struct {
	partner *model.Partner
	dailies []*model.PartnerLinkDailyReport
	month   *moneyTotals
}

// Close 以 today-1 所在月份为出账月
func (s *BillingService) Close(ctx context.Context, today time.Time) (*BillingResult, error) {
	last := parseutil.Day(today).AddDate(0, 0, -1)
	monthStart, monthEnd := parseutil.MonthStart(last), parseutil.MonthEnd(last)
	log := s.logger.WithFields(logrus.Fields{
		"month": monthStart.Format("2006-01"),
		"today": parseutil.Day(today).Format(time.DateOnly),
	})
	res := &BillingResult{Month: monthStart}

	dailies, err := s.reports.PartnerDailiesInMonth(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	res.Dailies = len(dailies)

	pct, err := s.fx.Percentage(ctx)
	if err != nil {
		log.WithError(err).Error("出账缺少fx_percentage")
		return nil, err
	}
	closeFx, err := s.fx.OnOrBefore(ctx, monthEnd)
	if err != nil {
		log.WithError(err).Error("出账月末没有可用汇率")
		return nil, err
	}
	closeRate, err := currency.NewResolver(closeFx, pct)
	if err != nil {
		return nil, err
	}
	resolvers, err := s.ingestionResolvers(ctx, dailies, pct)
	if err != nil {
		log.WithError(err).Error("出账汇率缺失")
		return nil, err
	}

	slices, err := s.recompute(dailies, resolvers, log)
	if err != nil {
		return nil, err
	}
	res.Partners = len(slices)

	minimums, err := s.withdrawals.MinWithdrawal(ctx)
	if err != nil {
		return nil, err
	}
	partnerIDs := make([]uint64, 0, len(slices))
	for id := range slices {
		partnerIDs = append(partnerIDs, id)
	}
	sort.Slice(partnerIDs, func(i, j int) bool { return partnerIDs[i] < partnerIDs[j] })
	banks, err := s.catalog.PrimaryBankAccounts(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	txCtx := ctx
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		reports := s.reports.WithTx(tx)
		withdrawals := s.withdrawals.WithTx(tx)
		for _, id := range partnerIDs {
			sl := slices[id]
			for _, pd := range sl.dailies {
				if err := reports.UpdatePartnerDaily(txCtx, pd); err != nil {
					return err
				}
			}
			w, err := s.closePartner(txCtx, withdrawals, sl, banks[id], minimums, closeRate, monthEnd)
			if err != nil {
				return err
			}
			res.Withdrawals = append(res.Withdrawals, w)
		}
		return reports.RollMonth(txCtx, parseutil.MonthStart(today))
	})
	if err != nil {
		log.WithError(err).Error("出账事务失败，已回滚")
		return nil, fmt.Errorf("出账%s失败: %w", monthStart.Format("2006-01"), err)
	}

	for _, w := range res.Withdrawals {
		s.events.BillingClosed(ctx, BillingClosedEvent{
			WithdrawalID:     w.ID,
			PartnerID:        w.PartnerID,
			Month:            monthStart.Format("2006-01"),
			Status:           string(w.Status),
			CurrencyLocal:    string(w.CurrencyLocal),
			FixedIncomeLocal: w.FixedIncomeLocal,
		})
	}
	log.WithFields(logrus.Fields{
		"dailies":     res.Dailies,
		"partners":    res.Partners,
		"withdrawals": len(res.Withdrawals),
	}).Info("月结完成")
	return res, nil
}

// ingestionResolvers 每个日报入库时记录的汇率 + 当前 fx_percentage
func (s *BillingService) ingestionResolvers(ctx context.Context, dailies []*model.PartnerLinkDailyReport, pct float64) (map[uint64]*currency.Resolver, error) {
	var ids []uint64
	seen := map[uint64]bool{}
	for _, pd := range dailies {
		d := pd.BetenlaceDailyReport
		if d == nil || d.FxPartnerID == nil {
			return nil, fmt.Errorf("%w: partner日报%d没有入库汇率", interfaces.ErrFXUndefined, pd.ID)
		}
		if !seen[*d.FxPartnerID] {
			seen[*d.FxPartnerID] = true
			ids = append(ids, *d.FxPartnerID)
		}
	}
	rows, err := s.fx.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]*currency.Resolver, len(ids))
	for _, id := range ids {
		r, err := currency.NewResolver(rows[id], pct)
		if err != nil {
			return nil, fmt.Errorf("FxPartner %d: %w", id, err)
		}
		out[id] = r
	}
	return out, nil
}

// recompute 用入库汇率重算 partner 日报，并按 partner 汇总出账月金额
func (s *BillingService) recompute(
	dailies []*model.PartnerLinkDailyReport,
	resolvers map[uint64]*currency.Resolver,
	log *logrus.Entry,
) (map[uint64]*partnerSlice, error) {
	slices := make(map[uint64]*partnerSlice)
	for _, pd := range dailies {
		pla := pd.PartnerLinkAccumulated
		if pla == nil || pla.Partner == nil {
			return nil, fmt.Errorf("partner日报%d缺少partner_link_accumulated", pd.ID)
		}
		d := pd.BetenlaceDailyReport
		rate := resolvers[*d.FxPartnerID]
		err := attribution.FillPartnerDaily(pd, attribution.PartnerInput{
			Daily:      d,
			PLA:        pla,
			Partner:    pla.Partner,
			PartnerCPA: *pd.CPACount,
		}, rate)
		if err != nil {
			return nil, fmt.Errorf("重算partner日报%d失败: %w", pd.ID, err)
		}

		sl, ok := slices[pla.PartnerID]
		if !ok {
			sl = &partnerSlice{partner: pla.Partner, month: newMoneyTotals()}
			slices[pla.PartnerID] = sl
		}
		sl.dailies = append(sl.dailies, pd)
		if err := addDaily(sl.month, pd, rate); err != nil {
			log.WithFields(logrus.Fields{
				"partner_id": pla.PartnerID,
				"daily_id":   pd.ID,
			}).WithError(err).Error("出账换算失败")
			return nil, err
		}
	}
	return slices, nil
}

// addDaily 固定收入计入币种桶；非 USD 另记 USD 过渡值。
// 本币桶直接累加日报的 fixed_income_local，与 partner 月累计同一口径（日报冻结的汇率、同币种也打折）
func addDaily(m *moneyTotals, pd *model.PartnerLinkDailyReport, r *currency.Resolver) error {
	ccy := pd.CurrencyFixedIncome
	fi := decimal.NewFromFloat(pd.FixedIncome)
	if fi.IsZero() {
		return nil
	}
	toUSD, err := r.Rate(ccy, model.USD, currency.NoHaircut)
	if err != nil {
		return err
	}

	m.fixed[ccy] = m.fixed[ccy].Add(fi)
	if ccy != model.USD {
		m.usd[ccy] = m.usd[ccy].Add(fi.Mul(decimal.NewFromFloat(toUSD)))
	}
	m.local = m.local.Add(decimal.NewFromFloat(pd.FixedIncomeLocal))
	return nil
}

// closePartner 合并未付月份、写出账行与当月累计行
func (s *BillingService) closePartner(
	ctx context.Context,
	withdrawals *repository.WithdrawalRepository,
	sl *partnerSlice,
	bank *model.PartnerBankAccount,
	minimums *model.MinWithdrawalPartnerMoney,
	closeRate *currency.Resolver,
	monthEnd time.Time,
) (*model.WithdrawalPartnerMoney, error) {
	p := sl.partner
	w, err := withdrawals.OpenByPartner(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = &model.WithdrawalPartnerMoney{PartnerID: p.ID}
	}

	all := newMoneyTotals()
	all.addTotals(sl.month.totals())
	for _, a := range w.Accums {
		if !parseutil.SameMonth(a.AccumAt, monthEnd) {
			all.addTotals(a.FixedIncomeTotals)
		}
	}

	w.FullName = p.FullName
	w.Email = p.Email
	w.Level = p.Level
	w.BankStatus = p.BankStatus
	w.CurrencyLocal = p.CurrencyLocal
	w.BilledAt = monthEnd
	w.BankName, w.BankAccountNumber, w.BankAccountType = "", "", ""
	if bank != nil {
		w.BankName = bank.BankName
		w.BankAccountNumber = bank.AccountNumber
		w.BankAccountType = bank.AccountType
	}
	snapshot, err := bankSnapshot(bank, monthEnd)
	if err != nil {
		return nil, err
	}
	w.BankSnapshot = snapshot
	w.FixedIncomeTotals = all.totals()

	status, err := withdrawalStatus(p, all.local, minimums, closeRate)
	if err != nil {
		return nil, err
	}
	w.Status = status

	if err := withdrawals.Save(ctx, w); err != nil {
		return nil, err
	}
	if err := withdrawals.UpsertAccum(ctx, &model.WithdrawalPartnerMoneyAccum{
		WithdrawalID:      w.ID,
		AccumAt:           monthEnd,
		FixedIncomeTotals: sl.month.totals(),
	}); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"partner_id":    p.ID,
		"withdrawal_id": w.ID,
		"status":        w.Status,
		"local":         w.FixedIncomeLocal,
		"currency":      w.CurrencyLocal,
	}).Info("partner出账已写入")
	return w, nil
}

// withdrawalStatus 银行信息未通过为 NO_INFO；本币达到等级最低额为 TO_PAY
func withdrawalStatus(p *model.Partner, local decimal.Decimal, minimums *model.MinWithdrawalPartnerMoney, r *currency.Resolver) (model.WithdrawalStatus, error) {
	if p.BankStatus != model.BankAccepted {
		return model.WithdrawalNoInfo, nil
	}
	minUSD, err := minimums.MinUSD(p.Level)
	if err != nil {
		return "", fmt.Errorf("解析最低出账额失败: %w", err)
	}
	rate, err := r.Rate(model.USD, p.CurrencyLocal, currency.Haircut)
	if err != nil {
		return "", err
	}
	minLocal := decimal.NewFromFloat(minUSD).Mul(decimal.NewFromFloat(rate))
	if local.GreaterThanOrEqual(minLocal) {
		return model.WithdrawalToPay, nil
	}
	return model.WithdrawalNotReady, nil
}

func bankSnapshot(bank *model.PartnerBankAccount, monthEnd time.Time) ([]byte, error) {
	snap := map[string]interface{}{
		"snapshot_id": uuid.NewString(),
		"billed_at":   monthEnd.Format(time.DateOnly),
	}
	if bank != nil {
		snap["bank_account_id"] = bank.ID
		snap["bank_name"] = bank.BankName
		snap["account_number"] = bank.AccountNumber
		snap["account_type"] = bank.AccountType
		snap["swift_code"] = bank.SwiftCode
	}
	return json.Marshal(snap)
}
