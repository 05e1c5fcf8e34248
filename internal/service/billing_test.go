package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"

	"gorm.io/datatypes"
)

type recordingPublisher struct {
	mu      sync.Mutex
	runs    []RunCompletedEvent
	billing []BillingClosedEvent
}

func (p *recordingPublisher) RunCompleted(_ context.Context, e RunCompletedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, e)
}

func (p *recordingPublisher) BillingClosed(_ context.Context, e BillingClosedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.billing = append(p.billing, e)
}

func (p *recordingPublisher) Close() error { return nil }

func (f *fixture) billing(events EventPublisher) *BillingService {
	return NewBillingService(
		f.db,
		repository.NewCatalogRepository(f.db),
		repository.NewReportRepository(f.db),
		repository.NewWithdrawalRepository(f.db),
		repository.NewFxRepository(f.db),
		events,
		quietLogger(),
		time.Minute,
	)
}

// addPartnerDaily 直接写入一对已入库的日报
func (f *fixture) addPartnerDaily(t *testing.T, link *model.Link, pla *model.PartnerLinkAccumulated, unitary float64, cpa int, fxID *uint64) *model.PartnerLinkDailyReport {
	t.Helper()
	return f.addPartnerDailyOn(t, runDay, link, pla, unitary, cpa, fxID)
}

func (f *fixture) addPartnerDailyOn(t *testing.T, day time.Time, link *model.Link, pla *model.PartnerLinkAccumulated, unitary float64, cpa int, fxID *uint64) *model.PartnerLinkDailyReport {
	t.Helper()
	d := &model.BetenlaceDailyReport{
		LinkID:              link.ID,
		CreatedAt:           day,
		CurrencyCondition:   model.USD,
		CurrencyFixedIncome: model.USD,
		FixedIncome:         unitary * float64(cpa),
		FixedIncomeUnitary:  unitary,
		FxPartnerID:         fxID,
		CPACount:            cpa,
	}
	mustCreate(t, f.db, d)
	pd := &model.PartnerLinkDailyReport{
		BetenlaceDailyReportID:   d.ID,
		PartnerLinkAccumulatedID: pla.ID,
		CreatedAt:                day,
		CurrencyFixedIncome:      model.USD,
		CurrencyLocal:            f.partner.CurrencyLocal,
		CPACount:                 &cpa,
	}
	mustCreate(t, f.db, pd)
	return pd
}

func TestBillingCarryForward(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	fxID := f.fx.ID
	pd := f.addPartnerDaily(t, link, pla, 50, 1, &fxID)
	// 不打折，本月本币正好 50
	f.db.Model(&model.FxPartnerPercentage{}).Where("fx_percentage > 0").Update("fx_percentage", 1)
	mustCreate(t, f.db, &model.MinWithdrawalPartnerMoney{MinUSDByLevel: datatypes.JSON(`{"1":100}`)})

	april := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	prev := &model.WithdrawalPartnerMoney{
		PartnerID:         f.partner.ID,
		CurrencyLocal:     model.USD,
		Status:            model.WithdrawalNotReady,
		BilledAt:          april,
		FixedIncomeTotals: model.FixedIncomeTotals{FixedIncomeUSD: 60, FixedIncomeLocal: 60},
	}
	mustCreate(t, f.db, prev)
	mustCreate(t, f.db, &model.WithdrawalPartnerMoneyAccum{
		WithdrawalID:      prev.ID,
		AccumAt:           april,
		FixedIncomeTotals: model.FixedIncomeTotals{FixedIncomeUSD: 60, FixedIncomeLocal: 60},
	})
	mustCreate(t, f.db, &model.PartnerBankAccount{PartnerID: f.partner.ID, IsPrimary: true, BankName: "Banco", AccountNumber: "001"})

	events := &recordingPublisher{}
	res, err := f.billing(events).Close(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res.Dailies != 1 || res.Partners != 1 || len(res.Withdrawals) != 1 {
		t.Fatalf("result = %+v", res)
	}

	var w model.WithdrawalPartnerMoney
	if err := f.db.Preload("Accums").First(&w, prev.ID).Error; err != nil {
		t.Fatalf("withdrawal: %v", err)
	}
	approx(t, "withdrawal.fixed_income_local", w.FixedIncomeLocal, 110)
	approx(t, "withdrawal.fixed_income_usd", w.FixedIncomeUSD, 110)
	if w.Status != model.WithdrawalToPay {
		t.Errorf("status = %s", w.Status)
	}
	if w.BankName != "Banco" || len(w.BankSnapshot) == 0 {
		t.Errorf("bank snapshot = %q %s", w.BankName, w.BankSnapshot)
	}
	if len(w.Accums) != 2 {
		t.Fatalf("accums = %d", len(w.Accums))
	}
	may := w.Accums[1]
	if !may.AccumAt.Equal(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("accum_at = %v", may.AccumAt)
	}
	approx(t, "may accum local", may.FixedIncomeLocal, 50)
	approx(t, "april accum local", w.Accums[0].FixedIncomeLocal, 60)

	var gotPD model.PartnerLinkDailyReport
	f.db.First(&gotPD, pd.ID)
	approx(t, "partner daily fixed_income", gotPD.FixedIncome, 50)
	approx(t, "partner daily fixed_income_local", gotPD.FixedIncomeLocal, 50)

	if len(events.billing) != 1 || events.billing[0].Month != "2024-05" || events.billing[0].Status != string(model.WithdrawalToPay) {
		t.Errorf("events = %+v", events.billing)
	}
}

func TestBillingIsRepeatableWithinMonth(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	fxID := f.fx.ID
	f.addPartnerDaily(t, link, pla, 30, 2, &fxID)

	b := f.billing(NewNoopPublisher())
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, err := b.Close(context.Background(), today); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
	if n := f.count(t, &model.WithdrawalPartnerMoney{}); n != 1 {
		t.Fatalf("withdrawals = %d", n)
	}
	if n := f.count(t, &model.WithdrawalPartnerMoneyAccum{}); n != 1 {
		t.Fatalf("accums = %d", n)
	}
	var w model.WithdrawalPartnerMoney
	f.db.First(&w)
	// 同币种固定收入也乘 0.95
	approx(t, "fixed_income_local", w.FixedIncomeLocal, 57)
	// 没有最低额配置时任何正数都达标
	if w.Status != model.WithdrawalToPay {
		t.Errorf("status = %s", w.Status)
	}
}

func TestBillingBankNotAcceptedIsNoInfo(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	f.db.Model(f.partner).Update("bank_status", model.BankPending)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	fxID := f.fx.ID
	f.addPartnerDaily(t, link, pla, 500, 1, &fxID)

	res, err := f.billing(NewNoopPublisher()).Close(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if res.Withdrawals[0].Status != model.WithdrawalNoInfo {
		t.Errorf("status = %s", res.Withdrawals[0].Status)
	}
}

func TestBillingConvertsThroughUSDForOtherLocal(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.COP)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	fxID := f.fx.ID
	f.addPartnerDaily(t, link, pla, 10, 1, &fxID)

	res, err := f.billing(NewNoopPublisher()).Close(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	w := res.Withdrawals[0]
	approx(t, "fixed_income_usd", w.FixedIncomeUSD, 10)
	// 10 USD × 4000 × 0.95
	approx(t, "fixed_income_local", w.FixedIncomeLocal, 38000)
}

func TestBillingLocalMatchesPartnerDailies(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.COP)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	next := runDay.AddDate(0, 0, 1)
	fx2 := &model.FxPartner{CreatedAt: next}
	if err := fx2.SetMatrix(model.RateMatrix{
		{From: model.USD, To: model.COP}: 5000,
		{From: model.COP, To: model.USD}: 0.0002,
		{From: model.USD, To: model.EUR}: 0.9,
		{From: model.EUR, To: model.USD}: 1.1,
	}); err != nil {
		t.Fatalf("set matrix: %v", err)
	}
	mustCreate(t, f.db, fx2)
	fxID, fx2ID := f.fx.ID, fx2.ID
	f.addPartnerDailyOn(t, runDay, link, pla, 10, 1, &fxID)
	f.addPartnerDailyOn(t, next, link, pla, 10, 1, &fx2ID)

	res, err := f.billing(NewNoopPublisher()).Close(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	var dailies []model.PartnerLinkDailyReport
	f.db.Find(&dailies)
	sum := 0.0
	for _, pd := range dailies {
		sum += pd.FixedIncomeLocal
	}
	// 每个日报用自己的入库汇率：10×4000×0.95 + 10×5000×0.95
	approx(t, "sum of partner daily local", sum, 85500)
	approx(t, "withdrawal.fixed_income_local", res.Withdrawals[0].FixedIncomeLocal, 85500)
}

func TestBillingWithoutIngestionFXAborts(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	f.addPartnerDaily(t, link, pla, 50, 1, nil)

	_, err := f.billing(NewNoopPublisher()).Close(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, interfaces.ErrFXUndefined) {
		t.Fatalf("err = %v, want FX_UNDEFINED", err)
	}
	if n := f.count(t, &model.WithdrawalPartnerMoney{}); n != 0 {
		t.Errorf("withdrawals = %d", n)
	}
}

func TestBillingRollsMonthAccumulators(t *testing.T) {
	f := newFixture(t, "yajuego 80", model.USD)
	link, pla := f.addLink(t, "AB123", linkOpts{})
	f.db.Model(&model.BetenlaceCPA{}).Where("link_id = ?", link.ID).Updates(map[string]interface{}{"cpa_count": 3, "deposit": 120})
	f.db.Model(pla).Updates(map[string]interface{}{"cpa_count": 3, "fixed_income": 90})

	if _, err := f.billing(NewNoopPublisher()).Close(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("close: %v", err)
	}
	var month model.BetenlaceCPA
	f.db.Where("link_id = ?", link.ID).First(&month)
	if month.CPACount != 0 || month.Deposit != 0 {
		t.Errorf("betenlace month = %+v", month)
	}
	var gotPLA model.PartnerLinkAccumulated
	f.db.First(&gotPLA, pla.ID)
	if gotPLA.CPACount != 0 || gotPLA.FixedIncome != 0 {
		t.Errorf("pla = %+v", gotPLA)
	}
}
