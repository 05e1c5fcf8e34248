package service

import (
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var runDay = time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "betenlace.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.Tables()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

// fixture 一个博彩商、一个 campaign、一个 partner 与若干链接
type fixture struct {
	db       *gorm.DB
	campaign *model.Campaign
	partner  *model.Partner
	fx       *model.FxPartner
}

func newFixture(t *testing.T, title string, local model.Currency) *fixture {
	t.Helper()
	db := newTestDB(t)
	bm := &model.Bookmaker{Name: "yajuego"}
	mustCreate(t, db, bm)
	c := &model.Campaign{
		BookmakerID:         bm.ID,
		Title:               title,
		CurrencyCondition:   model.USD,
		CurrencyFixedIncome: model.USD,
		FixedIncomeUnitary:  30,
		Status:              model.CampaignAvailable,
	}
	mustCreate(t, db, c)
	p := &model.Partner{FullName: "P1", Email: "p1@example.com", Level: 1, CurrencyLocal: local, BankStatus: model.BankAccepted}
	mustCreate(t, db, p)

	fx := &model.FxPartner{CreatedAt: runDay}
	if err := fx.SetMatrix(model.RateMatrix{
		{From: model.USD, To: model.COP}: 4000,
		{From: model.COP, To: model.USD}: 0.00025,
		{From: model.USD, To: model.EUR}: 0.9,
		{From: model.EUR, To: model.USD}: 1.1,
	}); err != nil {
		t.Fatalf("set matrix: %v", err)
	}
	mustCreate(t, db, fx)
	mustCreate(t, db, &model.FxPartnerPercentage{FxPercentage: 0.95})
	return &fixture{db: db, campaign: c, partner: p, fx: fx}
}

type linkOpts struct {
	status        model.LinkStatus
	plaStatus     model.PartnerLinkStatus
	tracker       float64
	percentageCPA float64
	noPartner     bool
}

func (f *fixture) addLink(t *testing.T, promCode string, o linkOpts) (*model.Link, *model.PartnerLinkAccumulated) {
	t.Helper()
	if o.status == "" {
		o.status = model.LinkAssigned
	}
	if o.plaStatus == "" {
		o.plaStatus = model.PartnerLinkActive
	}
	if o.tracker == 0 {
		o.tracker = 1
	}
	if o.percentageCPA == 0 {
		o.percentageCPA = 1
	}
	l := &model.Link{CampaignID: f.campaign.ID, PromCode: promCode, Status: o.status}
	mustCreate(t, f.db, l)
	mustCreate(t, f.db, &model.BetenlaceCPA{LinkID: l.ID})
	if o.noPartner {
		return l, nil
	}
	pla := &model.PartnerLinkAccumulated{
		PartnerID:                f.partner.ID,
		CampaignID:               f.campaign.ID,
		LinkID:                   l.ID,
		PromCode:                 promCode,
		Status:                   o.plaStatus,
		CurrencyLocal:            f.partner.CurrencyLocal,
		PercentageCPA:            o.percentageCPA,
		Tracker:                  o.tracker,
		TrackerDeposit:           1,
		TrackerRegisteredCount:   1,
		TrackerFirstDepositCount: 1,
		TrackerWageringCount:     1,
	}
	mustCreate(t, f.db, pla)
	return l, pla
}

func (f *fixture) updater(minCPATrackerDay int) *AggregateUpdater {
	catalog := repository.NewCatalogRepository(f.db)
	u := NewAggregateUpdater(
		catalog,
		repository.NewReportRepository(f.db),
		repository.NewFxRepository(f.db),
		NewTemperatureService(catalog, quietLogger()),
		quietLogger(),
		minCPATrackerDay,
		time.Minute,
	)
	u.now = func() time.Time { return runDay.Add(20 * time.Hour) }
	return u
}

func (f *fixture) account(t *testing.T, linkID uint64, punter string) *model.AccountReport {
	t.Helper()
	var a model.AccountReport
	if err := f.db.Where("link_id = ? AND punter_id = ?", linkID, punter).First(&a).Error; err != nil {
		t.Fatalf("account %s: %v", punter, err)
	}
	return &a
}

func (f *fixture) daily(t *testing.T, linkID uint64) *model.BetenlaceDailyReport {
	t.Helper()
	var d model.BetenlaceDailyReport
	if err := f.db.Where("link_id = ? AND created_at = ?", linkID, runDay).First(&d).Error; err != nil {
		t.Fatalf("daily link %d: %v", linkID, err)
	}
	return &d
}

func (f *fixture) count(t *testing.T, v interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(v).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", v, err)
	}
	return n
}

func ptr[T any](v T) *T { return &v }
