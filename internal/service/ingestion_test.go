package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// stubBookmaker 返回预置的报告，记录每次拉取的日期
type stubBookmaker struct {
	adapter.Base
	mu      sync.Mutex
	report  func(req *interfaces.FetchRequest) (*model.NormalizedReport, error)
	fetched []string
}

func (s *stubBookmaker) Fetch(_ context.Context, req *interfaces.FetchRequest) (*model.RawPayload, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, req.FromDate.Format(time.DateOnly)+"~"+req.ToDate.Format(time.DateOnly))
	s.mu.Unlock()
	return s.Payload(req, model.RawPart{Name: "stub", Body: []byte("{}")}), nil
}

func (s *stubBookmaker) Parse(_ *model.RawPayload, req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
	return s.report(req)
}

func init() {
	adapter.Register("yajuego", func(cfg *config.BookmakerConfig, logger *logrus.Logger) interfaces.BookmakerAdapter {
		return &stubBookmaker{Base: adapter.Base{
			Name:     "yajuego",
			Cfg:      cfg,
			Logger:   logger,
			Titles:   []string{"yajuego 80", "yajuego 100"},
			Family:   model.CPACountProvided,
			FISource: model.FixedIncomeFromRow,
		}}
	})
}

type failingLocker struct{}

func (failingLocker) Acquire(context.Context, uint64, time.Time) (func(), error) {
	return nil, fmt.Errorf("%w: held", interfaces.ErrRunInProgress)
}

type ingestionHarness struct {
	f       *fixture
	stub    *stubBookmaker
	svc     *IngestionService
	events  *recordingPublisher
	cfg     *config.Config
	reg     *adapter.BookmakerRegistry
	runRepo *repository.RunRepository
}

func newIngestionHarness(t *testing.T, locker RunLocker) *ingestionHarness {
	t.Helper()
	f := newFixture(t, "yajuego 80", model.USD)
	f.addLink(t, "AB123", linkOpts{})
	cfg := &config.Config{Bookmakers: map[string]config.BookmakerConfig{
		"yajuego": {BaseURL: "http://stub", Campaigns: map[string]config.CampaignConfig{"yajuego 80": {}}},
	}}
	reg := adapter.NewBookmakerRegistry(cfg, quietLogger())
	a, err := reg.GetAdapter("yajuego")
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	stub := a.(*stubBookmaker)
	stub.report = func(req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
		r := stub.NewReport(req)
		r.Accounts = []model.AccountRow{cpaRow("AB123", "U1")}
		return r, nil
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	events := &recordingPublisher{}
	runs := repository.NewRunRepository(f.db)
	svc := NewIngestionService(cfg, reg, repository.NewCatalogRepository(f.db), runs, f.updater(5), locker, events, quietLogger())
	return &ingestionHarness{f: f, stub: stub, svc: svc, events: events, cfg: cfg, reg: reg, runRepo: runs}
}

func (h *ingestionHarness) req(from, to time.Time) IngestRequest {
	return IngestRequest{Bookmaker: "yajuego", Campaign: "yajuego 80", FromDate: from, ToDate: to, Options: interfaces.DefaultRunOptions()}
}

func (h *ingestionHarness) latest(t *testing.T) *model.PipelineRun {
	t.Helper()
	run, err := h.runRepo.Latest(context.Background(), "yajuego", "yajuego 80")
	if err != nil || run == nil {
		t.Fatalf("latest run = %v, %v", run, err)
	}
	return run
}

func TestIngestionRunWritesAndRecords(t *testing.T) {
	h := newIngestionHarness(t, nil)
	res, err := h.svc.Run(context.Background(), h.req(runDay, runDay))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Empty || res.Update == nil || res.Update.CPACount != 1 || res.RunID == "" {
		t.Fatalf("result = %+v", res)
	}
	run := h.latest(t)
	if run.RunID != res.RunID || run.Status != model.RunSucceeded || run.FinishedAt == nil {
		t.Errorf("run = %+v", run)
	}
	if len(h.events.runs) != 1 || h.events.runs[0].RunDate != "2024-05-14" || h.events.runs[0].CPACount != 1 {
		t.Errorf("events = %+v", h.events.runs)
	}
	if n := h.f.count(t, &model.BetenlaceDailyReport{}); n != 1 {
		t.Errorf("daily rows = %d", n)
	}
}

func TestIngestionEmptyUpstreamSucceedsWithoutWrites(t *testing.T) {
	h := newIngestionHarness(t, nil)
	h.stub.report = func(req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
		return nil, fmt.Errorf("%w: no data", interfaces.ErrUpstreamEmpty)
	}
	res, err := h.svc.Run(context.Background(), h.req(runDay, runDay))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Empty {
		t.Errorf("result = %+v", res)
	}
	if run := h.latest(t); run.Status != model.RunEmpty {
		t.Errorf("status = %s", run.Status)
	}
	if n := h.f.count(t, &model.AccountReport{}); n != 0 {
		t.Errorf("account rows = %d", n)
	}
	if len(h.events.runs) != 0 {
		t.Errorf("events = %+v", h.events.runs)
	}
}

func TestIngestionParseErrorMarksRunFailed(t *testing.T) {
	h := newIngestionHarness(t, nil)
	h.stub.report = func(req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
		return nil, fmt.Errorf("%w: bad column", interfaces.ErrParse)
	}
	_, err := h.svc.Run(context.Background(), h.req(runDay, runDay))
	if !errors.Is(err, interfaces.ErrParse) {
		t.Fatalf("err = %v", err)
	}
	run := h.latest(t)
	if run.Status != model.RunFailed || run.ErrorKind != "PARSE_ERROR" || run.Error == "" {
		t.Errorf("run = %+v", run)
	}
}

func TestIngestionRejectsMultiDayWrites(t *testing.T) {
	h := newIngestionHarness(t, nil)
	_, err := h.svc.Run(context.Background(), h.req(runDay, runDay.AddDate(0, 0, 1)))
	if !errors.Is(err, interfaces.ErrMultiDayUpdate) {
		t.Fatalf("err = %v", err)
	}
	if len(h.stub.fetched) != 0 {
		t.Errorf("fetched = %v", h.stub.fetched)
	}
}

func TestIngestionDryRunSpansRange(t *testing.T) {
	h := newIngestionHarness(t, nil)
	req := h.req(runDay, runDay.AddDate(0, 0, 2))
	req.Options.File = filepath.Join(t.TempDir(), "out.csv")
	res, err := h.svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.DryRun || len(res.Report.Accounts) != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(h.stub.fetched) != 1 || h.stub.fetched[0] != "2024-05-14~2024-05-16" {
		t.Errorf("fetched = %v", h.stub.fetched)
	}
	if n := h.f.count(t, &model.PipelineRun{}); n != 0 {
		t.Errorf("runs = %d", n)
	}
}

func TestIngestionLockHeld(t *testing.T) {
	h := newIngestionHarness(t, failingLocker{})
	_, err := h.svc.Run(context.Background(), h.req(runDay, runDay))
	if !errors.Is(err, interfaces.ErrRunInProgress) {
		t.Fatalf("err = %v", err)
	}
	if n := h.f.count(t, &model.PipelineRun{}); n != 0 {
		t.Errorf("runs = %d", n)
	}
}

func TestIngestionUnknownCampaign(t *testing.T) {
	h := newIngestionHarness(t, nil)
	req := h.req(runDay, runDay)
	req.Campaign = "yajuego 100"
	_, err := h.svc.Run(context.Background(), req)
	if !errors.Is(err, interfaces.ErrCampaignMisconfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestIngestionRejectsCampaignCurrencyOutsideMatrix(t *testing.T) {
	h := newIngestionHarness(t, nil)
	h.f.db.Model(h.f.campaign).Update("currency_fixed_income", "ARS")
	_, err := h.svc.Run(context.Background(), h.req(runDay, runDay))
	if !errors.Is(err, interfaces.ErrCampaignMisconfigured) {
		t.Fatalf("err = %v", err)
	}
	if len(h.stub.fetched) != 0 {
		t.Errorf("fetched = %v", h.stub.fetched)
	}
}

func TestSchedulerSplitsDaysAscending(t *testing.T) {
	h := newIngestionHarness(t, nil)
	s := NewScheduler(h.svc, h.reg, 2, quietLogger())
	results, err := s.RunRange(context.Background(), h.req(runDay, runDay.AddDate(0, 0, 2)))
	if err != nil {
		t.Fatalf("run range: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	want := []string{"2024-05-14~2024-05-14", "2024-05-15~2024-05-15", "2024-05-16~2024-05-16"}
	for i, w := range want {
		if h.stub.fetched[i] != w {
			t.Errorf("fetch %d = %s, want %s", i, h.stub.fetched[i], w)
		}
	}
	if n := h.f.count(t, &model.PipelineRun{}); n != 3 {
		t.Errorf("runs = %d", n)
	}
}

func TestSchedulerRepeatedRangeKeepsAccumulators(t *testing.T) {
	h := newIngestionHarness(t, nil)
	s := NewScheduler(h.svc, h.reg, 1, quietLogger())
	for i := 0; i < 2; i++ {
		if _, err := s.RunRange(context.Background(), h.req(runDay, runDay.AddDate(0, 0, 2))); err != nil {
			t.Fatalf("run range #%d: %v", i+1, err)
		}
	}

	var link model.Link
	h.f.db.Where("prom_code = ?", "AB123").First(&link)
	acc := h.f.account(t, link.ID, "U1")
	approx(t, "account.deposit", acc.Deposit, 150)
	approx(t, "account.stake", acc.Stake, 30)
	if acc.CPABetenlace != 1 || acc.CPAAt == nil || !acc.CPAAt.Equal(runDay) {
		t.Errorf("account cpa = %d at %v", acc.CPABetenlace, acc.CPAAt)
	}

	var month model.BetenlaceCPA
	h.f.db.Where("link_id = ?", link.ID).First(&month)
	approx(t, "month.deposit", month.Deposit, 150)
	if month.CPACount != 1 || month.RegisteredCount != 1 {
		t.Errorf("month = %+v", month)
	}
	if n := h.f.count(t, &model.BetenlaceDailyReport{}); n != 3 {
		t.Errorf("daily rows = %d", n)
	}
	if n := h.f.count(t, &model.AccountDay{}); n != 3 {
		t.Errorf("account day rows = %d", n)
	}
}

func TestSchedulerStopsAtFirstFailure(t *testing.T) {
	h := newIngestionHarness(t, nil)
	h.stub.report = func(req *interfaces.FetchRequest) (*model.NormalizedReport, error) {
		if req.FromDate.Equal(runDay.AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("%w: broken", interfaces.ErrParse)
		}
		r := h.stub.NewReport(req)
		r.Accounts = []model.AccountRow{cpaRow("AB123", "U1")}
		return r, nil
	}
	s := NewScheduler(h.svc, h.reg, 1, quietLogger())
	results, err := s.RunRange(context.Background(), h.req(runDay, runDay.AddDate(0, 0, 2)))
	if !errors.Is(err, interfaces.ErrParse) {
		t.Fatalf("err = %v", err)
	}
	if len(results) != 1 || len(h.stub.fetched) != 2 {
		t.Errorf("results = %d fetched = %v", len(results), h.stub.fetched)
	}
}

// countingIngester 只记录调用
type countingIngester struct {
	mu    sync.Mutex
	calls map[string]int
	fail  string
}

func (c *countingIngester) Run(_ context.Context, req IngestRequest) (*IngestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[req.Campaign]++
	if req.Campaign == c.fail {
		return nil, fmt.Errorf("%w: down", interfaces.ErrUpstreamUnavailable)
	}
	return &IngestResult{}, nil
}

func TestSchedulerRunAllIsolatesCampaignFailures(t *testing.T) {
	cfg := &config.Config{Bookmakers: map[string]config.BookmakerConfig{
		"yajuego": {BaseURL: "http://stub", Campaigns: map[string]config.CampaignConfig{"yajuego 80": {}, "yajuego 100": {}}},
	}}
	reg := adapter.NewBookmakerRegistry(cfg, quietLogger())
	ing := &countingIngester{calls: map[string]int{}, fail: "yajuego 100"}
	s := NewScheduler(ing, reg, 4, quietLogger())

	err := s.RunAll(context.Background(), runDay, runDay.AddDate(0, 0, 1), interfaces.DefaultRunOptions())
	if !errors.Is(err, interfaces.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if ing.calls["yajuego 80"] != 2 || ing.calls["yajuego 100"] != 1 {
		t.Errorf("calls = %v", ing.calls)
	}
}

func TestYesterday(t *testing.T) {
	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	if got := Yesterday(now); !got.Equal(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("yesterday = %v", got)
	}
}
