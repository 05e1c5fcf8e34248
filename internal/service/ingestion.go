package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IngestRequest 一次 (博彩商, campaign, 日期区间) 的运行
type IngestRequest struct {
	Bookmaker string
	Campaign  string
	FromDate  time.Time
	ToDate    time.Time
	Options   interfaces.RunOptions
}

// IngestResult 运行结果
type IngestResult struct {
	RunID  string
	Report *model.NormalizedReport
	Update *UpdateResult
	Empty  bool
	DryRun bool
}

// IngestionService 拉取 → 标准化 → 写库，单日运行记录到 pipeline_runs
type IngestionService struct {
	cfg      *config.Config
	registry *adapter.BookmakerRegistry
	catalog  *repository.CatalogRepository
	runs     *repository.RunRepository
	updater  *AggregateUpdater
	locker   RunLocker
	events   EventPublisher
	logger   *logrus.Logger
}

func NewIngestionService(
	cfg *config.Config,
	registry *adapter.BookmakerRegistry,
	catalog *repository.CatalogRepository,
	runs *repository.RunRepository,
	updater *AggregateUpdater,
	locker RunLocker,
	events EventPublisher,
	logger *logrus.Logger,
) *IngestionService {
	return &IngestionService{
		cfg:      cfg,
		registry: registry,
		catalog:  catalog,
		runs:     runs,
		updater:  updater,
		locker:   locker,
		events:   events,
		logger:   logger,
	}
}

// Run 执行一次运行。博彩商无数据时返回 Empty=true 且 err 为 nil
func (s *IngestionService) Run(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"bookmaker": req.Bookmaker,
		"campaign":  req.Campaign,
		"from_date": req.FromDate.Format(time.DateOnly),
		"to_date":   req.ToDate.Format(time.DateOnly),
	})
	a, err := s.registry.GetAdapter(req.Bookmaker)
	if err != nil {
		return nil, err
	}
	policy, err := a.Policy(req.Campaign)
	if err != nil {
		log.WithError(err).Error("campaign配置错误")
		return nil, err
	}
	if req.Options.OnlyPositiveRS != nil {
		policy.OnlyPositiveRS = *req.Options.OnlyPositiveRS
	}
	bmCfg := s.cfg.Bookmakers[req.Bookmaker]
	creds, _ := bmCfg.Campaign(req.Campaign)
	fetch := &interfaces.FetchRequest{
		Campaign: req.Campaign,
		Creds:    creds,
		FromDate: parseutil.Day(req.FromDate),
		ToDate:   parseutil.Day(req.ToDate),
		Options:  req.Options,
	}
	if fetch.ToDate.Before(fetch.FromDate) {
		return nil, fmt.Errorf("todate %s 早于 fromdate %s", fetch.ToDate.Format(time.DateOnly), fetch.FromDate.Format(time.DateOnly))
	}

	if req.Options.DryRun() {
		report, err := adapter.Run(ctx, a, fetch, s.logger)
		if errors.Is(err, interfaces.ErrUpstreamEmpty) {
			return &IngestResult{Report: report, Empty: true, DryRun: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return &IngestResult{Report: report, DryRun: true}, nil
	}

	if !fetch.FromDate.Equal(fetch.ToDate) {
		return nil, fmt.Errorf("%w: %s ~ %s", interfaces.ErrMultiDayUpdate, fetch.FromDate.Format(time.DateOnly), fetch.ToDate.Format(time.DateOnly))
	}
	day := fetch.FromDate

	campaign, err := s.catalog.FindCampaign(ctx, req.Bookmaker, req.Campaign)
	if err != nil {
		log.WithError(err).Error("数据库中找不到campaign")
		return nil, err
	}
	if !campaign.CurrencyCondition.Valid() || !campaign.CurrencyFixedIncome.Valid() {
		err := fmt.Errorf("%w: campaign %s 币种 %s/%s 不在汇率矩阵内", interfaces.ErrCampaignMisconfigured,
			campaign.Title, campaign.CurrencyCondition, campaign.CurrencyFixedIncome)
		log.WithError(err).Error("campaign币种配置错误")
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, campaign.ID, day)
	if err != nil {
		log.WithError(err).Error("获取运行锁失败")
		return nil, err
	}
	defer release()

	run := &model.PipelineRun{
		RunID:     uuid.NewString(),
		Bookmaker: req.Bookmaker,
		Campaign:  req.Campaign,
		RunDate:   day,
	}
	if err := s.runs.Start(ctx, run); err != nil {
		return nil, err
	}
	log = log.WithField("run_id", run.RunID)
	result := &IngestResult{RunID: run.RunID}
	// 运行被取消时仍然要落运行结果
	finishCtx := context.WithoutCancel(ctx)

	report, err := adapter.Run(ctx, a, fetch, s.logger)
	if errors.Is(err, interfaces.ErrUpstreamEmpty) {
		result.Report, result.Empty = report, true
		s.finish(finishCtx, log, run, model.RunEmpty, err, diagnosticsOf(report))
		return result, nil
	}
	if err != nil {
		s.finish(finishCtx, log, run, model.RunFailed, err, nil)
		return nil, err
	}
	result.Report = report

	upd, err := s.updater.Apply(ctx, &UpdateRequest{
		Bookmaker: req.Bookmaker,
		Campaign:  campaign,
		Policy:    policy,
		RunDate:   day,
		Report:    report,
		Options:   req.Options,
	})
	if err != nil {
		s.finish(finishCtx, log, run, model.RunFailed, err, &report.Diagnostics)
		return nil, err
	}
	result.Update = upd
	s.finish(finishCtx, log, run, model.RunSucceeded, nil, &report.Diagnostics)

	s.events.RunCompleted(ctx, RunCompletedEvent{
		RunID:      run.RunID,
		Bookmaker:  req.Bookmaker,
		Campaign:   req.Campaign,
		RunDate:    day.Format(time.DateOnly),
		Links:      upd.Links,
		Accounts:   upd.Accounts,
		CPACount:   upd.CPACount,
		PartnerCPA: upd.PartnerCPA,
	})
	return result, nil
}

func (s *IngestionService) finish(ctx context.Context, log *logrus.Entry, run *model.PipelineRun, status model.RunStatus, runErr error, diag *model.Diagnostics) {
	kind := ""
	if status != model.RunSucceeded {
		kind = interfaces.KindOf(runErr)
	}
	if err := s.runs.Finish(ctx, run, status, kind, runErr, diag); err != nil {
		log.WithError(err).Warn("写入运行结果失败")
	}
	entry := log.WithField("status", status)
	switch status {
	case model.RunFailed:
		entry.WithField("kind", kind).WithError(runErr).Error("运行失败")
	case model.RunEmpty:
		entry.Warn("博彩商无数据，未写库")
	default:
		entry.Info("运行完成")
	}
}

func diagnosticsOf(r *model.NormalizedReport) *model.Diagnostics {
	if r == nil {
		return nil
	}
	return &r.Diagnostics
}
