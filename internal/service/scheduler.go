package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Yesterday 默认运行日
func Yesterday(now time.Time) time.Time {
	return parseutil.Day(now.UTC()).AddDate(0, 0, -1)
}

// Ingester 便于测试替换
type Ingester interface {
	Run(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

// Scheduler 把日期区间拆成单日运行，并在 campaign 之间并行
type Scheduler struct {
	ingestion   Ingester
	registry    *adapter.BookmakerRegistry
	parallelism int
	logger      *logrus.Logger
}

func NewScheduler(ingestion Ingester, registry *adapter.BookmakerRegistry, parallelism int, logger *logrus.Logger) *Scheduler {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Scheduler{ingestion: ingestion, registry: registry, parallelism: parallelism, logger: logger}
}

// RunRange 写库时按天升序逐日运行，遇到致命错误即停止；调试文件模式整段一次
func (s *Scheduler) RunRange(ctx context.Context, req IngestRequest) ([]*IngestResult, error) {
	if req.Options.DryRun() {
		res, err := s.ingestion.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		return []*IngestResult{res}, nil
	}
	days := parseutil.Days(req.FromDate, req.ToDate)
	if len(days) == 0 {
		return nil, fmt.Errorf("日期区间为空: %s ~ %s", req.FromDate.Format(time.DateOnly), req.ToDate.Format(time.DateOnly))
	}
	var out []*IngestResult
	for _, day := range days {
		dayReq := req
		dayReq.FromDate, dayReq.ToDate = day, day
		res, err := s.ingestion.Run(ctx, dayReq)
		if err != nil {
			return out, fmt.Errorf("%s/%s %s: %w", req.Bookmaker, req.Campaign, day.Format(time.DateOnly), err)
		}
		out = append(out, res)
	}
	return out, nil
}

// RunAll 所有已配置的 (博彩商, campaign)；单个 campaign 失败不影响其它，最后合并错误
func (s *Scheduler) RunAll(ctx context.Context, from, to time.Time, opts interfaces.RunOptions) error {
	targets := s.registry.Configured()
	s.logger.WithFields(logrus.Fields{
		"campaigns":   len(targets),
		"parallelism": s.parallelism,
		"from_date":   from.Format(time.DateOnly),
		"to_date":     to.Format(time.DateOnly),
	}).Info("开始批量运行")

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	errs := make([]error, len(targets))
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			_, errs[i] = s.RunRange(ctx, IngestRequest{
				Bookmaker: t[0],
				Campaign:  t[1],
				FromDate:  from,
				ToDate:    to,
				Options:   opts,
			})
			if errs[i] != nil {
				s.logger.WithFields(logrus.Fields{
					"bookmaker": t[0],
					"campaign":  t[1],
					"kind":      interfaces.KindOf(errs[i]),
				}).WithError(errs[i]).Error("campaign运行失败")
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
