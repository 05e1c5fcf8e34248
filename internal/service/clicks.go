package service

import (
	"context"
	"time"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
)

// ClickSource 点击库读取接口，生产实现为 repository.ClickRepository
type ClickSource interface {
	CountsByDay(ctx context.Context, from, to time.Time) ([]model.ClickCount, error)
}

// ClickService 把点击库的 (link, day) 汇总写回 betenlace 日报，可重复执行
type ClickService struct {
	clicks  ClickSource
	reports *repository.ReportRepository
	logger  *logrus.Logger
}

func NewClickService(clicks ClickSource, reports *repository.ReportRepository, logger *logrus.Logger) *ClickService {
	return &ClickService{clicks: clicks, reports: reports, logger: logger}
}

// Recalculate nullsOnly 时只处理 click_count 为空的日报行，点击库无记录的写 0
func (s *ClickService) Recalculate(ctx context.Context, from, to time.Time, nullsOnly bool) (int64, error) {
	from, to = parseutil.Day(from), parseutil.Day(to)
	log := s.logger.WithFields(logrus.Fields{
		"from_date":  from.Format(time.DateOnly),
		"to_date":    to.Format(time.DateOnly),
		"nulls_only": nullsOnly,
	})

	var pending []*model.BetenlaceDailyReport
	if nullsOnly {
		var err error
		pending, err = s.reports.DailyLinksWithNullClicks(ctx, from, to)
		if err != nil {
			return 0, err
		}
		if len(pending) == 0 {
			log.Info("没有点击数为空的日报")
			return 0, nil
		}
		// 缩小点击库查询范围
		from, to = pending[0].CreatedAt, pending[0].CreatedAt
		for _, d := range pending[1:] {
			if d.CreatedAt.Before(from) {
				from = d.CreatedAt
			}
			if d.CreatedAt.After(to) {
				to = d.CreatedAt
			}
		}
		from, to = parseutil.Day(from), parseutil.Day(to)
	}

	counts, err := s.clicks.CountsByDay(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if nullsOnly {
		seen := make(map[model.ClickCount]bool, len(counts))
		for _, c := range counts {
			seen[model.ClickCount{LinkID: c.LinkID, Day: c.Day}] = true
		}
		for _, d := range pending {
			key := model.ClickCount{LinkID: d.LinkID, Day: parseutil.Day(d.CreatedAt)}
			if !seen[key] {
				counts = append(counts, key)
			}
		}
	}

	n, err := s.reports.SetClickCounts(ctx, counts, nullsOnly)
	if err != nil {
		return 0, err
	}
	log.WithFields(logrus.Fields{"groups": len(counts), "updated": n}).Info("点击数重算完成")
	return n, nil
}
