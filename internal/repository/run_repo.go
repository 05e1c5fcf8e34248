package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"BetenlaceSync/internal/model"

	"gorm.io/gorm"
)

// RunRepository 入库运行日志
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start 记录一次运行开始
func (r *RunRepository) Start(ctx context.Context, run *model.PipelineRun) error {
	run.Status = model.RunRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("记录运行开始失败: %w", err)
	}
	return nil
}

// Finish 记录运行结果
func (r *RunRepository) Finish(ctx context.Context, run *model.PipelineRun, status model.RunStatus, kind string, runErr error, diag *model.Diagnostics) error {
	now := time.Now().UTC()
	run.Status = status
	run.ErrorKind = kind
	run.FinishedAt = &now
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if diag != nil {
		if b, err := json.Marshal(diag); err == nil {
			run.Diagnostics = b
		}
	}
	err := r.db.WithContext(ctx).Model(run).
		Select("status", "error_kind", "error", "diagnostics", "finished_at").
		Updates(run).Error
	if err != nil {
		return fmt.Errorf("记录运行结果失败: %w", err)
	}
	return nil
}

// Latest 某 campaign 最近一次运行，campaign 为空时取全局最近一次
func (r *RunRepository) Latest(ctx context.Context, bookmaker, campaign string) (*model.PipelineRun, error) {
	q := r.db.WithContext(ctx).Order("started_at DESC, id DESC")
	if bookmaker != "" {
		q = q.Where("bookmaker = ?", bookmaker)
	}
	if campaign != "" {
		q = q.Where("campaign = ?", campaign)
	}
	var run model.PipelineRun
	err := q.First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询最近运行失败: %w", err)
	}
	return &run, nil
}
