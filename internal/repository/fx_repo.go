package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FxRepository 汇率矩阵与 fx_percentage
type FxRepository struct {
	db *gorm.DB
}

func NewFxRepository(db *gorm.DB) *FxRepository {
	return &FxRepository{db: db}
}

// ForIngestion 入库用：取 day 当天或之后最近的一行，没有则取之前最近的一行
func (r *FxRepository) ForIngestion(ctx context.Context, day time.Time) (*model.FxPartner, error) {
	var fx model.FxPartner
	err := r.db.WithContext(ctx).Where("created_at >= ?", day).Order("created_at ASC").First(&fx).Error
	if err == nil {
		return &fx, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询FxPartner失败: %w", err)
	}
	return r.OnOrBefore(ctx, day)
}

// OnOrBefore day 当天或之前最近的一行
func (r *FxRepository) OnOrBefore(ctx context.Context, day time.Time) (*model.FxPartner, error) {
	var fx model.FxPartner
	err := r.db.WithContext(ctx).Where("created_at <= ?", day).Order("created_at DESC").First(&fx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s 及之前没有FxPartner", interfaces.ErrFXUndefined, day.Format(time.DateOnly))
	}
	if err != nil {
		return nil, fmt.Errorf("查询FxPartner失败: %w", err)
	}
	return &fx, nil
}

// ByIDs 按 ID 批量查询（出账时使用入库记录的汇率）
func (r *FxRepository) ByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.FxPartner, error) {
	out := make(map[uint64]*model.FxPartner, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []*model.FxPartner
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("批量查询FxPartner失败: %w", err)
	}
	for _, fx := range rows {
		out[fx.ID] = fx
	}
	return out, nil
}

// Percentage 最新的 fx_percentage
func (r *FxRepository) Percentage(ctx context.Context) (float64, error) {
	var p model.FxPartnerPercentage
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: 未配置fx_percentage", interfaces.ErrFXUndefined)
	}
	if err != nil {
		return 0, fmt.Errorf("查询fx_percentage失败: %w", err)
	}
	return p.FxPercentage, nil
}

// Upsert 按日期写入汇率矩阵
func (r *FxRepository) Upsert(ctx context.Context, fx *model.FxPartner) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "created_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"rates", "updated_at"}),
	}).Create(fx).Error
	if err != nil {
		return fmt.Errorf("写入FxPartner(%s)失败: %w", fx.CreatedAt.Format(time.DateOnly), err)
	}
	return nil
}
