package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BetenlaceSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawalRepository 出账行与按月累计行
type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// WithTx 在事务内复用
func (r *WithdrawalRepository) WithTx(tx *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: tx}
}

// OpenByPartner partner 尚未付款的出账行（含累计行），没有则返回 nil
func (r *WithdrawalRepository) OpenByPartner(ctx context.Context, partnerID uint64) (*model.WithdrawalPartnerMoney, error) {
	var w model.WithdrawalPartnerMoney
	err := r.db.WithContext(ctx).
		Preload("Accums", func(db *gorm.DB) *gorm.DB { return db.Order("accum_at") }).
		Where("partner_id = ? AND status <> ?", partnerID, model.WithdrawalPayed).
		Order("id DESC").
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询partner(%d)未付出账失败: %w", partnerID, err)
	}
	return &w, nil
}

// Save 新建或更新出账行（不级联累计行）
func (r *WithdrawalRepository) Save(ctx context.Context, w *model.WithdrawalPartnerMoney) error {
	db := r.db.WithContext(ctx).Omit(clause.Associations)
	if w.ID == 0 {
		if err := db.Create(w).Error; err != nil {
			return fmt.Errorf("新建partner(%d)出账失败: %w", w.PartnerID, err)
		}
		return nil
	}
	if err := db.Model(w).Select(model.WithdrawalFields).Updates(w).Error; err != nil {
		return fmt.Errorf("更新出账(%d)失败: %w", w.ID, err)
	}
	return nil
}

// UpsertAccum 按 (withdrawal, accum_at) 写入当月累计
func (r *WithdrawalRepository) UpsertAccum(ctx context.Context, a *model.WithdrawalPartnerMoneyAccum) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "withdrawal_id"}, {Name: "accum_at"}},
		DoUpdates: clause.AssignmentColumns(model.WithdrawalAccumFields),
	}).Create(a).Error
	if err != nil {
		return fmt.Errorf("写入出账累计(%d, %s)失败: %w", a.WithdrawalID, a.AccumAt.Format(time.DateOnly), err)
	}
	return nil
}

// MinWithdrawal 最新的各等级最低出账额
func (r *WithdrawalRepository) MinWithdrawal(ctx context.Context) (*model.MinWithdrawalPartnerMoney, error) {
	var m model.MinWithdrawalPartnerMoney
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.MinWithdrawalPartnerMoney{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询最低出账额失败: %w", err)
	}
	return &m, nil
}
