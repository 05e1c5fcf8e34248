package repository

import (
	"context"
	"errors"
	"fmt"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository bookmaker/campaign/link/partner 目录
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithTx 在事务内复用
func (r *CatalogRepository) WithTx(tx *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

// FindCampaign 按博彩商名称与 campaign 标题查找，不存在视为配置错误
func (r *CatalogRepository) FindCampaign(ctx context.Context, bookmaker, title string) (*model.Campaign, error) {
	var bm model.Bookmaker
	err := r.db.WithContext(ctx).Where("name = ?", bookmaker).First(&bm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 数据库中没有博彩商 %s", interfaces.ErrCampaignMisconfigured, bookmaker)
	}
	if err != nil {
		return nil, fmt.Errorf("查询博彩商失败: %w", err)
	}

	var c model.Campaign
	err = r.db.WithContext(ctx).Where("bookmaker_id = ? AND title = ?", bm.ID, title).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 数据库中没有 campaign %s/%s", interfaces.ErrCampaignMisconfigured, bookmaker, title)
	}
	if err != nil {
		return nil, fmt.Errorf("查询campaign失败: %w", err)
	}
	c.Bookmaker = &bm
	return &c, nil
}

// GetCampaign 按 ID 查找
func (r *CatalogRepository) GetCampaign(ctx context.Context, id uint64) (*model.Campaign, error) {
	var c model.Campaign
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, fmt.Errorf("查询campaign(%d)失败: %w", id, err)
	}
	return &c, nil
}

// LinksByPromCodes 一次查出 campaign 下的链接及其 campaign、partner 月累计（含 partner）、betenlace 月累计
func (r *CatalogRepository) LinksByPromCodes(ctx context.Context, campaignID uint64, promCodes []string) (map[string]*model.Link, error) {
	out := make(map[string]*model.Link, len(promCodes))
	if len(promCodes) == 0 {
		return out, nil
	}
	var links []*model.Link
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Preload("PartnerLinkAccumulated").
		Preload("PartnerLinkAccumulated.Partner").
		Preload("BetenlaceCPA").
		Where("campaign_id = ? AND prom_code IN ?", campaignID, promCodes).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询链接失败: %w", err)
	}
	for _, l := range links {
		out[l.PromCode] = l
	}
	return out, nil
}

// GetLink 按 ID 查找
func (r *CatalogRepository) GetLink(ctx context.Context, id uint64) (*model.Link, error) {
	var l model.Link
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: link %d", interfaces.ErrLinkNotFound, id)
		}
		return nil, fmt.Errorf("查询链接失败: %w", err)
	}
	return &l, nil
}

// SetLinkStatus 更新链接状态
func (r *CatalogRepository) SetLinkStatus(ctx context.Context, linkID uint64, status model.LinkStatus) error {
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Where("id = ?", linkID).Update("status", status).Error; err != nil {
		return fmt.Errorf("更新链接(%d)状态失败: %w", linkID, err)
	}
	return nil
}

// LinkStatusCounts campaign 下已分配链接数与非 UNAVAILABLE 链接数
func (r *CatalogRepository) LinkStatusCounts(ctx context.Context, campaignID uint64) (assigned, usable int64, err error) {
	db := r.db.WithContext(ctx).Model(&model.Link{})
	if err = db.Where("campaign_id = ? AND status = ?", campaignID, model.LinkAssigned).Count(&assigned).Error; err != nil {
		return 0, 0, fmt.Errorf("统计已分配链接失败: %w", err)
	}
	db = r.db.WithContext(ctx).Model(&model.Link{})
	if err = db.Where("campaign_id = ? AND status <> ?", campaignID, model.LinkUnavailable).Count(&usable).Error; err != nil {
		return 0, 0, fmt.Errorf("统计可用链接失败: %w", err)
	}
	return assigned, usable, nil
}

// SaveCampaignTemperature 写回温度、状态与 has_links
func (r *CatalogRepository) SaveCampaignTemperature(ctx context.Context, c *model.Campaign) error {
	err := r.db.WithContext(ctx).Model(c).
		Select("temperature", "status", "has_links", "updated_at").
		Updates(c).Error
	if err != nil {
		return fmt.Errorf("更新campaign(%d)温度失败: %w", c.ID, err)
	}
	return nil
}

// PrimaryBankAccounts partner → 主收款账户
func (r *CatalogRepository) PrimaryBankAccounts(ctx context.Context, partnerIDs []uint64) (map[uint64]*model.PartnerBankAccount, error) {
	out := make(map[uint64]*model.PartnerBankAccount, len(partnerIDs))
	if len(partnerIDs) == 0 {
		return out, nil
	}
	var accounts []*model.PartnerBankAccount
	err := r.db.WithContext(ctx).
		Where("partner_id IN ? AND is_primary = ?", partnerIDs, true).
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("查询partner银行账户失败: %w", err)
	}
	for _, a := range accounts {
		if _, ok := out[a.PartnerID]; !ok {
			out[a.PartnerID] = a
		}
	}
	return out, nil
}
