package service

import (
	"context"
	"fmt"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// TemperatureService campaign 温度 = 已分配链接 / 非 UNAVAILABLE 链接
type TemperatureService struct {
	catalog *repository.CatalogRepository
	logger  *logrus.Logger
}

func NewTemperatureService(catalog *repository.CatalogRepository, logger *logrus.Logger) *TemperatureService {
	return &TemperatureService{catalog: catalog, logger: logger}
}

// Recalculate 重算温度并应用 AVAILABLE ⇄ OUT_STOCK 转换；NOT_AVAILABLE/INACTIVE 由运营控制，不动
func (s *TemperatureService) Recalculate(ctx context.Context, campaignID uint64) (*model.Campaign, error) {
	c, err := s.catalog.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	assigned, usable, err := s.catalog.LinkStatusCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	temp := 1.0
	if usable > 0 {
		temp = float64(assigned) / float64(usable)
	}
	before := c.Status
	c.Temperature = temp
	c.HasLinks = usable > assigned
	switch {
	case temp >= 1 && c.Status == model.CampaignAvailable:
		c.Status = model.CampaignOutStock
	case temp < 1 && c.Status == model.CampaignOutStock:
		c.Status = model.CampaignAvailable
	}
	if err := s.catalog.SaveCampaignTemperature(ctx, c); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"campaign":    c.Title,
		"temperature": temp,
		"assigned":    assigned,
		"usable":      usable,
		"status_from": before,
		"status_to":   c.Status,
	}).Info("campaign温度已重算")
	return c, nil
}

// LinkService 链接状态变更入口，变更后重算所属 campaign 温度
type LinkService struct {
	catalog     *repository.CatalogRepository
	temperature *TemperatureService
}

func NewLinkService(catalog *repository.CatalogRepository, temperature *TemperatureService) *LinkService {
	return &LinkService{catalog: catalog, temperature: temperature}
}

// SetStatus 更新链接状态并重算温度
func (s *LinkService) SetStatus(ctx context.Context, linkID uint64, status model.LinkStatus) (*model.Campaign, error) {
	link, err := s.catalog.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.SetLinkStatus(ctx, linkID, status); err != nil {
		return nil, err
	}
	c, err := s.temperature.Recalculate(ctx, link.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("链接(%d)状态已更新，重算温度失败: %w", linkID, err)
	}
	return c, nil
}
