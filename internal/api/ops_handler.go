package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 运维接口依赖的服务，便于替换
type (
	BillingCloser interface {
		Close(ctx context.Context, today time.Time) (*service.BillingResult, error)
	}
	ClickRecalculator interface {
		Recalculate(ctx context.Context, from, to time.Time, nullsOnly bool) (int64, error)
	}
	FxSyncer interface {
		Sync(ctx context.Context, day time.Time) (*model.FxPartner, error)
	}
	LinkStatusSetter interface {
		SetStatus(ctx context.Context, linkID uint64, status model.LinkStatus) (*model.Campaign, error)
	}
	RunLookup interface {
		Latest(ctx context.Context, bookmaker, campaign string) (*model.PipelineRun, error)
	}
)

// OpsHandler 出账、点击、汇率、链接状态与运行日志
type OpsHandler struct {
	billing BillingCloser
	clicks  ClickRecalculator
	fx      FxSyncer
	links   LinkStatusSetter
	runs    RunLookup
	logger  *logrus.Logger
	now     func() time.Time
}

func NewOpsHandler(
	billing BillingCloser,
	clicks ClickRecalculator,
	fx FxSyncer,
	links LinkStatusSetter,
	runs RunLookup,
	logger *logrus.Logger,
) *OpsHandler {
	return &OpsHandler{
		billing: billing,
		clicks:  clicks,
		fx:      fx,
		links:   links,
		runs:    runs,
		logger:  logger,
		now:     time.Now,
	}
}

// CloseBillingHandler 出账，today 默认当天
// @Router /billing/close [post]
func (h *OpsHandler) CloseBillingHandler(c *gin.Context) {
	today, err := dayQuery(c, "today", h.now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.billing.Close(c.Request.Context(), today)
	if err != nil {
		h.logger.WithError(err).Error("出账失败")
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":       res.Month.Format("2006-01"),
		"dailies":     res.Dailies,
		"partners":    res.Partners,
		"withdrawals": len(res.Withdrawals),
	})
}

// RecalcClicksHandler 重算点击数，nulls_only 默认 true
// @Router /clicks/recalc [post]
func (h *OpsHandler) RecalcClicksHandler(c *gin.Context) {
	yesterday := service.Yesterday(h.now())
	from, err := dayQuery(c, "fromdate", yesterday)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := dayQuery(c, "todate", yesterday)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	nullsOnly, err := boolQuery(c, "nulls_only", true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := h.clicks.Recalculate(c.Request.Context(), from, to, nullsOnly)
	if err != nil {
		h.logger.WithError(err).Error("点击重算失败")
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// SyncFxHandler 拉取某天汇率矩阵，date 默认当天
// @Router /fx/sync [post]
func (h *OpsHandler) SyncFxHandler(c *gin.Context) {
	day, err := dayQuery(c, "date", h.now().UTC())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fx, err := h.fx.Sync(c.Request.Context(), day)
	if err != nil {
		h.logger.WithError(err).Error("汇率同步失败")
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":   fx.ID,
		"date": fx.CreatedAt.Format(time.DateOnly),
	})
}

// SetLinkStatusHandler 链接状态变更钩子，会重算 campaign 温度
// @Router /links/{id}/status [post]
func (h *OpsHandler) SetLinkStatusHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "链接ID格式错误"})
		return
	}
	status := model.LinkStatus(c.Query("status"))
	switch status {
	case model.LinkAssigned, model.LinkAvailable, model.LinkUnavailable:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "未知的链接状态: " + string(status)})
		return
	}

	campaign, err := h.links.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		h.logger.WithField("link_id", id).WithError(err).Error("更新链接状态失败")
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"campaign_id": campaign.ID,
		"status":      campaign.Status,
		"temperature": campaign.Temperature,
		"has_links":   campaign.HasLinks,
	})
}

// LatestRunHandler 最近一次运行记录
// @Router /runs/latest [get]
func (h *OpsHandler) LatestRunHandler(c *gin.Context) {
	run, err := h.runs.Latest(c.Request.Context(), c.Query("bookmaker"), c.Query("campaign"))
	if err != nil {
		h.logger.WithError(err).Error("查询运行记录失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "暂无运行记录"})
		return
	}
	c.JSON(http.StatusOK, run)
}
