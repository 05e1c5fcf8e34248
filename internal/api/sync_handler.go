package api

import (
	"context"
	"net/http"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RangeRunner 按天拆分运行区间
type RangeRunner interface {
	RunRange(ctx context.Context, req service.IngestRequest) ([]*service.IngestResult, error)
}

type SyncHandler struct {
	scheduler RangeRunner
	logger    *logrus.Logger
	now       func() time.Time
}

func NewSyncHandler(scheduler RangeRunner, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// SyncBookmakerHandler 手动触发某博彩商 campaign 的入库
// @Summary 入库指定 campaign
// @Param bookmaker path string true "博彩商名称（yajuego/betsson/...）"
// @Param campaign query string true "campaign 标题"
// @Param fromdate query string false "开始日期 YYYY-MM-DD（默认昨天）"
// @Param todate query string false "结束日期 YYYY-MM-DD（默认昨天）"
// @Param update_month query bool false "是否滚动月累计（默认true）"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /sync/bookmaker/{bookmaker} [post]
func (h *SyncHandler) SyncBookmakerHandler(c *gin.Context) {
	bookmaker := c.Param("bookmaker")
	campaign := c.Query("campaign")
	if campaign == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少campaign参数"})
		return
	}

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

	opts := interfaces.DefaultRunOptions()
	if opts.UpdateMonth, err = boolQuery(c, "update_month", opts.UpdateMonth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.scheduler.RunRange(c.Request.Context(), service.IngestRequest{
		Bookmaker: bookmaker,
		Campaign:  campaign,
		FromDate:  from,
		ToDate:    to,
		Options:   opts,
	})
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"bookmaker": bookmaker,
			"campaign":  campaign,
			"kind":      interfaces.KindOf(err),
		}).WithError(err).Error("手动入库失败")
		c.JSON(statusOf(err), gin.H{
			"error": err.Error(),
			"kind":  interfaces.KindOf(err),
			"runs":  runSummaries(results),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": bookmaker + "/" + campaign + "入库完成",
		"runs":    runSummaries(results),
	})
}

func runSummaries(results []*service.IngestResult) []gin.H {
	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		s := gin.H{"run_id": r.RunID, "empty": r.Empty}
		if r.Update != nil {
			s["links"] = r.Update.Links
			s["accounts"] = r.Update.Accounts
			s["cpa_count"] = r.Update.CPACount
			s["skipped"] = r.Update.Skipped
			s["month_skipped"] = r.Update.MonthSkipped
		}
		out = append(out, s)
	}
	return out
}
