package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// NewRouter 注册运维接口与 pprof
func NewRouter(mode string, sync *SyncHandler, ops *OpsHandler) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.Default()

	// 性能分析 /debug/pprof
	pprof.Register(r)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.POST("/sync/bookmaker/:bookmaker", sync.SyncBookmakerHandler)
	r.POST("/billing/close", ops.CloseBillingHandler)
	r.POST("/clicks/recalc", ops.RecalcClicksHandler)
	r.POST("/fx/sync", ops.SyncFxHandler)
	r.POST("/links/:id/status", ops.SetLinkStatusHandler)
	r.GET("/runs/latest", ops.LatestRunHandler)
	return r
}

// statusOf 错误类型 → HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrCampaignMisconfigured),
		errors.Is(err, interfaces.ErrMultiDayUpdate):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrUpstreamUnavailable),
		errors.Is(err, interfaces.ErrUpstreamAuth):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func dayQuery(c *gin.Context, key string, def time.Time) (time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return parseutil.Day(def), nil
	}
	return parseutil.MustDay(s)
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.New(key + "应为true/false")
	}
	return b, nil
}
