// Package adaptertest 博彩商适配器测试的公共构造
package adaptertest

import (
	"context"
	"io"
	"testing"
	"time"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"

	"github.com/sirupsen/logrus"
)

// Day 测试统一使用的运行日
var Day = time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)

// Logger 丢弃输出的 logger
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Config 指向测试服务器、只尝试一次的博彩商配置
func Config(baseURL, campaign string, cc config.CampaignConfig) *config.BookmakerConfig {
	return &config.BookmakerConfig{
		BaseURL:    baseURL,
		Timeout:    5,
		RetryCount: 1,
		Campaigns:  map[string]config.CampaignConfig{campaign: cc},
	}
}

// Run 按管线的顺序取策略、拉取并解析单日数据
func Run(t *testing.T, a interfaces.BookmakerAdapter, cfg *config.BookmakerConfig, campaign string) (*model.NormalizedReport, error) {
	t.Helper()
	if _, err := a.Policy(campaign); err != nil {
		return nil, err
	}
	req := &interfaces.FetchRequest{
		Campaign: campaign,
		Creds:    cfg.Campaigns[campaign],
		FromDate: Day,
		ToDate:   Day,
		Options:  interfaces.DefaultRunOptions(),
	}
	return adapter.Run(context.Background(), a, req, Logger())
}
