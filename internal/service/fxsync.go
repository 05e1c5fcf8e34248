package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"
	"BetenlaceSync/internal/utils/httpclient"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// fastforexHistorical GET /historical 响应
type fastforexHistorical struct {
	Base    string             `json:"base"`
	Date    string             `json:"date"`
	Results map[string]float64 `json:"results"`
	Error   string             `json:"error"`
}

// FxSyncService 每日汇率任务：按基准币种逐个拉取 fastforex，组装完整矩阵后写入 FxPartner
type FxSyncService struct {
	cfg    config.FXConfig
	fx     *repository.FxRepository
	logger *logrus.Logger
}

func NewFxSyncService(cfg config.FXConfig, fx *repository.FxRepository, logger *logrus.Logger) *FxSyncService {
	return &FxSyncService{cfg: cfg, fx: fx, logger: logger}
}

// Sync 任一币种对缺失则整行不写
func (s *FxSyncService) Sync(ctx context.Context, day time.Time) (*model.FxPartner, error) {
	day = parseutil.Day(day)
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: 未配置 fx.api_key", interfaces.ErrCampaignMisconfigured)
	}
	log := s.logger.WithField("run_date", day.Format(time.DateOnly))
	client := httpclient.NewClient(
		httpclient.NewHTTPClient(httpclient.Settings{Timeout: s.cfg.Timeout, Proxy: s.cfg.Proxy}, s.logger),
		s.cfg.RetryCount, s.logger)

	matrix := make(model.RateMatrix, len(model.Currencies)*(len(model.Currencies)-1))
	for _, base := range model.Currencies {
		quotes, err := s.fetch(ctx, client, base, day)
		if err != nil {
			return nil, err
		}
		for _, quote := range model.Currencies {
			if quote == base {
				continue
			}
			v, ok := quotes[string(quote)]
			if !ok || v <= 0 {
				return nil, fmt.Errorf("%w: fastforex 缺少 %s→%s（%s）", interfaces.ErrFXUndefined, base, quote, day.Format(time.DateOnly))
			}
			matrix[model.CurrencyPair{From: base, To: quote}] = decimal.NewFromFloat(v).Round(6).InexactFloat64()
		}
	}

	fx := &model.FxPartner{CreatedAt: day}
	if err := fx.SetMatrix(matrix); err != nil {
		return nil, fmt.Errorf("序列化汇率矩阵失败: %w", err)
	}
	if err := s.fx.Upsert(ctx, fx); err != nil {
		return nil, err
	}
	log.WithField("pairs", len(matrix)).Info("汇率矩阵已写入")
	return fx, nil
}

func (s *FxSyncService) fetch(ctx context.Context, client *httpclient.Client, base model.Currency, day time.Time) (map[string]float64, error) {
	u, err := httpclient.WithQuery(strings.TrimRight(s.cfg.BaseURL, "/")+"/historical", map[string]string{
		"date":    day.Format(time.DateOnly),
		"from":    string(base),
		"api_key": s.cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}
	resp, err := client.Get(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("拉取 %s 汇率失败: %w", base, err)
	}
	var body fastforexHistorical
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: 解析 %s 汇率失败: %v", interfaces.ErrParse, base, err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: fastforex %s: %s", interfaces.ErrUpstreamUnavailable, base, body.Error)
	}
	if body.Base != "" && body.Base != string(base) {
		return nil, fmt.Errorf("%w: 请求基准 %s 返回 %s", interfaces.ErrParse, base, body.Base)
	}
	return body.Results, nil
}
