package adapter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Run 拉取、解析一次；设置了调试文件参数时写出文件。
// 无数据时返回空报告和 ErrUpstreamEmpty（调用方视为成功）
func Run(ctx context.Context, a interfaces.BookmakerAdapter, req *interfaces.FetchRequest, logger *logrus.Logger) (*model.NormalizedReport, error) {
	log := logger.WithFields(logrus.Fields{
		"bookmaker": a.GetName(),
		"campaign":  req.Campaign,
		"from_date": req.FromDate.Format(time.DateOnly),
		"to_date":   req.ToDate.Format(time.DateOnly),
	})
	empty := &model.NormalizedReport{
		Bookmaker:   a.GetName(),
		Campaign:    req.Campaign,
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		Diagnostics: model.Diagnostics{UpstreamEmpty: true},
	}

	raw, err := a.Fetch(ctx, req)
	if err != nil {
		if errors.Is(err, interfaces.ErrUpstreamEmpty) {
			log.WithError(err).Warn("博彩商无数据")
			return empty, err
		}
		log.WithField("kind", interfaces.KindOf(err)).WithError(err).Error("拉取博彩商数据失败")
		return nil, err
	}

	if req.Options.FileRaw != "" {
		if err := WriteRaw(req.Options.FileRaw, raw); err != nil {
			return nil, err
		}
		log.WithField("file", req.Options.FileRaw).Info("原始响应已写出")
	}

	report, err := a.Parse(raw, req)
	if err != nil {
		if errors.Is(err, interfaces.ErrUpstreamEmpty) {
			log.WithError(err).Warn("博彩商无数据")
			return empty, err
		}
		entry := log.WithField("kind", interfaces.KindOf(err)).WithError(err)
		for _, p := range raw.Parts {
			entry = entry.WithField("raw_"+p.Name, httpclient.Truncate(p.Body, 2000))
		}
		entry.Error("解析博彩商数据失败")
		return nil, err
	}

	if req.Options.File != "" {
		if err := WriteNormalizedCSV(req.Options.File, report); err != nil {
			return nil, err
		}
		log.WithField("file", req.Options.File).Info("标准化 CSV 已写出")
	}

	if report.Empty() {
		report.Diagnostics.UpstreamEmpty = true
		log.Warn("博彩商返回的记录为空")
		return report, fmt.Errorf("%w: 解析后无记录", interfaces.ErrUpstreamEmpty)
	}

	log.WithFields(logrus.Fields{
		"raw_rows":      report.Diagnostics.RawRows,
		"account_rows":  len(report.Accounts),
		"member_rows":   len(report.Members),
		"summary_drops": report.Diagnostics.SummaryDrops,
	}).Info("博彩商数据解析完成")
	return report, nil
}

// WriteRaw 单段时直接写 path；多段时写 <name>.<part><ext>
func WriteRaw(path string, raw *model.RawPayload) error {
	if len(raw.Parts) == 1 {
		return writeFile(path, raw.Parts[0].Body)
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for _, p := range raw.Parts {
		if err := writeFile(stem+"."+p.Name+ext, p.Body); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, body []byte) error {
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("写出调试文件%s失败: %w", path, err)
	}
	return nil
}

var normalizedHeader = []string{
	"kind", "prom_code", "punter_id", "deposit", "stake", "net_revenue", "revenue_share",
	"registered_at", "first_deposit_at", "cpa_at", "raw_cpa_count", "fixed_income",
	"registered_count", "first_deposit_count", "cpa_count", "wagering_count",
}

// WriteNormalizedCSV 两个流写入同一个文件，kind 列区分 account/member
func WriteNormalizedCSV(path string, r *model.NormalizedReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建调试文件%s失败: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(normalizedHeader); err != nil {
		return err
	}
	for _, a := range r.Accounts {
		if err := w.Write([]string{
			"account", a.PromCode, a.PunterID, num(a.Deposit), num(a.Stake), num(a.NetRevenue), num(a.RevenueShare),
			date(a.RegisteredAt), date(a.FirstDepositAt), date(a.CPAAt), optInt(a.RawCPACount), optNum(a.FixedIncome),
			"", "", "", "",
		}); err != nil {
			return err
		}
	}
	for _, m := range r.Members {
		if err := w.Write([]string{
			"member", m.PromCode, "", num(m.Deposit), num(m.Stake), num(m.NetRevenue), num(m.RevenueShare),
			"", "", "", "", optNum(m.FixedIncome),
			strconv.Itoa(m.RegisteredCount), strconv.Itoa(m.FirstDepositCount), optInt(m.CPACount), optInt(m.WageringCount),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("写出调试文件%s失败: %w", path, err)
	}
	return nil
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
