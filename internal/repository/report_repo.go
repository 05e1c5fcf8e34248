package repository

import (
	"context"
	"fmt"
	"time"

	"BetenlaceSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

// AccountKey (link, punter)
type AccountKey struct {
	LinkID   uint64
	PunterID string
}

// Batch 一次运行要写入的全部行，新建与更新分开
type Batch struct {
	NewAccounts     []*model.AccountReport
	UpdatedAccounts []*model.AccountReport
	// 按 (link, punter, day) upsert
	AccountDays []*model.AccountDay

	NewDailies     []*model.BetenlaceDailyReport
	UpdatedDailies []*model.BetenlaceDailyReport

	// 新 partner 日报的 BetenlaceDailyReport 指针指向同批次的日报，提交时回填外键
	NewPartnerDailies     []*model.PartnerLinkDailyReport
	UpdatedPartnerDailies []*model.PartnerLinkDailyReport

	MonthCPA []*model.BetenlaceCPA
	MonthPLA []*model.PartnerLinkAccumulated

	LinkStatus []*model.Link
}

// Empty 没有任何写入
func (b *Batch) Empty() bool {
	return len(b.NewAccounts)+len(b.UpdatedAccounts)+len(b.AccountDays)+len(b.NewDailies)+len(b.UpdatedDailies)+
		len(b.NewPartnerDailies)+len(b.UpdatedPartnerDailies)+len(b.MonthCPA)+len(b.MonthPLA)+len(b.LinkStatus) == 0
}

// ReportRepository 三类报表的读写
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// WithTx 在事务内复用
func (r *ReportRepository) WithTx(tx *gorm.DB) *ReportRepository {
	return &ReportRepository{db: tx}
}

// AccountsFor 一次查出这些链接下这些 punter 的 account report
func (r *ReportRepository) AccountsFor(ctx context.Context, linkIDs []uint64, punters []string) (map[AccountKey]*model.AccountReport, error) {
	out := make(map[AccountKey]*model.AccountReport)
	if len(linkIDs) == 0 || len(punters) == 0 {
		return out, nil
	}
	var rows []*model.AccountReport
	err := r.db.WithContext(ctx).
		Where("link_id IN ? AND punter_id IN ?", linkIDs, punters).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询account report失败: %w", err)
	}
	for _, a := range rows {
		out[AccountKey{LinkID: a.LinkID, PunterID: a.PunterID}] = a
	}
	return out, nil
}

// AccountDaysFor 这些 account 在某天已记录的贡献
func (r *ReportRepository) AccountDaysFor(ctx context.Context, linkIDs []uint64, punters []string, day time.Time) (map[AccountKey]*model.AccountDay, error) {
	out := make(map[AccountKey]*model.AccountDay)
	if len(linkIDs) == 0 || len(punters) == 0 {
		return out, nil
	}
	var rows []*model.AccountDay
	err := r.db.WithContext(ctx).
		Where("link_id IN ? AND punter_id IN ? AND day = ?", linkIDs, punters, day).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询account日贡献失败: %w", err)
	}
	for _, d := range rows {
		out[AccountKey{LinkID: d.LinkID, PunterID: d.PunterID}] = d
	}
	return out, nil
}

// DailiesFor 某天这些链接的 betenlace 日报，link → 日报
func (r *ReportRepository) DailiesFor(ctx context.Context, linkIDs []uint64, day time.Time) (map[uint64]*model.BetenlaceDailyReport, error) {
	out := make(map[uint64]*model.BetenlaceDailyReport)
	if len(linkIDs) == 0 {
		return out, nil
	}
	var rows []*model.BetenlaceDailyReport
	err := r.db.WithContext(ctx).
		Where("link_id IN ? AND created_at = ?", linkIDs, day).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询betenlace日报失败: %w", err)
	}
	for _, d := range rows {
		out[d.LinkID] = d
	}
	return out, nil
}

// PartnerDailiesFor 这些 betenlace 日报对应的 partner 日报，betenlace 日报 ID → partner 日报
func (r *ReportRepository) PartnerDailiesFor(ctx context.Context, dailyIDs []uint64) (map[uint64]*model.PartnerLinkDailyReport, error) {
	out := make(map[uint64]*model.PartnerLinkDailyReport)
	if len(dailyIDs) == 0 {
		return out, nil
	}
	var rows []*model.PartnerLinkDailyReport
	if err := r.db.WithContext(ctx).Where("betenlace_daily_report_id IN ?", dailyIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("批量查询partner日报失败: %w", err)
	}
	for _, p := range rows {
		out[p.BetenlaceDailyReportID] = p
	}
	return out, nil
}

// ApplyBatch 在一个事务内写入一次运行的全部结果，任一失败整体回滚
func (r *ReportRepository) ApplyBatch(ctx context.Context, b *Batch) error {
	if b.Empty() {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := tx.Omit(clause.Associations)

		// 1. account report
		if len(b.NewAccounts) > 0 {
			if err := create.CreateInBatches(b.NewAccounts, batchSize).Error; err != nil {
				return fmt.Errorf("新建account report失败: %w", err)
			}
		}
		for _, a := range b.UpdatedAccounts {
			if err := updateFields(tx, a, model.AccountReportFields); err != nil {
				return fmt.Errorf("更新account report(%d)失败: %w", a.ID, err)
			}
		}

		if len(b.AccountDays) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "link_id"}, {Name: "punter_id"}, {Name: "day"}},
				DoUpdates: clause.AssignmentColumns(model.AccountDayFields),
			}).CreateInBatches(b.AccountDays, batchSize).Error
			if err != nil {
				return fmt.Errorf("写入account日贡献失败: %w", err)
			}
		}

		// 2. betenlace 日报（新建后拿到 ID 供 partner 日报使用）
		if len(b.NewDailies) > 0 {
			if err := create.CreateInBatches(b.NewDailies, batchSize).Error; err != nil {
				return fmt.Errorf("新建betenlace日报失败: %w", err)
			}
		}
		for _, d := range b.UpdatedDailies {
			if err := updateFields(tx, d, model.BetenlaceDailyFields); err != nil {
				return fmt.Errorf("更新betenlace日报(%d)失败: %w", d.ID, err)
			}
		}

		// 3. partner 日报
		for _, p := range b.NewPartnerDailies {
			if p.BetenlaceDailyReport != nil {
				p.BetenlaceDailyReportID = p.BetenlaceDailyReport.ID
			}
		}
		if len(b.NewPartnerDailies) > 0 {
			if err := create.CreateInBatches(b.NewPartnerDailies, batchSize).Error; err != nil {
				return fmt.Errorf("新建partner日报失败: %w", err)
			}
		}
		for _, p := range b.UpdatedPartnerDailies {
			if err := updateFields(tx, p, model.PartnerDailyFields); err != nil {
				return fmt.Errorf("更新partner日报(%d)失败: %w", p.ID, err)
			}
		}

		// 4. 月累计
		for _, m := range b.MonthCPA {
			if err := updateFields(tx, m, model.BetenlaceCPAFields); err != nil {
				return fmt.Errorf("更新betenlace月累计(link %d)失败: %w", m.LinkID, err)
			}
		}
		for _, m := range b.MonthPLA {
			if err := updateFields(tx, m, model.PartnerLinkAccumulatedFields); err != nil {
				return fmt.Errorf("更新partner月累计(link %d)失败: %w", m.LinkID, err)
			}
		}

		// 5. 链接状态修正
		for _, l := range b.LinkStatus {
			if err := tx.Model(&model.Link{}).Where("id = ?", l.ID).Update("status", l.Status).Error; err != nil {
				return fmt.Errorf("修正链接(%d)状态失败: %w", l.ID, err)
			}
		}
		return nil
	})
}

// updateFields 按显式字段列表更新，零值也会写入
func updateFields(tx *gorm.DB, row interface{}, fields []string) error {
	return tx.Model(row).Omit(clause.Associations).Select(fields).Updates(row).Error
}

// PartnerDailiesInMonth 出账月内 cpa_count 非空的 partner 日报，带上 betenlace 日报、链接、campaign 与 partner
func (r *ReportRepository) PartnerDailiesInMonth(ctx context.Context, from, to time.Time) ([]*model.PartnerLinkDailyReport, error) {
	var rows []*model.PartnerLinkDailyReport
	err := r.db.WithContext(ctx).
		Preload("BetenlaceDailyReport").
		Preload("BetenlaceDailyReport.Link").
		Preload("BetenlaceDailyReport.Link.Campaign").
		Preload("PartnerLinkAccumulated").
		Preload("PartnerLinkAccumulated.Partner").
		Where("created_at >= ? AND created_at <= ? AND cpa_count IS NOT NULL", from, to).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询出账月partner日报失败: %w", err)
	}
	return rows, nil
}

// UpdatePartnerDaily 出账重算后写回
func (r *ReportRepository) UpdatePartnerDaily(ctx context.Context, p *model.PartnerLinkDailyReport) error {
	return updateFields(r.db.WithContext(ctx), p, model.PartnerDailyFields)
}

// RollMonth 用 monthStart 起的日报重算所有月累计（新月份通常为 0）
func (r *ReportRepository) RollMonth(ctx context.Context, monthStart time.Time) error {
	db := r.db.WithContext(ctx)
	monthEnd := monthStart.AddDate(0, 1, -1)

	type cpaSum struct {
		LinkID            uint64
		Deposit           float64
		Stake             float64
		NetRevenue        float64
		RevenueShare      float64
		FixedIncome       float64
		RegisteredCount   int
		CPACount          int
		FirstDepositCount int
		WageringCount     int
	}
	var sums []cpaSum
	err := db.Model(&model.BetenlaceDailyReport{}).
		Select("link_id, SUM(deposit) AS deposit, SUM(stake) AS stake, SUM(net_revenue) AS net_revenue, " +
			"SUM(revenue_share) AS revenue_share, SUM(fixed_income) AS fixed_income, SUM(registered_count) AS registered_count, " +
			"SUM(cpa_count) AS cpa_count, SUM(first_deposit_count) AS first_deposit_count, SUM(wagering_count) AS wagering_count").
		Where("created_at >= ? AND created_at <= ?", monthStart, monthEnd).
		Group("link_id").
		Scan(&sums).Error
	if err != nil {
		return fmt.Errorf("汇总新月份betenlace日报失败: %w", err)
	}

	zero := map[string]interface{}{
		"deposit": 0, "stake": 0, "net_revenue": 0, "revenue_share": 0, "fixed_income": 0,
		"registered_count": 0, "cpa_count": 0, "first_deposit_count": 0, "wagering_count": 0,
	}
	if err := db.Model(&model.BetenlaceCPA{}).Where("1 = 1").Updates(zero).Error; err != nil {
		return fmt.Errorf("清零betenlace月累计失败: %w", err)
	}
	for _, s := range sums {
		err := db.Model(&model.BetenlaceCPA{}).Where("link_id = ?", s.LinkID).Updates(map[string]interface{}{
			"deposit": s.Deposit, "stake": s.Stake, "net_revenue": s.NetRevenue, "revenue_share": s.RevenueShare,
			"fixed_income": s.FixedIncome, "registered_count": s.RegisteredCount, "cpa_count": s.CPACount,
			"first_deposit_count": s.FirstDepositCount, "wagering_count": s.WageringCount,
		}).Error
		if err != nil {
			return fmt.Errorf("重算betenlace月累计(link %d)失败: %w", s.LinkID, err)
		}
	}

	type plaSum struct {
		PartnerLinkAccumulatedID uint64
		CPACount                 int
		FixedIncome              float64
		FixedIncomeLocal         float64
	}
	var psums []plaSum
	err = db.Model(&model.PartnerLinkDailyReport{}).
		Select("partner_link_accumulated_id, SUM(cpa_count) AS cpa_count, SUM(fixed_income) AS fixed_income, SUM(fixed_income_local) AS fixed_income_local").
		Where("created_at >= ? AND created_at <= ?", monthStart, monthEnd).
		Group("partner_link_accumulated_id").
		Scan(&psums).Error
	if err != nil {
		return fmt.Errorf("汇总新月份partner日报失败: %w", err)
	}
	if err := db.Model(&model.PartnerLinkAccumulated{}).Where("1 = 1").
		Updates(map[string]interface{}{"cpa_count": 0, "fixed_income": 0, "fixed_income_local": 0}).Error; err != nil {
		return fmt.Errorf("清零partner月累计失败: %w", err)
	}
	for _, s := range psums {
		err := db.Model(&model.PartnerLinkAccumulated{}).Where("id = ?", s.PartnerLinkAccumulatedID).Updates(map[string]interface{}{
			"cpa_count": s.CPACount, "fixed_income": s.FixedIncome, "fixed_income_local": s.FixedIncomeLocal,
		}).Error
		if err != nil {
			return fmt.Errorf("重算partner月累计(%d)失败: %w", s.PartnerLinkAccumulatedID, err)
		}
	}
	return nil
}

// SetClickCounts 写入点击数，nullsOnly 时只补空值
func (r *ReportRepository) SetClickCounts(ctx context.Context, counts []model.ClickCount, nullsOnly bool) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range counts {
			q := tx.Model(&model.BetenlaceDailyReport{}).Where("link_id = ? AND created_at = ?", c.LinkID, c.Day)
			if nullsOnly {
				q = q.Where("click_count IS NULL")
			}
			res := q.Update("click_count", c.Count)
			if res.Error != nil {
				return fmt.Errorf("写入点击数(link %d, %s)失败: %w", c.LinkID, c.Day.Format(time.DateOnly), res.Error)
			}
			total += res.RowsAffected
		}
		return nil
	})
	return total, err
}

// DailyLinksWithNullClicks 点击数为空的 (link, day)，用于 nulls-only 模式确定查询范围
func (r *ReportRepository) DailyLinksWithNullClicks(ctx context.Context, from, to time.Time) ([]*model.BetenlaceDailyReport, error) {
	var rows []*model.BetenlaceDailyReport
	err := r.db.WithContext(ctx).
		Select("id", "link_id", "created_at").
		Where("created_at >= ? AND created_at <= ? AND click_count IS NULL", from, to).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询点击数为空的日报失败: %w", err)
	}
	return rows, nil
}
