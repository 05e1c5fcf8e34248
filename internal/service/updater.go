package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BetenlaceSync/internal/attribution"
	"BetenlaceSync/internal/currency"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/repository"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
)

// UpdateRequest 单个 (campaign, day) 的写库请求
type UpdateRequest struct {
	Bookmaker string
	Campaign  *model.Campaign
	Policy    model.BookmakerPolicy
	RunDate   time.Time
	Report    *model.NormalizedReport
	Options   interfaces.RunOptions
}

// UpdateResult 写库结果摘要
type UpdateResult struct {
	Links        int
	Accounts     int
	CPACount     int
	PartnerCPA   int
	Skipped      int
	Anomalies    int
	FxPartner    uint64
	MonthSkipped bool // 要求滚动月累计但运行日不在当月
}

// AggregateUpdater 把标准化记录写入 account/betenlace/partner 三类报表
type AggregateUpdater struct {
	catalog     *repository.CatalogRepository
	reports     *repository.ReportRepository
	fx          *repository.FxRepository
	temperature *TemperatureService
	logger      *logrus.Logger

	minCPATrackerDay int
	txTimeout        time.Duration
	now              func() time.Time
}

func NewAggregateUpdater(
	catalog *repository.CatalogRepository,
	reports *repository.ReportRepository,
	fx *repository.FxRepository,
	temperature *TemperatureService,
	logger *logrus.Logger,
	minCPATrackerDay int,
	txTimeout time.Duration,
) *AggregateUpdater {
	return &AggregateUpdater{
		catalog:          catalog,
		reports:          reports,
		fx:               fx,
		temperature:      temperature,
		logger:           logger,
		minCPATrackerDay: minCPATrackerDay,
		txTimeout:        txTimeout,
		now:              time.Now,
	}
}

// linkWork 单个链接在本次运行中的草稿
type linkWork struct {
	link     *model.Link
	members  []model.MemberRow
	accounts []*model.AccountReport
	bucket   []*model.AccountReport
}

// Apply 读取 → 草稿计算 → 单事务提交
func (u *AggregateUpdater) Apply(ctx context.Context, req *UpdateRequest) (*UpdateResult, error) {
	day := parseutil.Day(req.RunDate)
	log := u.logger.WithFields(logrus.Fields{
		"bookmaker": req.Bookmaker,
		"campaign":  req.Campaign.Title,
		"run_date":  day.Format(time.DateOnly),
	})
	res := &UpdateResult{}
	diag := &req.Report.Diagnostics

	// 1. 一次性读取
	promCodes := collectPromCodes(req.Report)
	links, err := u.catalog.LinksByPromCodes(ctx, req.Campaign.ID, promCodes)
	if err != nil {
		return nil, err
	}
	fxRow, err := u.fx.ForIngestion(ctx, day)
	if err != nil {
		return nil, err
	}
	pct, err := u.fx.Percentage(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := currency.NewResolver(fxRow, pct)
	if err != nil {
		return nil, err
	}
	res.FxPartner = fxRow.ID

	linkIDs := make([]uint64, 0, len(links))
	for _, l := range links {
		linkIDs = append(linkIDs, l.ID)
	}
	punters := collectPunters(req.Report)
	accounts, err := u.reports.AccountsFor(ctx, linkIDs, punters)
	if err != nil {
		return nil, err
	}
	accountDays, err := u.reports.AccountDaysFor(ctx, linkIDs, punters, day)
	if err != nil {
		return nil, err
	}
	dailies, err := u.reports.DailiesFor(ctx, linkIDs, day)
	if err != nil {
		return nil, err
	}
	dailyIDs := make([]uint64, 0, len(dailies))
	for _, d := range dailies {
		dailyIDs = append(dailyIDs, d.ID)
	}
	partnerDailies, err := u.reports.PartnerDailiesFor(ctx, dailyIDs)
	if err != nil {
		return nil, err
	}

	// 2. 草稿：先查草稿再查初始读取
	monthRef := day
	if req.Options.CPADate != nil {
		monthRef = parseutil.Day(*req.Options.CPADate)
	}
	qin := attribution.QualifyInput{
		Policy:              req.Policy,
		RunDate:             day,
		MonthRef:            monthRef,
		CampaignFixedIncome: req.Campaign.FixedIncomeUnitary,
	}

	scratch := make(map[repository.AccountKey]*model.AccountReport)
	inBucket := make(map[repository.AccountKey]bool)
	created := make(map[repository.AccountKey]bool)
	var accountOrder []repository.AccountKey
	work := make(map[uint64]*linkWork)
	var order []uint64

	workFor := func(promCode string) (*linkWork, bool) {
		l, ok := links[promCode]
		if !ok {
			diag.SkippedLinks++
			log.WithField("prom_code", promCode).WithError(interfaces.ErrLinkNotFound).Warn("博彩商返回的prom_code不在该campaign下，跳过")
			return nil, false
		}
		if l.BetenlaceCPA == nil {
			diag.SkippedLinks++
			log.WithField("prom_code", promCode).WithError(interfaces.ErrBetenlaceCPANotFound).Warn("链接缺少betenlace月累计，跳过")
			return nil, false
		}
		w, ok := work[l.ID]
		if !ok {
			w = &linkWork{link: l}
			work[l.ID] = w
			order = append(order, l.ID)
		}
		return w, true
	}

	for _, row := range req.Report.Accounts {
		w, ok := workFor(row.PromCode)
		if !ok {
			res.Skipped++
			continue
		}
		if err := attribution.CheckRow(req.Policy, row); err != nil {
			diag.AnomalyRows++
			res.Anomalies++
			log.WithFields(logrus.Fields{
				"prom_code": row.PromCode,
				"punter_id": row.PunterID,
				"row":       fmt.Sprintf("%+v", row),
			}).WithError(err).Warn("数据异常，跳过该行")
			continue
		}

		key := repository.AccountKey{LinkID: w.link.ID, PunterID: row.PunterID}
		acc, firstTouch := scratch[key], false
		if acc == nil {
			firstTouch = true
			if acc = accounts[key]; acc == nil {
				acc = &model.AccountReport{
					LinkID:              w.link.ID,
					PunterID:            row.PunterID,
					CurrencyCondition:   req.Campaign.CurrencyCondition,
					CurrencyFixedIncome: req.Campaign.CurrencyFixedIncome,
					CreatedAt:           day,
				}
				created[key] = true
			}
			scratch[key] = acc
			accountOrder = append(accountOrder, key)
			w.accounts = append(w.accounts, acc)
		}
		if pla := w.link.PartnerLinkAccumulated; pla != nil {
			id := pla.ID
			acc.PartnerLinkAccumulatedID = &id
		}

		var prevDay *model.AccountDay
		if firstTouch {
			prevDay = accountDays[key]
		}
		var out attribution.Outcome
		if req.Options.UpdateCPA {
			attribution.ApplyDay(acc, prevDay, row, day, req.Policy, firstTouch)
			out = attribution.Qualify(acc, row, qin)
		} else {
			// 不做 CPA 判定时保留已有 CPA 状态
			saved := *acc
			attribution.ApplyDay(acc, prevDay, row, day, req.Policy, firstTouch)
			acc.CPABetenlace, acc.CPAPartner, acc.CPAAt, acc.CPACountedAt, acc.FixedIncome =
				saved.CPABetenlace, saved.CPAPartner, saved.CPAAt, saved.CPACountedAt, saved.FixedIncome
			if acc.CPABetenlace == 1 && acc.CPACountedAt != nil && parseutil.SameDay(*acc.CPACountedAt, day) {
				out = attribution.Replayed
			}
		}
		if out == attribution.Historical {
			log.WithFields(logrus.Fields{"prom_code": row.PromCode, "punter_id": row.PunterID, "cpa_at": acc.CPAAt}).
				Debug("博彩商CPA日期不在本月，只记录不计数")
		}
		if out.Counted() && !inBucket[key] {
			inBucket[key] = true
			w.bucket = append(w.bucket, acc)
		}
	}

	for _, m := range req.Report.Members {
		w, ok := workFor(m.PromCode)
		if !ok {
			res.Skipped++
			continue
		}
		w.members = append(w.members, m)
	}

	// 3. 按链接计算日报与月累计增量
	batch := &repository.Batch{}
	updateMonth := req.Options.UpdateMonth && parseutil.SameMonth(day, u.now().UTC())
	if req.Options.UpdateMonth && !updateMonth {
		log.WithField("now", u.now().UTC().Format(time.DateOnly)).Info("运行日不在当月，忽略update_month，不滚动月累计")
		res.MonthSkipped = true
	}
	statusChanged := false

	for _, linkID := range order {
		w := work[linkID]
		link := w.link
		pla := link.PartnerLinkAccumulated
		campaign := link.Campaign
		if campaign == nil {
			campaign = req.Campaign
		}

		eligible := attribution.Eligible(pla, campaign, day)
		if eligible && pla.Partner == nil {
			log.WithField("prom_code", link.PromCode).Warn("partner_link_accumulated缺少partner，跳过partner侧")
			eligible = false
		}
		if pla != nil && link.Status != model.LinkAssigned {
			link.Status = model.LinkAssigned
			batch.LinkStatus = append(batch.LinkStatus, link)
			statusChanged = true
		}

		tracker := 1.0
		if pla != nil {
			tracker = pla.Tracker
		}
		partnerCPA := attribution.Allocate(w.bucket, tracker, u.minCPATrackerDay, eligible)

		if !req.Options.DoDailyReport {
			res.PartnerCPA += partnerCPA
			continue
		}

		daily := dailies[linkID]
		var prior model.BetenlaceDailyReport
		if daily != nil {
			prior = *daily
			batch.UpdatedDailies = append(batch.UpdatedDailies, daily)
		} else {
			daily = &model.BetenlaceDailyReport{LinkID: linkID, CreatedAt: day}
			batch.NewDailies = append(batch.NewDailies, daily)
		}
		attribution.FillBetenlaceDaily(daily, attribution.DailyInput{
			Day:      day,
			Campaign: req.Campaign,
			Policy:   req.Policy,
			Members:  w.members,
			Accounts: w.accounts,
			Bucket:   w.bucket,
		})
		fxID := fxRow.ID
		daily.FxPartnerID = &fxID

		// 仅汇总行的计数型博彩商：按汇总行的 cpa 数分配
		if len(w.accounts) == 0 && eligible {
			partnerCPA = attribution.PartnerShare(daily.CPACount, tracker, u.minCPATrackerDay)
		}
		res.CPACount += daily.CPACount
		res.PartnerCPA += partnerCPA

		if updateMonth {
			addBetenlaceDelta(link.BetenlaceCPA, daily, &prior)
			batch.MonthCPA = append(batch.MonthCPA, link.BetenlaceCPA)
		}

		if !eligible {
			continue
		}
		var pd *model.PartnerLinkDailyReport
		var priorPD model.PartnerLinkDailyReport
		if daily.ID != 0 {
			pd = partnerDailies[daily.ID]
		}
		if pd != nil {
			priorPD = *pd
			batch.UpdatedPartnerDailies = append(batch.UpdatedPartnerDailies, pd)
		} else {
			pd = &model.PartnerLinkDailyReport{BetenlaceDailyReportID: daily.ID, BetenlaceDailyReport: daily}
			batch.NewPartnerDailies = append(batch.NewPartnerDailies, pd)
		}
		err := attribution.FillPartnerDaily(pd, attribution.PartnerInput{
			Daily:      daily,
			PLA:        pla,
			Partner:    pla.Partner,
			PartnerCPA: partnerCPA,
		}, resolver)
		if err != nil {
			if errors.Is(err, interfaces.ErrFXUndefined) {
				log.WithField("prom_code", link.PromCode).WithError(err).Error("partner侧汇率缺失，终止本次运行")
			}
			return nil, fmt.Errorf("计算partner日报(%s)失败: %w", link.PromCode, err)
		}
		if updateMonth {
			addPartnerDelta(pla, pd, &priorPD)
			batch.MonthPLA = append(batch.MonthPLA, pla)
		}
	}

	if req.Options.UpdateAccount {
		for _, key := range accountOrder {
			acc := scratch[key]
			if created[key] {
				batch.NewAccounts = append(batch.NewAccounts, acc)
			} else {
				batch.UpdatedAccounts = append(batch.UpdatedAccounts, acc)
			}
			batch.AccountDays = append(batch.AccountDays, attribution.DayRecord(acc, day))
		}
	}
	res.Links = len(order)
	res.Accounts = len(scratch)
	diag.LinksTouched = res.Links
	diag.CPACount = res.CPACount
	diag.PartnerCPA = res.PartnerCPA

	// 4. 单事务提交，取消后不再开启事务
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txCtx, cancel := context.WithTimeout(ctx, u.txTimeout)
	defer cancel()
	if err := u.reports.ApplyBatch(txCtx, batch); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"links":       res.Links,
		"accounts":    res.Accounts,
		"cpa_count":   res.CPACount,
		"partner_cpa": res.PartnerCPA,
		"fx_partner":  res.FxPartner,
	}).Info("报表写入完成")

	if statusChanged && u.temperature != nil {
		if _, err := u.temperature.Recalculate(ctx, req.Campaign.ID); err != nil {
			log.WithError(err).Warn("链接状态修正后重算campaign温度失败")
		}
	}
	return res, nil
}

func addBetenlaceDelta(m *model.BetenlaceCPA, cur, prior *model.BetenlaceDailyReport) {
	m.Deposit += cur.Deposit - prior.Deposit
	m.Stake += cur.Stake - prior.Stake
	m.NetRevenue += cur.NetRevenue - prior.NetRevenue
	m.RevenueShare += cur.RevenueShare - prior.RevenueShare
	m.FixedIncome += cur.FixedIncome - prior.FixedIncome
	m.RegisteredCount += cur.RegisteredCount - prior.RegisteredCount
	m.CPACount += cur.CPACount - prior.CPACount
	m.FirstDepositCount += cur.FirstDepositCount - prior.FirstDepositCount
	m.WageringCount += cur.WageringCount - prior.WageringCount
}

func addPartnerDelta(pla *model.PartnerLinkAccumulated, cur, prior *model.PartnerLinkDailyReport) {
	pla.CPACount += intValue(cur.CPACount) - intValue(prior.CPACount)
	pla.FixedIncome += cur.FixedIncome - prior.FixedIncome
	pla.FixedIncomeLocal += cur.FixedIncomeLocal - prior.FixedIncomeLocal
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func collectPromCodes(r *model.NormalizedReport) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, a := range r.Accounts {
		add(a.PromCode)
	}
	for _, m := range r.Members {
		add(m.PromCode)
	}
	return out
}

func collectPunters(r *model.NormalizedReport) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range r.Accounts {
		if !seen[a.PunterID] {
			seen[a.PunterID] = true
			out = append(out, a.PunterID)
		}
	}
	return out
}
