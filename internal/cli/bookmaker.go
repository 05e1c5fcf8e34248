package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"BetenlaceSync/internal/adapter"
	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/service"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runFlags 入库命令共用参数
type runFlags struct {
	fromDate       string
	toDate         string
	file           string
	fileRaw        string
	cpaDate        string
	onlyPositiveRS string
	updateMonth    bool
	doDailyReport  bool
	updateAccount  bool
	updateCPA      bool
}

func (f *runFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.fromDate, "fromdate", "", "开始日期 YYYY-MM-DD（默认昨天）")
	fs.StringVar(&f.toDate, "todate", "", "结束日期 YYYY-MM-DD（默认昨天）")
	fs.StringVar(&f.file, "file", "", "写出标准化 CSV，不写库")
	fs.StringVar(&f.fileRaw, "file_raw", "", "写出原始响应，不写库")
	fs.StringVar(&f.cpaDate, "cpa_date", "", "日期型 CPA 归属月份的参考日 YYYY-MM-DD")
	fs.StringVar(&f.onlyPositiveRS, "only_positive_rs", "", "覆盖 campaign 的 only_positive_rs（true/false）")
	fs.BoolVar(&f.updateMonth, "update_month", true, "滚动月累计")
	fs.BoolVar(&f.doDailyReport, "do_daily_report", true, "写 betenlace/partner 日报")
	fs.BoolVar(&f.updateAccount, "update_account", true, "写 account report")
	fs.BoolVar(&f.updateCPA, "update_cpa", true, "执行 CPA 判定")
}

// dates 解析日期区间，缺省为 now 的前一天
func (f *runFlags) dates(now time.Time) (from, to time.Time, err error) {
	yesterday := service.Yesterday(now)
	from, to = yesterday, yesterday
	if f.fromDate != "" {
		if from, err = parseutil.MustDay(f.fromDate); err != nil {
			return
		}
	}
	if f.toDate != "" {
		if to, err = parseutil.MustDay(f.toDate); err != nil {
			return
		}
	}
	if to.Before(from) {
		err = fmt.Errorf("todate(%s) 早于 fromdate(%s)", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return
}

func (f *runFlags) options() (interfaces.RunOptions, error) {
	opts := interfaces.RunOptions{
		File:          f.file,
		FileRaw:       f.fileRaw,
		UpdateMonth:   f.updateMonth,
		DoDailyReport: f.doDailyReport,
		UpdateAccount: f.updateAccount,
		UpdateCPA:     f.updateCPA,
	}
	if f.cpaDate != "" {
		d, err := parseutil.MustDay(f.cpaDate)
		if err != nil {
			return opts, err
		}
		opts.CPADate = &d
	}
	if f.onlyPositiveRS != "" {
		b, err := strconv.ParseBool(f.onlyPositiveRS)
		if err != nil {
			return opts, fmt.Errorf("only_positive_rs 应为 true/false: %q", f.onlyPositiveRS)
		}
		opts.OnlyPositiveRS = &b
	}
	return opts, nil
}

// bookmakerCmds 为每个注册的适配器生成子命令
func bookmakerCmds() []*cobra.Command {
	var cmds []*cobra.Command
	for _, name := range adapter.ListFactories() {
		factory, _ := adapter.GetFactory(name)
		// 空配置实例只用来列出 campaign 标题
		a := factory(&config.BookmakerConfig{}, logrus.StandardLogger())
		if a == nil {
			continue
		}
		cmds = append(cmds, bookmakerCmd(name, a.Campaigns()))
	}
	return cmds
}

func bookmakerCmd(name string, titles []string) *cobra.Command {
	var (
		flags    runFlags
		campaign string
	)
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("入库 %s 的联盟报表", name),
		Long: fmt.Sprintf(`拉取 %s 的联盟报表并入库。写库运行只允许单日，区间会按天依次运行；
设置 --file/--file_raw 时只拉取整个区间并写出文件，不写库。

可用 campaign: %s
不指定 --campaign 时运行配置文件中该博彩商下的全部 campaign。`, name, strings.Join(titles, ", ")),
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			from, to, err := flags.dates(time.Now())
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}

			targets := []string{campaign}
			if campaign == "" {
				targets = targets[:0]
				for _, t := range app.registry.Configured() {
					if t[0] == name {
						targets = append(targets, t[1])
					}
				}
				if len(targets) == 0 {
					return fmt.Errorf("%w: 配置文件中没有 %s 的 campaign", interfaces.ErrCampaignMisconfigured, name)
				}
			}

			var errs []error
			for _, title := range targets {
				results, err := app.scheduler.RunRange(cmd.Context(), service.IngestRequest{
					Bookmaker: name,
					Campaign:  title,
					FromDate:  from,
					ToDate:    to,
					Options:   opts,
				})
				logResults(app.logger, name, title, results)
				if err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}),
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&campaign, "campaign", "", "campaign 标题")
	return cmd
}

func allCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "all",
		Short: "按配置运行全部博彩商的全部 campaign",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			from, to, err := flags.dates(time.Now())
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return app.scheduler.RunAll(cmd.Context(), from, to, opts)
		}),
	}
	flags.bind(cmd)
	return cmd
}

func logResults(log *logrus.Logger, bookmaker, campaign string, results []*service.IngestResult) {
	for _, r := range results {
		entry := log.WithFields(logrus.Fields{
			"bookmaker": bookmaker,
			"campaign":  campaign,
			"run_id":    r.RunID,
		})
		switch {
		case r.Empty:
			entry.Warn("博彩商无数据，跳过")
		case r.DryRun:
			entry.Info("调试运行完成，未写库")
		case r.Update != nil:
			entry.WithFields(logrus.Fields{
				"links":         r.Update.Links,
				"accounts":      r.Update.Accounts,
				"cpa_count":     r.Update.CPACount,
				"partner_cpa":   r.Update.PartnerCPA,
				"skipped":       r.Update.Skipped,
				"month_skipped": r.Update.MonthSkipped,
			}).Info("入库完成")
		}
	}
}
