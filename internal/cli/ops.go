package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"BetenlaceSync/internal/api"
	"BetenlaceSync/internal/interfaces"
	"BetenlaceSync/internal/model"
	"BetenlaceSync/internal/service"
	"BetenlaceSync/internal/utils/parseutil"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// dayFlag 空值取 def
func dayFlag(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return parseutil.Day(def), nil
	}
	return parseutil.MustDay(s)
}

func billingCmd() *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "月结出账：重算 today-1 所在月份的 partner 日报并生成出账",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			day, err := dayFlag(today, time.Now().UTC())
			if err != nil {
				return err
			}
			res, err := app.billing.Close(cmd.Context(), day)
			if err != nil {
				return err
			}
			app.logger.WithFields(logrus.Fields{
				"month":       res.Month.Format("2006-01"),
				"dailies":     res.Dailies,
				"partners":    res.Partners,
				"withdrawals": len(res.Withdrawals),
			}).Info("出账完成")
			return nil
		}),
	}
	cmd.Flags().StringVar(&today, "today", "", "出账基准日 YYYY-MM-DD（默认今天）")
	return cmd
}

func clicksCmd() *cobra.Command {
	var (
		fromDate, toDate string
		all              bool
	)
	cmd := &cobra.Command{
		Use:   "clicks",
		Short: "从点击库重算 betenlace 日报的点击数",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			if app.clickSvc == nil {
				return fmt.Errorf("%w: 未配置 click_database.dsn", interfaces.ErrCampaignMisconfigured)
			}
			yesterday := service.Yesterday(time.Now())
			from, err := dayFlag(fromDate, yesterday)
			if err != nil {
				return err
			}
			to, err := dayFlag(toDate, yesterday)
			if err != nil {
				return err
			}
			n, err := app.clickSvc.Recalculate(cmd.Context(), from, to, !all)
			if err != nil {
				return err
			}
			app.logger.WithField("updated", n).Info("点击数重算完成")
			return nil
		}),
	}
	cmd.Flags().StringVar(&fromDate, "fromdate", "", "开始日期 YYYY-MM-DD（默认昨天）")
	cmd.Flags().StringVar(&toDate, "todate", "", "结束日期 YYYY-MM-DD（默认昨天）")
	cmd.Flags().BoolVar(&all, "all", false, "覆盖区间内全部日报（默认只补空值）")
	return cmd
}

func fxSyncCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "fx-sync",
		Short: "从 fastforex 拉取某天的汇率矩阵",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			day, err := dayFlag(date, time.Now().UTC())
			if err != nil {
				return err
			}
			fx, err := app.fxSync.Sync(cmd.Context(), day)
			if err != nil {
				return err
			}
			app.logger.WithFields(logrus.Fields{
				"id":   fx.ID,
				"date": fx.CreatedAt.Format(time.DateOnly),
			}).Info("汇率同步完成")
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "汇率日期 YYYY-MM-DD（默认今天）")
	return cmd
}

func temperatureCmd() *cobra.Command {
	var campaignIDs []uint
	cmd := &cobra.Command{
		Use:   "temperature",
		Short: "重算 campaign 温度与库存状态",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			if len(campaignIDs) == 0 {
				return errors.New("至少指定一个 --campaign_id")
			}
			for _, id := range campaignIDs {
				c, err := app.temperature.Recalculate(cmd.Context(), uint64(id))
				if err != nil {
					return err
				}
				logCampaign(app.logger, c).Info("温度已重算")
			}
			return nil
		}),
	}
	cmd.Flags().UintSliceVar(&campaignIDs, "campaign_id", nil, "campaign ID，可重复")
	return cmd
}

func linkStatusCmd() *cobra.Command {
	var (
		linkID uint
		status string
	)
	cmd := &cobra.Command{
		Use:   "link-status",
		Short: "修改链接状态并重算所属 campaign 温度",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			s := model.LinkStatus(status)
			switch s {
			case model.LinkAssigned, model.LinkAvailable, model.LinkUnavailable:
			default:
				return fmt.Errorf("未知的链接状态: %q", status)
			}
			c, err := app.links.SetStatus(cmd.Context(), uint64(linkID), s)
			if err != nil {
				return err
			}
			logCampaign(app.logger, c).WithField("link_id", linkID).Info("链接状态已更新")
			return nil
		}),
	}
	cmd.Flags().UintVar(&linkID, "link_id", 0, "链接ID")
	cmd.Flags().StringVar(&status, "status", "", "ASSIGNED/AVAILABLE/UNAVAILABLE")
	_ = cmd.MarkFlagRequired("link_id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func logCampaign(log *logrus.Logger, c *model.Campaign) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"campaign_id": c.ID,
		"status":      c.Status,
		"temperature": c.Temperature,
		"has_links":   c.HasLinks,
	})
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建或更新库表结构",
		Args:  cobra.NoArgs,
		// newApp 已执行迁移
		RunE: withApp(func(_ *cobra.Command, app *App, _ []string) error {
			app.logger.Info("数据库表结构检查完成（不存在则已创建）")
			return nil
		}),
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动运维 HTTP 接口（含 pprof）",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			r := api.NewRouter(app.cfg.Server.Mode,
				api.NewSyncHandler(app.scheduler, app.logger),
				api.NewOpsHandler(app.billing, clickRecalculator(app), app.fxSync, app.links, app.runs, app.logger),
			)
			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", app.cfg.Server.Port),
				Handler: r,
			}

			errCh := make(chan error, 1)
			go func() {
				app.logger.WithField("mode", app.cfg.Server.Mode).Infof("服务启动成功，端口：%d", app.cfg.Server.Port)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("启动服务失败: %w", err)
			case <-cmd.Context().Done():
			}

			app.logger.Info("收到退出信号，关闭服务")
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 30*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}),
	}
}

// missingClicks 未配置点击库时的占位实现
type missingClicks struct{}

func (missingClicks) Recalculate(context.Context, time.Time, time.Time, bool) (int64, error) {
	return 0, fmt.Errorf("%w: 未配置 click_database.dsn", interfaces.ErrCampaignMisconfigured)
}

func clickRecalculator(app *App) api.ClickRecalculator {
	if app.clickSvc == nil {
		return missingClicks{}
	}
	return app.clickSvc
}
