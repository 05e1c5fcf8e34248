package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var verbose bool

// newRootCmd 每个已注册的博彩商一个子命令，外加运维命令
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "betenlace-sync",
		Short: "Betenlace 博彩商联盟报表入库与出账",
		Long: `拉取各博彩商的联盟报表，标准化后写入 account / betenlace / partner 三类报表，
并负责 CPA 判定、tracker 分配、汇率换算和月度出账。

示例:
  betenlace-sync yajuego --campaign "yajuego 80" --fromdate 2024-05-14
  betenlace-sync yajuego --campaign "yajuego 80" --fromdate 2024-05-01 --todate 2024-05-14 --file out.csv
  betenlace-sync all
  betenlace-sync billing --today 2024-06-01`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志与SQL")

	for _, cmd := range bookmakerCmds() {
		root.AddCommand(cmd)
	}
	root.AddCommand(allCmd())
	root.AddCommand(billingCmd())
	root.AddCommand(clicksCmd())
	root.AddCommand(fxSyncCmd())
	root.AddCommand(temperatureCmd())
	root.AddCommand(linkStatusCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(serveCmd())
	return root
}

// Execute 运行命令；无数据视为成功，其它错误由调用方以退出码 1 结束
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withApp 组装依赖后执行 fn，结束时释放连接
func withApp(fn func(cmd *cobra.Command, app *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp(verbose)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(cmd, app, args)
	}
}
