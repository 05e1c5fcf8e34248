package interfaces

import (
	"context"
	"time"

	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/model"

	"github.com/sirupsen/logrus"
)

// RunOptions 命令行传入的运行选项
type RunOptions struct {
	File           string     // 非空：写出标准化 CSV，不写库
	FileRaw        string     // 非空：写出原始响应，不写库
	UpdateMonth    bool       // 是否滚动月累计
	CPADate        *time.Time // 判定博彩商日期型 CPA 所属月份的参考日，默认运行日
	OnlyPositiveRS *bool      // 覆盖 campaign 的 only_positive_rs
	DoDailyReport  bool       // 写 betenlace/partner 日报
	UpdateAccount  bool       // 写 account report
	UpdateCPA      bool       // 执行 CPA 判定
}

// DefaultRunOptions 默认全部写入
func DefaultRunOptions() RunOptions {
	return RunOptions{UpdateMonth: true, DoDailyReport: true, UpdateAccount: true, UpdateCPA: true}
}

// DryRun 任一调试文件参数存在即不写库
func (o RunOptions) DryRun() bool {
	return o.File != "" || o.FileRaw != ""
}

// FetchRequest 单次拉取的参数
type FetchRequest struct {
	Campaign string
	Creds    config.CampaignConfig
	FromDate time.Time
	ToDate   time.Time
	Options  RunOptions
}

// BookmakerAdapter 每个博彩商必须实现的接口
type BookmakerAdapter interface {
	GetName() string                                                                 // 博彩商名称（命令名）
	Campaigns() []string                                                             // 支持的 campaign 标题
	Policy(campaign string) (model.BookmakerPolicy, error)                           // 该 campaign 的 CPA/RS 策略
	Fetch(ctx context.Context, req *FetchRequest) (*model.RawPayload, error)         // 认证并拉取原始数据
	Parse(raw *model.RawPayload, req *FetchRequest) (*model.NormalizedReport, error) // 解析并标准化
}

// Factory 适配器工厂函数签名
type Factory func(cfg *config.BookmakerConfig, logger *logrus.Logger) BookmakerAdapter
