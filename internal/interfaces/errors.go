package interfaces

import "errors"

// 管线错误类型，调用方用 fmt.Errorf("...: %w", err) 包装，用 errors.Is 判断
var (
	ErrUpstreamEmpty         = errors.New("博彩商无数据")
	ErrUpstreamUnavailable   = errors.New("博彩商接口不可用")
	ErrUpstreamAuth          = errors.New("博彩商认证失败")
	ErrParse                 = errors.New("博彩商数据格式不符")
	ErrCampaignMisconfigured = errors.New("campaign 配置缺失")
	ErrDataAnomaly           = errors.New("数据异常")
	ErrFXUndefined           = errors.New("汇率缺失")
	ErrLinkNotFound          = errors.New("链接不存在")
	ErrBetenlaceCPANotFound  = errors.New("链接月累计不存在")
	ErrMultiDayUpdate        = errors.New("写库运行只允许单日")
	ErrRunInProgress         = errors.New("同一 campaign 当日已有运行")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUpstreamEmpty, "UPSTREAM_EMPTY"},
	{ErrUpstreamUnavailable, "UPSTREAM_UNAVAILABLE"},
	{ErrUpstreamAuth, "UPSTREAM_AUTH"},
	{ErrParse, "PARSE_ERROR"},
	{ErrCampaignMisconfigured, "CAMPAIGN_MISCONFIGURED"},
	{ErrDataAnomaly, "DATA_ANOMALY"},
	{ErrFXUndefined, "FX_UNDEFINED"},
	{ErrLinkNotFound, "LINK_NOT_FOUND"},
	{ErrBetenlaceCPANotFound, "BETENLACECPA_NOT_FOUND"},
	{ErrMultiDayUpdate, "MULTI_DAY_UPDATE"},
	{ErrRunInProgress, "RUN_IN_PROGRESS"},
}

// KindOf 返回错误类型名，nil 返回空串，未归类返回 INTERNAL
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "INTERNAL"
}

// IsFatal UPSTREAM_EMPTY 之外的错误都会让运行失败
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrUpstreamEmpty)
}
