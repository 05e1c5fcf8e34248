package adapter

import (
	"fmt"
	"sort"

	"BetenlaceSync/internal/config"
	"BetenlaceSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// BookmakerRegistry 已实例化的适配器
type BookmakerRegistry struct {
	cfg      *config.Config
	logger   *logrus.Logger
	adapters map[string]interfaces.BookmakerAdapter
}

// NewBookmakerRegistry 为每个已注册的工厂创建实例；未配置的博彩商使用空配置，运行时报配置缺失
func NewBookmakerRegistry(cfg *config.Config, logger *logrus.Logger) *BookmakerRegistry {
	r := &BookmakerRegistry{
		cfg:      cfg,
		logger:   logger,
		adapters: make(map[string]interfaces.BookmakerAdapter),
	}
	r.initAdaptersFromFactories()
	return r
}

func (r *BookmakerRegistry) initAdaptersFromFactories() {
	for _, name := range ListFactories() {
		factory, _ := GetFactory(name)
		bmCfg := r.cfg.Bookmakers[name]
		a := factory(&bmCfg, r.logger)
		if a == nil {
			r.logger.WithField("bookmaker", name).Error("工厂函数返回nil适配器实例")
			continue
		}
		if a.GetName() != name {
			r.logger.WithFields(logrus.Fields{
				"registered": name,
				"adapter":    a.GetName(),
			}).Error("适配器名称与注册名不匹配")
			continue
		}
		r.adapters[name] = a
	}
	r.logger.WithField("bookmakers", r.Names()).Debug("适配器初始化完成")
}

// Names 已初始化的博彩商（排序后）
func (r *BookmakerRegistry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetAdapter 获取适配器实例
func (r *BookmakerRegistry) GetAdapter(name string) (interfaces.BookmakerAdapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("博彩商%s未注册适配器（已注册：%v）", name, r.Names())
	}
	return a, nil
}

// Configured 配置文件中出现过的 (博彩商, campaign)，按名称排序
func (r *BookmakerRegistry) Configured() [][2]string {
	var out [][2]string
	for _, name := range r.Names() {
		bm, ok := r.cfg.Bookmakers[name]
		if !ok {
			continue
		}
		titles := make([]string, 0, len(bm.Campaigns))
		for t := range bm.Campaigns {
			titles = append(titles, t)
		}
		sort.Strings(titles)
		for _, t := range titles {
			out = append(out, [2]string{name, t})
		}
	}
	return out
}
