// internal/adapter/registry.go
package adapter

import (
	"fmt"
	"sort"

	"BetenlaceSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 全局工厂函数注册表 ==========
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 供适配器init函数调用，注册工厂函数
func Register(name string, factory interfaces.Factory) {
	if factory == nil {
		panic(fmt.Sprintf("博彩商%s的工厂函数不能为nil", name))
	}
	if _, exists := factoryRegistry[name]; exists {
		logrus.Warnf("博彩商%s的适配器已注册，将覆盖原有实现", name)
	}
	factoryRegistry[name] = factory
	logrus.Debugf("博彩商%s工厂函数注册成功", name)
}

// GetFactory 获取指定博彩商的工厂函数
func GetFactory(name string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[name]
	return factory, ok
}

// ListFactories 列出所有已注册的博彩商（排序后）
func ListFactories() []string {
	names := make([]string, 0, len(factoryRegistry))
	for n := range factoryRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
