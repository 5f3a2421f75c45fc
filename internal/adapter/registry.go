// internal/adapter/registry.go
package adapter

import (
	"fmt"
	"strings"

	"FireMe/internal/config"
	"FireMe/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// ========== 全局工厂函数注册表（依赖interfaces包） ==========
var factoryRegistry = make(map[string]interfaces.Factory)

// Register 供适配器init函数调用，注册工厂函数（key 为平台名小写）
func Register(platform string, factory interfaces.Factory) {
	platform = strings.ToLower(platform)
	if factory == nil {
		panic(fmt.Sprintf("平台%s的工厂函数不能为nil", platform))
	}
	if _, exists := factoryRegistry[platform]; exists {
		logrus.Warnf("平台%s的适配器已注册，将覆盖原有实现", platform)
	}
	factoryRegistry[platform] = factory
}

// GetFactory 获取指定平台的工厂函数
func GetFactory(platform string) (interfaces.Factory, bool) {
	factory, ok := factoryRegistry[strings.ToLower(platform)]
	return factory, ok
}

// ListFactories 列出所有已注册的平台名
func ListFactories() []string {
	var platforms []string
	for p := range factoryRegistry {
		platforms = append(platforms, p)
	}
	return platforms
}

// Build 按配置实例化所有已注册且有配置的适配器（key 为平台名小写）
func Build(cfg *config.Config, logger *logrus.Logger) map[string]interfaces.SearchAdapter {
	adapters := make(map[string]interfaces.SearchAdapter)
	for name, factory := range factoryRegistry {
		pc, ok := cfg.Collector[name]
		if !ok {
			logger.Warnf("平台%s未配置采集参数，跳过", name)
			continue
		}
		adapters[name] = factory(&pc, logger)
		logger.Infof("平台%s采集适配器就绪", name)
	}
	return adapters
}
