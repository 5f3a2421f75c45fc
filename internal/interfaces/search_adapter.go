package interfaces

import (
	"context"

	"FireMe/internal/config"
	"FireMe/internal/model"
	"FireMe/internal/service"

	"github.com/sirupsen/logrus"
)

// SearchAdapter 所有平台采集器必须实现的核心接口
type SearchAdapter interface {
	GetName() string                                                                                               // 平台名称
	FetchPosts(ctx context.Context, term string, conn *model.UserPlatformConnection) ([]*model.PlatformRawPost, error) // 按检索词拉取帖子
	ConvertToItems(raw []*model.PlatformRawPost) ([]service.BulkItem, error)                                       // 转换为可摄入条目
}

// Factory 适配器工厂函数，供注册表按平台构建实例
type Factory func(cfg *config.PlatformConfig, logger *logrus.Logger) SearchAdapter
