package model

import "time"

// SoftDeleteModel 软删除公共字段（所有业务表嵌入）
// 软删除只翻转 is_active，不做物理删除；默认查询一律只看活跃行
type SoftDeleteModel struct {
	IsActive   bool      `gorm:"column:is_active;type:boolean;default:true" json:"is_active"` // 是否活跃（软删除标记）
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`          // 创建时间
	ModifiedAt time.Time `gorm:"column:modified_at;autoUpdateTime" json:"modified_at"`        // 每次变更自动刷新
}

// OAuthVersion 连接凭证形态：三种 token 组合共用一张表，按标签区分校验规则
type OAuthVersion string

const (
	OAuthV2      OAuthVersion = "oauth2"  // 用户级 OAuth2：access_token 或 bearer_token
	OAuthV1a     OAuthVersion = "oauth1a" // OAuth1.0a：access_token + token_secret
	OAuthAppOnly OAuthVersion = "app"     // 应用级 bearer：不绑定具体外部账号
)

// Valid 判断 oauth_version 取值是否合法
func (v OAuthVersion) Valid() bool {
	switch v {
	case OAuthV2, OAuthV1a, OAuthAppOnly:
		return true
	}
	return false
}

// PollStatus 投票状态：由 (is_active, starts_at, ends_at, now) 推导，永不落库
type PollStatus string

const (
	PollStatusInactive PollStatus = "inactive" // 已软删除
	PollStatusUpcoming PollStatus = "upcoming" // 未开始
	PollStatusLive     PollStatus = "live"     // 窗口内
	PollStatusFinished PollStatus = "finished" // 已结束
)
