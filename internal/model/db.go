package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 平台用户（所有权链条的根节点）
type User struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username    string `gorm:"column:username;type:varchar(150);uniqueIndex;not null" json:"username"` // 登录名
	Email       string `gorm:"column:email;type:varchar(254);uniqueIndex;not null" json:"email"`       // 邮箱（唯一）
	Institution string `gorm:"column:institution;type:varchar(50)" json:"institution"`                 // 所属机构
	SoftDeleteModel
}

// Platform 外部社交平台（如 Twitter/X），活跃行内名称全局唯一
type Platform struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"column:name;type:varchar(50);not null;uniqueIndex:uq_active_platform_name,where:is_active" json:"name"` // 平台名称
	LogoURL string `gorm:"column:logo_url;type:varchar(500)" json:"logo_url"`                                                    // 图标地址
	Webpage string `gorm:"column:webpage;type:varchar(500)" json:"webpage"`                                                      // 官网地址
	SoftDeleteModel
}

// UserPlatformApp 用户在某平台的 API 应用凭证，(user, platform) 活跃行唯一
type UserPlatformApp struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID       uint64         `gorm:"column:user_id;not null;uniqueIndex:uq_active_app_per_user_platform,where:is_active" json:"user_id"`
	PlatformID   uint64         `gorm:"column:platform_id;not null;uniqueIndex:uq_active_app_per_user_platform,where:is_active" json:"platform_id"`
	ClientID     string         `gorm:"column:client_id;type:text;not null" json:"-"`     // 凭证字段不序列化回客户端
	ClientSecret string         `gorm:"column:client_secret;type:text;not null" json:"-"` // 同上
	Meta         datatypes.JSON `gorm:"column:meta" json:"meta,omitempty"`                // 任意附加信息
	SoftDeleteModel

	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Platform Platform `gorm:"foreignKey:PlatformID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserPlatformConnection 某平台上的已授权账号，必须挂在同 (user, platform) 的活跃 App 下
// 活跃行按 (user, platform, external_account_id, oauth_version) 唯一
type UserPlatformConnection struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     uint64 `gorm:"column:user_id;not null;uniqueIndex:uq_active_conn_natural_key,where:is_active" json:"user_id"`
	PlatformID uint64 `gorm:"column:platform_id;not null;uniqueIndex:uq_active_conn_natural_key,where:is_active" json:"platform_id"`
	AppID      uint64 `gorm:"column:app_id;not null" json:"app_id"`

	ExternalAccountID *string `gorm:"column:external_account_id;type:varchar(255);index;uniqueIndex:uq_active_conn_natural_key,where:is_active" json:"external_account_id"` // 外部账号ID；app-only 连接强制为 NULL
	ExternalUsername  string  `gorm:"column:external_username;type:varchar(255)" json:"external_username"`                                                                  // 外部账号展示名

	OAuthVersion OAuthVersion `gorm:"column:oauth_version;type:varchar(8);not null;default:oauth2;uniqueIndex:uq_active_conn_natural_key,where:is_active" json:"oauth_version"`

	BearerToken  *string `gorm:"column:bearer_token;type:text" json:"-"`  // token 字段一律不回显
	AccessToken  *string `gorm:"column:access_token;type:text" json:"-"`  //
	RefreshToken *string `gorm:"column:refresh_token;type:text" json:"-"` //
	TokenSecret  *string `gorm:"column:token_secret;type:text" json:"-"`  //

	TokenType string         `gorm:"column:token_type;type:varchar(32)" json:"token_type"`
	Scope     string         `gorm:"column:scope;type:text" json:"scope"`
	ExpiresAt *time.Time     `gorm:"column:expires_at" json:"expires_at"`
	Meta      datatypes.JSON `gorm:"column:meta" json:"meta,omitempty"`
	SoftDeleteModel

	User     User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Platform Platform        `gorm:"foreignKey:PlatformID;constraint:OnDelete:CASCADE" json:"-"`
	App      UserPlatformApp `gorm:"foreignKey:AppID;constraint:OnDelete:RESTRICT" json:"-"`
}

// IsExpired 凭证是否已过期（未设置 expires_at 视为长期有效）
func (c *UserPlatformConnection) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Campaign 营销/调研活动：归属一个用户、钉在一个平台上
// 活跃行按 (user, platform, name) 唯一
type Campaign struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     uint64 `gorm:"column:user_id;not null;uniqueIndex:uq_active_campaign_name,where:is_active" json:"user_id"`
	PlatformID uint64 `gorm:"column:platform_id;not null;uniqueIndex:uq_active_campaign_name,where:is_active" json:"platform_id"`
	Name       string `gorm:"column:name;type:varchar(200);not null;uniqueIndex:uq_active_campaign_name,where:is_active" json:"name"`
	SoftDeleteModel

	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Platform Platform `gorm:"foreignKey:PlatformID;constraint:OnDelete:RESTRICT" json:"-"`
}

// Query 活动下的检索词；活跃行按 (campaign, lower(search_term)) 唯一（见 EnsureIndexes）
type Query struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CampaignID uint64 `gorm:"column:campaign_id;not null;index" json:"campaign_id"`
	SearchTerm string `gorm:"column:search_term;type:text;not null" json:"search_term"`
	SoftDeleteModel

	Campaign Campaign `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"-"`
}

// Question 用户自建的问题（投票题干）
type Question struct {
	ID       uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID   uint64 `gorm:"column:user_id;not null;index" json:"user_id"`
	Question string `gorm:"column:question;type:text;not null" json:"question"`
	SoftDeleteModel

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Answer 问题的候选答案，活跃行内同一问题下答案文本唯一
type Answer struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QuestionID uint64 `gorm:"column:question_id;not null;uniqueIndex:uq_active_answer_per_question,where:is_active" json:"question_id"`
	Answer     string `gorm:"column:answer;type:text;not null;uniqueIndex:uq_active_answer_per_question,where:is_active" json:"answer"`
	SoftDeleteModel

	Question Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Poll 投票：挂在一个 Query 下、引用一个 Question，有 [starts_at, ends_at] 时间窗
// 约束 ends_at >= starts_at 由 CHECK 兜底，业务层先行校验
type Poll struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title      *string   `gorm:"column:title;type:varchar(150)" json:"title"`
	QueryID    uint64    `gorm:"column:query_id;not null;index" json:"query_id"`
	QuestionID uint64    `gorm:"column:question_id;not null;index" json:"question_id"`
	StartsAt   time.Time `gorm:"column:starts_at;not null;check:chk_poll_window_valid,ends_at >= starts_at" json:"starts_at"`
	EndsAt     time.Time `gorm:"column:ends_at;not null" json:"ends_at"`
	SoftDeleteModel

	Query    Query    `gorm:"foreignKey:QueryID;constraint:OnDelete:CASCADE" json:"-"`
	Question Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT" json:"-"`
}

// StatusAt 推导投票在 now 时刻的状态（不落库、不缓存）
func (p *Poll) StatusAt(now time.Time) PollStatus {
	switch {
	case !p.IsActive:
		return PollStatusInactive
	case now.Before(p.StartsAt):
		return PollStatusUpcoming
	case now.After(p.EndsAt):
		return PollStatusFinished
	default:
		return PollStatusLive
	}
}

// IsLiveAt 活跃且 now 落在 [starts_at, ends_at] 内
func (p *Poll) IsLiveAt(now time.Time) bool {
	return p.StatusAt(now) == PollStatusLive
}

// PollResult 一位受访者对某投票的作答，按 (poll, user_identifier) 活跃行唯一
// 重复提交走"先停用旧行再插新行"的替换逻辑，而不是撞唯一约束
type PollResult struct {
	ID             uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PollID         uint64  `gorm:"column:poll_id;not null;uniqueIndex:uq_active_result_per_user_poll,where:is_active" json:"poll_id"`
	AnswerID       *uint64 `gorm:"column:answer_id" json:"answer_id"` // 可空：允许弃权式作答
	UserIdentifier string  `gorm:"column:user_identifier;type:varchar(255);not null;uniqueIndex:uq_active_result_per_user_poll,where:is_active" json:"user_identifier"`
	SoftDeleteModel

	Poll   Poll    `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"-"`
	Answer *Answer `gorm:"foreignKey:AnswerID;constraint:OnDelete:RESTRICT" json:"-"`
}

// QueryResults 从外部源采集到的一条原始数据，按 (query, platform, source_id) 活跃行唯一
// poll_result 仅在 PollResult 被物理删除时置空（SET NULL），软删除不级联
type QueryResults struct {
	ID           uint64              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QueryID      uint64              `gorm:"column:query_id;not null;uniqueIndex:uq_active_result_per_query_source,where:is_active" json:"query_id"`
	PlatformID   uint64              `gorm:"column:platform_id;not null;uniqueIndex:uq_active_result_per_query_source,where:is_active" json:"platform_id"`
	PollResultID *uint64             `gorm:"column:poll_result_id" json:"poll_result_id"`
	UserData     datatypes.JSON      `gorm:"column:user_data" json:"user_data,omitempty"`
	SourceID     string              `gorm:"column:source_id;type:varchar(255);not null;index;uniqueIndex:uq_active_result_per_query_source,where:is_active" json:"source_id"`
	FireScore    decimal.NullDecimal `gorm:"column:firescore;type:numeric(6,3)" json:"firescore"`
	SoftDeleteModel

	Query      Query       `gorm:"foreignKey:QueryID;constraint:OnDelete:RESTRICT" json:"-"`
	Platform   Platform    `gorm:"foreignKey:PlatformID;constraint:OnDelete:RESTRICT" json:"-"`
	PollResult *PollResult `gorm:"foreignKey:PollResultID;constraint:OnDelete:SET NULL" json:"-"`
}

func (User) TableName() string                   { return "users" }
func (Platform) TableName() string               { return "platforms" }
func (UserPlatformApp) TableName() string        { return "user_platform_apps" }
func (UserPlatformConnection) TableName() string { return "user_platform_connections" }
func (Campaign) TableName() string               { return "campaigns" }
func (Query) TableName() string                  { return "queries" }
func (Question) TableName() string               { return "questions" }
func (Answer) TableName() string                 { return "answers" }
func (Poll) TableName() string                   { return "polls" }
func (PollResult) TableName() string             { return "poll_results" }
func (QueryResults) TableName() string           { return "query_results" }

// AllModels 按外键依赖顺序返回全部模型（AutoMigrate 用）
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Platform{},
		&UserPlatformApp{},
		&UserPlatformConnection{},
		&Campaign{},
		&Query{},
		&Question{},
		&Answer{},
		&Poll{},
		&PollResult{},
		&QueryResults{},
	}
}

// EnsureIndexes 创建 gorm 标签表达不了的表达式索引（幂等）
// queries 表的活跃行按 (campaign_id, lower(search_term)) 唯一，实现大小写不敏感去重
func EnsureIndexes(db *gorm.DB) error {
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_active_query_per_campaign
		 ON queries (campaign_id, lower(search_term)) WHERE is_active`,
	).Error
}
