package repository

import (
	"context"
	"strings"

	"FireMe/internal/model"

	"gorm.io/gorm"
)

// SocialRepository 平台 / 应用凭证 / 授权连接的数据访问
type SocialRepository interface {
	// ListPlatforms 活跃平台列表（按名称排序）
	ListPlatforms(ctx context.Context) ([]*model.Platform, error)
	// GetActivePlatform 按 ID 取活跃平台
	GetActivePlatform(ctx context.Context, id uint64) (*model.Platform, error)
	// CreatePlatform 新建平台
	CreatePlatform(ctx context.Context, p *model.Platform) error
	// CountPlatforms 平台总数（含非活跃，种子数据判断用）
	CountPlatforms(ctx context.Context) (int64, error)
	// HasActiveConnection 观察者在该平台是否有活跃连接（派生 connected 标记，不落库）
	HasActiveConnection(ctx context.Context, userID, platformID uint64) (bool, error)

	// GetAppForUpdate 按 (user, platform) 在全量行（含非活跃）上加锁查找 App
	GetAppForUpdate(ctx context.Context, userID, platformID uint64) (*model.UserPlatformApp, error)
	// GetActiveApp 按 (user, platform) 取活跃 App
	GetActiveApp(ctx context.Context, userID, platformID uint64) (*model.UserPlatformApp, error)
	// CreateApp 新建 App
	CreateApp(ctx context.Context, app *model.UserPlatformApp) error
	// SaveApp 整行保存（upsert 命中已有行时覆盖凭证并重新激活）
	SaveApp(ctx context.Context, app *model.UserPlatformApp) error

	// GetConnectionForUpdate 按自然键 (user, platform, external_account_id, oauth_version)
	// 在全量行上加锁查找连接；extID 为 nil 时匹配 external_account_id IS NULL
	GetConnectionForUpdate(ctx context.Context, userID, platformID uint64, extID *string, oauth model.OAuthVersion) (*model.UserPlatformConnection, error)
	// CreateConnection 新建连接
	CreateConnection(ctx context.Context, conn *model.UserPlatformConnection) error
	// SaveConnection 整行保存
	SaveConnection(ctx context.Context, conn *model.UserPlatformConnection) error
	// DeleteActiveConnections 物理删除匹配过滤条件的活跃连接，返回删除行数
	// 吊销即清除，token 不允许以非活跃行的形式残留
	DeleteActiveConnections(ctx context.Context, userID, platformID uint64, extID *string, oauth model.OAuthVersion) (int64, error)
	// PickConnection 取指定 oauth_version 下最近更新的活跃连接，可按 scope 子串过滤
	PickConnection(ctx context.Context, userID, platformID uint64, need model.OAuthVersion, scopeContains string) (*model.UserPlatformConnection, error)
	// ListConnections 用户的全部活跃连接（带平台信息）
	ListConnections(ctx context.Context, userID uint64) ([]*model.UserPlatformConnection, error)
}

type socialRepository struct {
	db *gorm.DB
}

// NewSocialRepository 创建 SocialRepository（事务内使用时传 tx）
func NewSocialRepository(db *gorm.DB) SocialRepository {
	return &socialRepository{db: db}
}

func (r *socialRepository) ListPlatforms(ctx context.Context) ([]*model.Platform, error) {
	var platforms []*model.Platform
	err := r.db.WithContext(ctx).Scopes(Alive).Order("name ASC").Find(&platforms).Error
	return platforms, err
}

func (r *socialRepository) GetActivePlatform(ctx context.Context, id uint64) (*model.Platform, error) {
	var p model.Platform
	if err := r.db.WithContext(ctx).Scopes(Alive).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *socialRepository) CreatePlatform(ctx context.Context, p *model.Platform) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *socialRepository) CountPlatforms(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Platform{}).Count(&n).Error
	return n, err
}

func (r *socialRepository) HasActiveConnection(ctx context.Context, userID, platformID uint64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.UserPlatformConnection{}).
		Where("user_id = ? AND platform_id = ? AND is_active = ?", userID, platformID, true).
		Count(&n).Error
	return n > 0, err
}

func (r *socialRepository) GetAppForUpdate(ctx context.Context, userID, platformID uint64) (*model.UserPlatformApp, error) {
	var app model.UserPlatformApp
	err := LockForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND platform_id = ?", userID, platformID).
		Order("id ASC").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *socialRepository) GetActiveApp(ctx context.Context, userID, platformID uint64) (*model.UserPlatformApp, error) {
	var app model.UserPlatformApp
	err := r.db.WithContext(ctx).Scopes(Alive).
		Where("user_id = ? AND platform_id = ?", userID, platformID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *socialRepository) CreateApp(ctx context.Context, app *model.UserPlatformApp) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *socialRepository) SaveApp(ctx context.Context, app *model.UserPlatformApp) error {
	return r.db.WithContext(ctx).Save(app).Error
}

func (r *socialRepository) GetConnectionForUpdate(ctx context.Context, userID, platformID uint64, extID *string, oauth model.OAuthVersion) (*model.UserPlatformConnection, error) {
	db := LockForUpdate(r.db.WithContext(ctx)).
		Where("user_id = ? AND platform_id = ? AND oauth_version = ?", userID, platformID, oauth)
	if extID == nil {
		db = db.Where("external_account_id IS NULL")
	} else {
		db = db.Where("external_account_id = ?", *extID)
	}
	var conn model.UserPlatformConnection
	if err := db.Order("id ASC").First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *socialRepository) CreateConnection(ctx context.Context, conn *model.UserPlatformConnection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *socialRepository) SaveConnection(ctx context.Context, conn *model.UserPlatformConnection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

func (r *socialRepository) DeleteActiveConnections(ctx context.Context, userID, platformID uint64, extID *string, oauth model.OAuthVersion) (int64, error) {
	db := r.db.WithContext(ctx).
		Where("user_id = ? AND platform_id = ? AND is_active = ?", userID, platformID, true)
	if extID != nil {
		db = db.Where("external_account_id = ?", *extID)
	}
	if oauth != "" {
		db = db.Where("oauth_version = ?", oauth)
	}
	res := db.Delete(&model.UserPlatformConnection{})
	return res.RowsAffected, res.Error
}

func (r *socialRepository) PickConnection(ctx context.Context, userID, platformID uint64, need model.OAuthVersion, scopeContains string) (*model.UserPlatformConnection, error) {
	db := r.db.WithContext(ctx).Scopes(Alive).
		Where("user_id = ? AND platform_id = ? AND oauth_version = ?", userID, platformID, need)
	if scopeContains != "" {
		db = db.Where("lower(scope) LIKE ?", "%"+strings.ToLower(scopeContains)+"%")
	}
	var conn model.UserPlatformConnection
	if err := db.Order("modified_at DESC").First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *socialRepository) ListConnections(ctx context.Context, userID uint64) ([]*model.UserPlatformConnection, error) {
	var conns []*model.UserPlatformConnection
	err := r.db.WithContext(ctx).Scopes(Alive, OrderNewest).
		Where("user_id = ?", userID).
		Preload("Platform").
		Find(&conns).Error
	return conns, err
}
