package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"FireMe/internal/model"
	"FireMe/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SocialService 平台 / 应用凭证 / 授权连接的业务逻辑。
// upsert 一律按自然键显式 get-or-create + 行锁，唯一索引只作最后兜底，
// 不把撞约束当正常控制流
type SocialService struct {
	db         *gorm.DB
	logger     *logrus.Logger
	socialRepo repository.SocialRepository
}

// NewSocialService 创建 SocialService
func NewSocialService(db *gorm.DB, logger *logrus.Logger) *SocialService {
	return &SocialService{
		db:         db,
		logger:     logger,
		socialRepo: repository.NewSocialRepository(db),
	}
}

// PlatformView 平台视图：connected 是观察者维度的派生字段，每次请求重算
type PlatformView struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	LogoURL   string `json:"logo_url"`
	Webpage   string `json:"webpage"`
	Connected bool   `json:"connected"`
}

// AppInfoView 应用凭证存在性视图（凭证本体永不回显）
type AppInfoView struct {
	Exists bool           `json:"exists"`
	Meta   datatypes.JSON `json:"meta,omitempty"`
	Masked bool           `json:"masked"`
}

// ConnectionView 连接公开视图：token 字段一律剔除
type ConnectionView struct {
	ID                uint64        `json:"id"`
	Platform          *PlatformView `json:"platform,omitempty"`
	ExternalAccountID *string       `json:"external_account_id"`
	ExternalUsername  string        `json:"external_username"`
	OAuthVersion      string        `json:"oauth_version"`
	TokenType         string        `json:"token_type"`
	Scope             string        `json:"scope"`
	ExpiresAt         *time.Time    `json:"expires_at"`
	IsActive          bool          `json:"is_active"`
}

// AppUpsertInput 应用凭证提交
type AppUpsertInput struct {
	ClientID     string         `json:"client_id"`
	ClientSecret string         `json:"client_secret"`
	Meta         datatypes.JSON `json:"meta"`
}

// ConnectionUpsertInput 连接凭证提交
type ConnectionUpsertInput struct {
	OAuthVersion      model.OAuthVersion `json:"oauth_version"`
	ExternalAccountID *string            `json:"external_account_id"`
	ExternalUsername  string             `json:"external_username"`
	BearerToken       *string            `json:"bearer_token"`
	AccessToken       *string            `json:"access_token"`
	RefreshToken      *string            `json:"refresh_token"`
	TokenSecret       *string            `json:"token_secret"`
	TokenType         string             `json:"token_type"`
	Scope             string             `json:"scope"`
	ExpiresAt         *time.Time         `json:"expires_at"`
	Meta              datatypes.JSON     `json:"meta"`
}

// CreatePlatform 新建平台（活跃行内名称唯一，唯一索引兜底）
func (s *SocialService) CreatePlatform(ctx context.Context, name, logoURL, webpage string) (*model.Platform, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name", "platform name is required")
	}
	p := &model.Platform{Name: name, LogoURL: logoURL, Webpage: webpage}
	p.IsActive = true
	if err := translateWriteErr(s.socialRepo.CreatePlatform(ctx, p)); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlatforms 平台列表，带观察者维度的 connected 标记
func (s *SocialService) ListPlatforms(ctx context.Context, viewerID uint64) ([]PlatformView, error) {
	platforms, err := s.socialRepo.ListPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PlatformView, 0, len(platforms))
	for _, p := range platforms {
		connected, err := s.socialRepo.HasActiveConnection(ctx, viewerID, p.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, PlatformView{
			ID: p.ID, Name: p.Name, LogoURL: p.LogoURL, Webpage: p.Webpage,
			Connected: connected,
		})
	}
	return views, nil
}

// GetPlatform 平台详情
func (s *SocialService) GetPlatform(ctx context.Context, viewerID, id uint64) (*PlatformView, error) {
	p, err := s.socialRepo.GetActivePlatform(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	connected, err := s.socialRepo.HasActiveConnection(ctx, viewerID, p.ID)
	if err != nil {
		return nil, err
	}
	return &PlatformView{
		ID: p.ID, Name: p.Name, LogoURL: p.LogoURL, Webpage: p.Webpage,
		Connected: connected,
	}, nil
}

// UpsertApp (user, platform) 的活跃 App 至多一个：
// 命中已有行（含此前被软删的）就覆盖凭证并重新激活，否则新建
func (s *SocialService) UpsertApp(ctx context.Context, userID, platformID uint64, in AppUpsertInput) error {
	if strings.TrimSpace(in.ClientID) == "" {
		return invalidf("client_id", "client_id is required")
	}
	if strings.TrimSpace(in.ClientSecret) == "" {
		return invalidf("client_secret", "client_secret is required")
	}
	if _, err := s.socialRepo.GetActivePlatform(ctx, platformID); err != nil {
		return wrapNotFound(err)
	}

	return withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			repo := repository.NewSocialRepository(tx)
			app, err := repo.GetAppForUpdate(ctx, userID, platformID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				app = &model.UserPlatformApp{
					UserID:       userID,
					PlatformID:   platformID,
					ClientID:     in.ClientID,
					ClientSecret: in.ClientSecret,
					Meta:         in.Meta,
				}
				app.IsActive = true
				return translateWriteErr(repo.CreateApp(ctx, app))
			}
			if err != nil {
				return err
			}
			app.ClientID = in.ClientID
			app.ClientSecret = in.ClientSecret
			app.Meta = in.Meta
			app.IsActive = true
			return translateWriteErr(repo.SaveApp(ctx, app))
		})
	})
}

// AppInfo 应用凭证是否已配置（meta 可见，凭证掩码）
func (s *SocialService) AppInfo(ctx context.Context, userID, platformID uint64) (*AppInfoView, error) {
	if _, err := s.socialRepo.GetActivePlatform(ctx, platformID); err != nil {
		return nil, wrapNotFound(err)
	}
	app, err := s.socialRepo.GetActiveApp(ctx, userID, platformID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &AppInfoView{Exists: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &AppInfoView{Exists: true, Meta: app.Meta, Masked: true}, nil
}

// validateConnectionInput 按 oauth_version 标签校验 token 形态并归一化输入。
// 失败要在碰存储之前快速返回字段级错误
func validateConnectionInput(in *ConnectionUpsertInput) error {
	if in.OAuthVersion == "" {
		in.OAuthVersion = model.OAuthV2
	}
	if !in.OAuthVersion.Valid() {
		return invalidf("oauth_version", "invalid value %q", string(in.OAuthVersion))
	}

	if in.ExternalAccountID != nil {
		trimmed := strings.TrimSpace(*in.ExternalAccountID)
		if trimmed == "" {
			in.ExternalAccountID = nil
		} else {
			in.ExternalAccountID = &trimmed
		}
	}
	in.ExternalUsername = strings.TrimSpace(in.ExternalUsername)

	hasToken := func(t *string) bool { return t != nil && strings.TrimSpace(*t) != "" }

	switch in.OAuthVersion {
	case model.OAuthV1a:
		if in.ExternalAccountID == nil {
			return invalidf("external_account_id", "required for OAuth1.0a")
		}
		if !hasToken(in.AccessToken) || !hasToken(in.TokenSecret) {
			return invalidf("", "OAuth1.0a requires access_token and token_secret")
		}
	case model.OAuthV2:
		if in.ExternalAccountID == nil {
			return invalidf("external_account_id", "required for OAuth2 user tokens")
		}
		if !hasToken(in.AccessToken) && !hasToken(in.BearerToken) {
			return invalidf("", "OAuth2 requires access_token or bearer_token")
		}
	case model.OAuthAppOnly:
		if !hasToken(in.BearerToken) {
			return invalidf("bearer_token", "app-only requires bearer_token")
		}
		// app-only 连接不绑定具体外部账号，无论传什么都置 NULL
		in.ExternalAccountID = nil
	}
	return nil
}

// UpsertConnection 按自然键 (user, platform, external_account_id, oauth_version) upsert：
// 要求已有活跃 App；命中已有行就覆盖 token/meta、重挂当前活跃 App 并重新激活
func (s *SocialService) UpsertConnection(ctx context.Context, userID, platformID uint64, in ConnectionUpsertInput) (*model.UserPlatformConnection, error) {
	if err := validateConnectionInput(&in); err != nil {
		return nil, err
	}
	if _, err := s.socialRepo.GetActivePlatform(ctx, platformID); err != nil {
		return nil, wrapNotFound(err)
	}

	var out *model.UserPlatformConnection
	err := withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			repo := repository.NewSocialRepository(tx)

			app, err := repo.GetActiveApp(ctx, userID, platformID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoActiveApp
			}
			if err != nil {
				return err
			}

			conn, err := repo.GetConnectionForUpdate(ctx, userID, platformID, in.ExternalAccountID, in.OAuthVersion)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				conn = &model.UserPlatformConnection{
					UserID:            userID,
					PlatformID:        platformID,
					AppID:             app.ID,
					ExternalAccountID: in.ExternalAccountID,
					ExternalUsername:  in.ExternalUsername,
					OAuthVersion:      in.OAuthVersion,
					BearerToken:       in.BearerToken,
					AccessToken:       in.AccessToken,
					RefreshToken:      in.RefreshToken,
					TokenSecret:       in.TokenSecret,
					TokenType:         in.TokenType,
					Scope:             in.Scope,
					ExpiresAt:         in.ExpiresAt,
					Meta:              in.Meta,
				}
				conn.IsActive = true
				if err := translateWriteErr(repo.CreateConnection(ctx, conn)); err != nil {
					return err
				}
				out = conn
				return nil
			}
			if err != nil {
				return err
			}

			conn.AppID = app.ID
			conn.ExternalUsername = in.ExternalUsername
			conn.BearerToken = in.BearerToken
			conn.AccessToken = in.AccessToken
			conn.RefreshToken = in.RefreshToken
			conn.TokenSecret = in.TokenSecret
			conn.TokenType = in.TokenType
			conn.Scope = in.Scope
			conn.ExpiresAt = in.ExpiresAt
			conn.Meta = in.Meta
			conn.IsActive = true
			if err := translateWriteErr(repo.SaveConnection(ctx, conn)); err != nil {
				return err
			}
			out = conn
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Disconnect 物理删除匹配过滤条件的活跃连接（吊销的 token 不留尸体），返回删除数。
// 重复调用幂等：第二次删 0 行
func (s *SocialService) Disconnect(ctx context.Context, userID, platformID uint64, externalAccountID *string, oauthVersion model.OAuthVersion) (int64, error) {
	if oauthVersion != "" && !oauthVersion.Valid() {
		return 0, invalidf("oauth_version", "invalid value %q", string(oauthVersion))
	}
	if _, err := s.socialRepo.GetActivePlatform(ctx, platformID); err != nil {
		return 0, wrapNotFound(err)
	}
	n, err := s.socialRepo.DeleteActiveConnections(ctx, userID, platformID, externalAccountID, oauthVersion)
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"platform_id": platformID,
		"count":       n,
	}).Info("connections disconnected")
	return n, nil
}

// PickConnection 给下游集成挑一条可用凭证：指定 oauth_version 下最近更新的活跃连接，
// 可要求 scope 含指定子串
func (s *SocialService) PickConnection(ctx context.Context, userID, platformID uint64, need model.OAuthVersion, scopeContains string) (*model.UserPlatformConnection, error) {
	if !need.Valid() {
		return nil, invalidf("oauth_version", "invalid value %q", string(need))
	}
	conn, err := s.socialRepo.PickConnection(ctx, userID, platformID, need, scopeContains)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return conn, nil
}

// MyConnections 用户的活跃连接列表（token 全部剔除）
func (s *SocialService) MyConnections(ctx context.Context, userID uint64) ([]ConnectionView, error) {
	conns, err := s.socialRepo.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]ConnectionView, 0, len(conns))
	for _, c := range conns {
		v := ConnectionView{
			ID:                c.ID,
			ExternalAccountID: c.ExternalAccountID,
			ExternalUsername:  c.ExternalUsername,
			OAuthVersion:      string(c.OAuthVersion),
			TokenType:         c.TokenType,
			Scope:             c.Scope,
			ExpiresAt:         c.ExpiresAt,
			IsActive:          c.IsActive,
		}
		if c.Platform.ID != 0 {
			v.Platform = &PlatformView{
				ID: c.Platform.ID, Name: c.Platform.Name,
				LogoURL: c.Platform.LogoURL, Webpage: c.Platform.Webpage,
			}
		}
		views = append(views, v)
	}
	return views, nil
}
