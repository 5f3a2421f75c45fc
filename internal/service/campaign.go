package service

import (
	"context"
	"strings"

	"FireMe/internal/model"
	"FireMe/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CampaignService 活动与检索词的业务逻辑。
// 归属永远来自当前登录用户，客户端传的 owner 字段一律不信
type CampaignService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	campaignRepo repository.CampaignRepository
	socialRepo   repository.SocialRepository
}

// NewCampaignService 创建 CampaignService
func NewCampaignService(db *gorm.DB, logger *logrus.Logger) *CampaignService {
	return &CampaignService{
		db:           db,
		logger:       logger,
		campaignRepo: repository.NewCampaignRepository(db),
		socialRepo:   repository.NewSocialRepository(db),
	}
}

// CampaignInput 活动创建/更新入参
type CampaignInput struct {
	PlatformID uint64 `json:"platform_id"`
	Name       string `json:"name"`
}

// QueryInput 检索词创建/更新入参
type QueryInput struct {
	CampaignID uint64 `json:"campaign_id"`
	SearchTerm string `json:"search_term"`
}

// CreateCampaign 新建活动：平台必须存在且活跃，(user, platform) 下活跃活动名唯一
func (s *CampaignService) CreateCampaign(ctx context.Context, userID uint64, in CampaignInput) (*model.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("name", "campaign name is required")
	}
	if _, err := s.socialRepo.GetActivePlatform(ctx, in.PlatformID); err != nil {
		return nil, wrapNotFound(err)
	}
	c := &model.Campaign{UserID: userID, PlatformID: in.PlatformID, Name: name}
	c.IsActive = true
	if err := translateWriteErr(s.campaignRepo.CreateCampaign(ctx, c)); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns 我的活跃活动
func (s *CampaignService) ListCampaigns(ctx context.Context, userID uint64) ([]*model.Campaign, error) {
	return s.campaignRepo.ListCampaigns(ctx, userID)
}

// GetCampaign 活动详情（别人的活动 = 不存在）
func (s *CampaignService) GetCampaign(ctx context.Context, userID, id uint64) (*model.Campaign, error) {
	c, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return c, nil
}

// UpdateCampaign 更新名称/平台；换平台时新平台必须活跃
func (s *CampaignService) UpdateCampaign(ctx context.Context, userID, id uint64, in CampaignInput) (*model.Campaign, error) {
	c, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	if in.PlatformID != 0 && in.PlatformID != c.PlatformID {
		if _, err := s.socialRepo.GetActivePlatform(ctx, in.PlatformID); err != nil {
			return nil, wrapNotFound(err)
		}
		c.PlatformID = in.PlatformID
	}
	if err := translateWriteErr(s.campaignRepo.SaveCampaign(ctx, c)); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCampaign 软删除；已删过的行对读不可见，再删报不存在
func (s *CampaignService) DeleteCampaign(ctx context.Context, userID, id uint64) error {
	if _, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.Campaign{}, id)
	return err
}

// CreateQuery 新建检索词：非空白（入库前 trim），目标活动必须归属当前用户，
// 同活动下活跃检索词大小写不敏感唯一
func (s *CampaignService) CreateQuery(ctx context.Context, userID uint64, in QueryInput) (*model.Query, error) {
	term := strings.TrimSpace(in.SearchTerm)
	if term == "" {
		return nil, invalidf("search_term", "search_term is required")
	}
	if _, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, in.CampaignID); err != nil {
		return nil, wrapNotFound(err)
	}
	exists, err := s.campaignRepo.ActiveQueryTermExists(ctx, in.CampaignID, term, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidf("search_term", "an active query with this term already exists in the campaign")
	}
	q := &model.Query{CampaignID: in.CampaignID, SearchTerm: term}
	q.IsActive = true
	if err := translateWriteErr(s.campaignRepo.CreateQuery(ctx, q)); err != nil {
		return nil, err
	}
	return q, nil
}

// ListQueries campaignID 为 0 时列全部
func (s *CampaignService) ListQueries(ctx context.Context, userID, campaignID uint64) ([]*model.Query, error) {
	if campaignID != 0 {
		if _, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, campaignID); err != nil {
			return nil, wrapNotFound(err)
		}
	}
	return s.campaignRepo.ListQueries(ctx, userID, campaignID)
}

// GetQuery 检索词详情
func (s *CampaignService) GetQuery(ctx context.Context, userID, id uint64) (*model.Query, error) {
	q, err := s.campaignRepo.GetOwnedQuery(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return q, nil
}

// UpdateQuery 更新检索词；换活动时必须落到自己名下的活动——
// 写操作要重验"结果行"的归属链，而不只是旧行的
func (s *CampaignService) UpdateQuery(ctx context.Context, userID, id uint64, in QueryInput) (*model.Query, error) {
	q, err := s.campaignRepo.GetOwnedQuery(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	targetCampaign := q.CampaignID
	if in.CampaignID != 0 && in.CampaignID != q.CampaignID {
		if _, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, in.CampaignID); err != nil {
			return nil, wrapNotFound(err)
		}
		targetCampaign = in.CampaignID
	}

	term := q.SearchTerm
	if t := strings.TrimSpace(in.SearchTerm); t != "" {
		term = t
	}

	exists, err := s.campaignRepo.ActiveQueryTermExists(ctx, targetCampaign, term, q.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalidf("search_term", "an active query with this term already exists in the campaign")
	}

	q.CampaignID = targetCampaign
	q.SearchTerm = term
	if err := translateWriteErr(s.campaignRepo.SaveQuery(ctx, q)); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuery 软删除；已删过的行对读不可见，再删报不存在
func (s *CampaignService) DeleteQuery(ctx context.Context, userID, id uint64) error {
	if _, err := s.campaignRepo.GetOwnedQuery(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.Query{}, id)
	return err
}

// HardDeleteQuery 物理删除检索词。Query → QueryResults 是 delete-PROTECT：
// 尚有活跃采集数据的检索词不允许物理移除（外键 RESTRICT 兜底）
func (s *CampaignService) HardDeleteQuery(ctx context.Context, userID, id uint64) error {
	if _, err := s.campaignRepo.GetOwnedQuery(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	n, err := s.campaignRepo.CountActiveResults(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return invalidf("query", "query has %d active results and cannot be hard-deleted", n)
	}
	_, err = repository.HardDelete(ctx, s.db, &model.Query{}, id)
	return err
}
