package repository

import (
	"context"

	"FireMe/internal/model"

	"gorm.io/gorm"
)

// CampaignRepository 活动 / 检索词 / 采集结果的数据访问
// 读取全部经所有权作用域收窄，写入前由 service 层重验归属链
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	SaveCampaign(ctx context.Context, c *model.Campaign) error
	// ListCampaigns 用户的活跃活动，created_at 倒序
	ListCampaigns(ctx context.Context, userID uint64) ([]*model.Campaign, error)
	// GetOwnedCampaign 归属校验与取行合一：别人的活动等同于不存在
	GetOwnedCampaign(ctx context.Context, userID, id uint64) (*model.Campaign, error)

	CreateQuery(ctx context.Context, q *model.Query) error
	SaveQuery(ctx context.Context, q *model.Query) error
	// ListQueries campaignID 为 0 时列出用户全部活跃检索词
	ListQueries(ctx context.Context, userID, campaignID uint64) ([]*model.Query, error)
	// GetOwnedQuery 经 campaigns 联结做归属校验
	GetOwnedQuery(ctx context.Context, userID, id uint64) (*model.Query, error)
	// ActiveQueryTermExists 活跃行内是否已有同 campaign 下的同名检索词（大小写不敏感）
	ActiveQueryTermExists(ctx context.Context, campaignID uint64, term string, excludeID uint64) (bool, error)

	// ListQueryResults 过滤条件可选（0 表示不过滤）
	ListQueryResults(ctx context.Context, userID, queryID, platformID uint64) ([]*model.QueryResults, error)
	GetOwnedQueryResult(ctx context.Context, userID, id uint64) (*model.QueryResults, error)
	SaveQueryResult(ctx context.Context, qr *model.QueryResults) error
	// GetResultForUpdate 按自然键 (query, platform, source_id) 在活跃行上加锁查找
	GetResultForUpdate(ctx context.Context, queryID, platformID uint64, sourceID string) (*model.QueryResults, error)
	CreateQueryResult(ctx context.Context, qr *model.QueryResults) error
	// CountActiveResults Query 下的活跃采集行数（delete-PROTECT 判断用）
	CountActiveResults(ctx context.Context, queryID uint64) (int64, error)
}

type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository 创建 CampaignRepository（事务内使用时传 tx）
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *campaignRepository) SaveCampaign(ctx context.Context, c *model.Campaign) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *campaignRepository) ListCampaigns(ctx context.Context, userID uint64) ([]*model.Campaign, error) {
	var campaigns []*model.Campaign
	err := r.db.WithContext(ctx).Scopes(Alive, OrderNewest, OwnedCampaigns(userID)).
		Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) GetOwnedCampaign(ctx context.Context, userID, id uint64) (*model.Campaign, error) {
	var c model.Campaign
	err := r.db.WithContext(ctx).Scopes(Alive, OwnedCampaigns(userID)).
		First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) CreateQuery(ctx context.Context, q *model.Query) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *campaignRepository) SaveQuery(ctx context.Context, q *model.Query) error {
	return r.db.WithContext(ctx).Save(q).Error
}

func (r *campaignRepository) ListQueries(ctx context.Context, userID, campaignID uint64) ([]*model.Query, error) {
	db := r.db.WithContext(ctx).Model(&model.Query{}).
		Scopes(OwnedQueries(userID)).
		Where("queries.is_active = ?", true).
		Order("queries.created_at DESC")
	if campaignID != 0 {
		db = db.Where("queries.campaign_id = ?", campaignID)
	}
	var queries []*model.Query
	err := db.Find(&queries).Error
	return queries, err
}

func (r *campaignRepository) GetOwnedQuery(ctx context.Context, userID, id uint64) (*model.Query, error) {
	var q model.Query
	err := r.db.WithContext(ctx).Model(&model.Query{}).
		Scopes(OwnedQueries(userID)).
		Where("queries.is_active = ? AND queries.id = ?", true, id).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *campaignRepository) ActiveQueryTermExists(ctx context.Context, campaignID uint64, term string, excludeID uint64) (bool, error) {
	db := r.db.WithContext(ctx).Model(&model.Query{}).
		Where("campaign_id = ? AND lower(search_term) = lower(?) AND is_active = ?", campaignID, term, true)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	var n int64
	err := db.Count(&n).Error
	return n > 0, err
}

func (r *campaignRepository) ListQueryResults(ctx context.Context, userID, queryID, platformID uint64) ([]*model.QueryResults, error) {
	db := r.db.WithContext(ctx).Model(&model.QueryResults{}).
		Scopes(OwnedQueryResults(userID)).
		Where("query_results.is_active = ?", true).
		Order("query_results.created_at DESC")
	if queryID != 0 {
		db = db.Where("query_results.query_id = ?", queryID)
	}
	if platformID != 0 {
		db = db.Where("query_results.platform_id = ?", platformID)
	}
	var results []*model.QueryResults
	err := db.Find(&results).Error
	return results, err
}

func (r *campaignRepository) GetOwnedQueryResult(ctx context.Context, userID, id uint64) (*model.QueryResults, error) {
	var qr model.QueryResults
	err := r.db.WithContext(ctx).Model(&model.QueryResults{}).
		Scopes(OwnedQueryResults(userID)).
		Where("query_results.is_active = ? AND query_results.id = ?", true, id).
		First(&qr).Error
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *campaignRepository) SaveQueryResult(ctx context.Context, qr *model.QueryResults) error {
	return r.db.WithContext(ctx).Save(qr).Error
}

func (r *campaignRepository) GetResultForUpdate(ctx context.Context, queryID, platformID uint64, sourceID string) (*model.QueryResults, error) {
	var qr model.QueryResults
	err := LockForUpdate(r.db.WithContext(ctx)).
		Where("query_id = ? AND platform_id = ? AND source_id = ? AND is_active = ?",
			queryID, platformID, sourceID, true).
		Order("id ASC").
		First(&qr).Error
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *campaignRepository) CreateQueryResult(ctx context.Context, qr *model.QueryResults) error {
	return r.db.WithContext(ctx).Create(qr).Error
}

func (r *campaignRepository) CountActiveResults(ctx context.Context, queryID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.QueryResults{}).
		Where("query_id = ? AND is_active = ?", queryID, true).
		Count(&n).Error
	return n, err
}
