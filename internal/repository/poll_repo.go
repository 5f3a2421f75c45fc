package repository

import (
	"context"
	"time"

	"FireMe/internal/model"

	"gorm.io/gorm"
)

// AnswerCount 按答案聚合的票数（summary 用，answer_id 可空 = 弃权票）
type AnswerCount struct {
	AnswerID *uint64 `json:"answer_id"`
	Count    int64   `json:"count"`
}

// PollFilter 投票列表过滤条件（0 表示不过滤）
type PollFilter struct {
	CampaignID uint64
	QueryID    uint64
}

// PollRepository 投票与作答的数据访问
type PollRepository interface {
	CreatePoll(ctx context.Context, p *model.Poll) error
	SavePoll(ctx context.Context, p *model.Poll) error
	// GetOwnedPoll 经 queries → campaigns 做归属校验
	GetOwnedPoll(ctx context.Context, userID, id uint64) (*model.Poll, error)
	// ListPolls 用户可见的活跃投票，created_at 倒序
	ListPolls(ctx context.Context, userID uint64, filter PollFilter) ([]*model.Poll, error)
	// ListLive 窗口内的活跃投票，starts_at 倒序
	ListLive(ctx context.Context, userID uint64, now time.Time) ([]*model.Poll, error)
	// ListUpcoming 未开始的活跃投票，starts_at 升序
	ListUpcoming(ctx context.Context, userID uint64, now time.Time) ([]*model.Poll, error)
	// ListFinished 已结束的活跃投票，ends_at 倒序
	ListFinished(ctx context.Context, userID uint64, now time.Time) ([]*model.Poll, error)

	// ActiveResultsForUpdate 按 (poll, user_identifier) 加锁取活跃作答行
	// 替换式重提交的前置锁：并发同键提交在此串行化
	ActiveResultsForUpdate(ctx context.Context, pollID uint64, userIdentifier string) ([]*model.PollResult, error)
	// DeactivateResults 批量停用指定作答行
	DeactivateResults(ctx context.Context, ids []uint64) error
	CreateResult(ctx context.Context, pr *model.PollResult) error
	// GetOwnedResult 经 polls → queries → campaigns 做归属校验
	GetOwnedResult(ctx context.Context, userID, id uint64) (*model.PollResult, error)
	// GetActiveResult 按 ID 取活跃作答（attach 校验用，带 Poll 预载）
	GetActiveResult(ctx context.Context, id uint64) (*model.PollResult, error)
	// ListResults 某投票的全部活跃作答，created_at 倒序
	ListResults(ctx context.Context, pollID uint64) ([]*model.PollResult, error)
	// CountByAnswer 活跃作答按 answer_id 聚合，票数倒序
	CountByAnswer(ctx context.Context, pollID uint64) ([]AnswerCount, error)
}

type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository 创建 PollRepository（事务内使用时传 tx）
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

func (r *pollRepository) CreatePoll(ctx context.Context, p *model.Poll) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pollRepository) SavePoll(ctx context.Context, p *model.Poll) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *pollRepository) GetOwnedPoll(ctx context.Context, userID, id uint64) (*model.Poll, error) {
	var p model.Poll
	err := r.db.WithContext(ctx).Model(&model.Poll{}).
		Scopes(OwnedPolls(userID)).
		Where("polls.is_active = ? AND polls.id = ?", true, id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ownedActivePolls 投票列表的公共底座
func (r *pollRepository) ownedActivePolls(ctx context.Context, userID uint64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Poll{}).
		Scopes(OwnedPolls(userID)).
		Where("polls.is_active = ?", true)
}

func (r *pollRepository) ListPolls(ctx context.Context, userID uint64, filter PollFilter) ([]*model.Poll, error) {
	db := r.ownedActivePolls(ctx, userID).Order("polls.created_at DESC")
	if filter.CampaignID != 0 {
		db = db.Where("queries.campaign_id = ?", filter.CampaignID)
	}
	if filter.QueryID != 0 {
		db = db.Where("polls.query_id = ?", filter.QueryID)
	}
	var polls []*model.Poll
	err := db.Find(&polls).Error
	return polls, err
}

func (r *pollRepository) ListLive(ctx context.Context, userID uint64, now time.Time) ([]*model.Poll, error) {
	var polls []*model.Poll
	err := r.ownedActivePolls(ctx, userID).
		Where("polls.starts_at <= ? AND polls.ends_at >= ?", now, now).
		Order("polls.starts_at DESC").
		Find(&polls).Error
	return polls, err
}

func (r *pollRepository) ListUpcoming(ctx context.Context, userID uint64, now time.Time) ([]*model.Poll, error) {
	var polls []*model.Poll
	err := r.ownedActivePolls(ctx, userID).
		Where("polls.starts_at > ?", now).
		Order("polls.starts_at ASC").
		Find(&polls).Error
	return polls, err
}

func (r *pollRepository) ListFinished(ctx context.Context, userID uint64, now time.Time) ([]*model.Poll, error) {
	var polls []*model.Poll
	err := r.ownedActivePolls(ctx, userID).
		Where("polls.ends_at < ?", now).
		Order("polls.ends_at DESC").
		Find(&polls).Error
	return polls, err
}

func (r *pollRepository) ActiveResultsForUpdate(ctx context.Context, pollID uint64, userIdentifier string) ([]*model.PollResult, error) {
	var results []*model.PollResult
	err := LockForUpdate(r.db.WithContext(ctx)).
		Where("poll_id = ? AND user_identifier = ? AND is_active = ?", pollID, userIdentifier, true).
		Find(&results).Error
	return results, err
}

func (r *pollRepository) DeactivateResults(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.PollResult{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_active":   false,
			"modified_at": time.Now(),
		}).Error
}

func (r *pollRepository) CreateResult(ctx context.Context, pr *model.PollResult) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

func (r *pollRepository) GetOwnedResult(ctx context.Context, userID, id uint64) (*model.PollResult, error) {
	var pr model.PollResult
	err := r.db.WithContext(ctx).Model(&model.PollResult{}).
		Scopes(OwnedPollResults(userID)).
		Where("poll_results.is_active = ? AND poll_results.id = ?", true, id).
		First(&pr).Error
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *pollRepository) GetActiveResult(ctx context.Context, id uint64) (*model.PollResult, error) {
	var pr model.PollResult
	err := r.db.WithContext(ctx).Scopes(Alive).
		Preload("Poll").
		First(&pr, id).Error
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (r *pollRepository) ListResults(ctx context.Context, pollID uint64) ([]*model.PollResult, error) {
	var results []*model.PollResult
	err := r.db.WithContext(ctx).Scopes(Alive, OrderNewest).
		Where("poll_id = ?", pollID).
		Find(&results).Error
	return results, err
}

func (r *pollRepository) CountByAnswer(ctx context.Context, pollID uint64) ([]AnswerCount, error) {
	var rows []AnswerCount
	err := r.db.WithContext(ctx).Model(&model.PollResult{}).
		Select("answer_id, COUNT(id) AS count").
		Where("poll_id = ? AND is_active = ?", pollID, true).
		Group("answer_id").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}
