package service

import (
	"context"
	"errors"
	"strings"

	"FireMe/internal/model"
	"FireMe/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QueryResultService 采集结果的业务逻辑：批量 upsert 摄入、PollResult 回链
type QueryResultService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	campaignRepo repository.CampaignRepository
	pollRepo     repository.PollRepository
}

// NewQueryResultService 创建 QueryResultService
func NewQueryResultService(db *gorm.DB, logger *logrus.Logger) *QueryResultService {
	return &QueryResultService{
		db:           db,
		logger:       logger,
		campaignRepo: repository.NewCampaignRepository(db),
		pollRepo:     repository.NewPollRepository(db),
	}
}

// BulkItem 批量摄入的一条数据
type BulkItem struct {
	SourceID  string              `json:"source_id"`
	UserData  datatypes.JSON      `json:"user_data"`
	FireScore decimal.NullDecimal `json:"firescore"`
}

// BulkUpsertResult 批量摄入统计
type BulkUpsertResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// List 我的活跃采集结果，过滤条件可选
func (s *QueryResultService) List(ctx context.Context, userID, queryID, platformID uint64) ([]*model.QueryResults, error) {
	return s.campaignRepo.ListQueryResults(ctx, userID, queryID, platformID)
}

// Delete 软删除一条采集结果；所属 Query 不受任何影响
func (s *QueryResultService) Delete(ctx context.Context, userID, id uint64) error {
	if _, err := s.campaignRepo.GetOwnedQueryResult(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.QueryResults{}, id)
	return err
}

// AttachPollResult 事后把 PollResult 挂到已有采集行上（唯一的回链入口）：
// 要求 poll_result.poll.query 与采集行的 query 一致
func (s *QueryResultService) AttachPollResult(ctx context.Context, userID, resultID, pollResultID uint64) (*model.QueryResults, error) {
	qres, err := s.campaignRepo.GetOwnedQueryResult(ctx, userID, resultID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	pr, err := s.pollRepo.GetActiveResult(ctx, pollResultID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if pr.Poll.QueryID != qres.QueryID {
		return nil, invalidf("poll_result", "poll_result.poll.query must match the record's query")
	}
	qres.PollResultID = &pr.ID
	if err := s.campaignRepo.SaveQueryResult(ctx, qres); err != nil {
		return nil, err
	}
	return qres, nil
}

// BulkUpsert 批量摄入：归属与平台一致性只在开头检查一次，逐条按
// (query, platform, source_id) 活跃行 update-or-create，空 source_id 跳过。
// 整批一个事务，任何意外失败整体回滚，绝不留半批数据
func (s *QueryResultService) BulkUpsert(ctx context.Context, userID, queryID, platformID uint64, items []BulkItem) (*BulkUpsertResult, error) {
	query, err := s.campaignRepo.GetOwnedQuery(ctx, userID, queryID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	campaign, err := s.campaignRepo.GetOwnedCampaign(ctx, userID, query.CampaignID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if campaign.PlatformID != platformID {
		return nil, invalidf("platform_id", "platform must match the campaign's platform for this query")
	}

	batchID := uuid.NewString()
	out := &BulkUpsertResult{}

	err = withConflictRetry(func() error {
		out.Created, out.Updated = 0, 0
		return s.db.Transaction(func(tx *gorm.DB) error {
			repo := repository.NewCampaignRepository(tx)
			// 按入参顺序逐条处理：同键重复时后面的覆盖前面的
			for _, it := range items {
				sourceID := strings.TrimSpace(it.SourceID)
				if sourceID == "" {
					continue
				}
				existing, err := repo.GetResultForUpdate(ctx, queryID, platformID, sourceID)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					qr := &model.QueryResults{
						QueryID:    queryID,
						PlatformID: platformID,
						SourceID:   sourceID,
						UserData:   it.UserData,
						FireScore:  it.FireScore,
					}
					qr.IsActive = true
					if err := translateWriteErr(repo.CreateQueryResult(ctx, qr)); err != nil {
						return err
					}
					out.Created++
					continue
				}
				if err != nil {
					return err
				}
				existing.UserData = it.UserData
				existing.FireScore = it.FireScore
				if err := translateWriteErr(repo.SaveQueryResult(ctx, existing)); err != nil {
					return err
				}
				out.Updated++
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"batch_id": batchID,
		"query_id": queryID,
		"created":  out.Created,
		"updated":  out.Updated,
	}).Info("bulk upsert finished")
	return out, nil
}
