package service

import (
	"context"
	"strings"
	"time"

	"FireMe/internal/model"
	"FireMe/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PollService 投票与作答的业务逻辑。
// 投票状态（live/upcoming/finished）永远由时间窗现算，绝不落库缓存
type PollService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	pollRepo     repository.PollRepository
	campaignRepo repository.CampaignRepository
	questionRepo repository.QuestionRepository

	// now 可注入，测试里用固定时钟
	now func() time.Time
}

// NewPollService 创建 PollService
func NewPollService(db *gorm.DB, logger *logrus.Logger) *PollService {
	return &PollService{
		db:           db,
		logger:       logger,
		pollRepo:     repository.NewPollRepository(db),
		campaignRepo: repository.NewCampaignRepository(db),
		questionRepo: repository.NewQuestionRepository(db),
		now:          time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (s *PollService) WithClock(now func() time.Time) *PollService {
	s.now = now
	return s
}

// PollInput 投票创建/更新入参
type PollInput struct {
	QueryID    uint64    `json:"query_id"`
	QuestionID uint64    `json:"question_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Title      *string   `json:"title"`
}

// PollView 投票视图，status 为派生字段
type PollView struct {
	*model.Poll
	Status model.PollStatus `json:"status"`
}

// SummaryRow 按答案聚合的票数；答案事后被软删时 answer_text 为 null（只按 id 展示）
type SummaryRow struct {
	AnswerID   *uint64 `json:"answer_id"`
	Count      int64   `json:"count"`
	AnswerText *string `json:"answer_text"`
}

func (s *PollService) view(p *model.Poll) *PollView {
	return &PollView{Poll: p, Status: p.StatusAt(s.now())}
}

func (s *PollService) views(polls []*model.Poll) []*PollView {
	out := make([]*PollView, 0, len(polls))
	for _, p := range polls {
		out = append(out, s.view(p))
	}
	return out
}

// CreatePoll 新建投票：窗口合法（允许 starts == ends 的单瞬窗口）、问题活跃、
// 目标 Query 归属当前用户
func (s *PollService) CreatePoll(ctx context.Context, userID uint64, in PollInput) (*PollView, error) {
	if in.EndsAt.Before(in.StartsAt) {
		return nil, invalidf("ends_at", "end time must not be before start time")
	}
	if _, err := s.campaignRepo.GetOwnedQuery(ctx, userID, in.QueryID); err != nil {
		return nil, wrapNotFound(err)
	}
	if _, err := s.questionRepo.GetActiveQuestion(ctx, in.QuestionID); err != nil {
		return nil, wrapNotFound(err)
	}
	p := &model.Poll{
		QueryID:    in.QueryID,
		QuestionID: in.QuestionID,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		Title:      in.Title,
	}
	p.IsActive = true
	if err := s.pollRepo.CreatePoll(ctx, p); err != nil {
		return nil, err
	}
	return s.view(p), nil
}

// UpdatePoll 更新投票；换 Query 时新 Query 也必须归属当前用户（重验结果行的归属链）
func (s *PollService) UpdatePoll(ctx context.Context, userID, id uint64, in PollInput) (*PollView, error) {
	p, err := s.pollRepo.GetOwnedPoll(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	if in.QueryID != 0 && in.QueryID != p.QueryID {
		if _, err := s.campaignRepo.GetOwnedQuery(ctx, userID, in.QueryID); err != nil {
			return nil, wrapNotFound(err)
		}
		p.QueryID = in.QueryID
	}
	if in.QuestionID != 0 && in.QuestionID != p.QuestionID {
		if _, err := s.questionRepo.GetActiveQuestion(ctx, in.QuestionID); err != nil {
			return nil, wrapNotFound(err)
		}
		p.QuestionID = in.QuestionID
	}
	if !in.StartsAt.IsZero() {
		p.StartsAt = in.StartsAt
	}
	if !in.EndsAt.IsZero() {
		p.EndsAt = in.EndsAt
	}
	if in.Title != nil {
		p.Title = in.Title
	}
	if p.EndsAt.Before(p.StartsAt) {
		return nil, invalidf("ends_at", "end time must not be before start time")
	}
	if err := s.pollRepo.SavePoll(ctx, p); err != nil {
		return nil, err
	}
	return s.view(p), nil
}

// GetPoll 投票详情
func (s *PollService) GetPoll(ctx context.Context, userID, id uint64) (*PollView, error) {
	p, err := s.pollRepo.GetOwnedPoll(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return s.view(p), nil
}

// ListPolls 投票列表，created_at 倒序
func (s *PollService) ListPolls(ctx context.Context, userID uint64, filter repository.PollFilter) ([]*PollView, error) {
	polls, err := s.pollRepo.ListPolls(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.views(polls), nil
}

// ListLive 窗口内的投票，starts_at 倒序
func (s *PollService) ListLive(ctx context.Context, userID uint64) ([]*PollView, error) {
	polls, err := s.pollRepo.ListLive(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.views(polls), nil
}

// ListUpcoming 未开始的投票，starts_at 升序
func (s *PollService) ListUpcoming(ctx context.Context, userID uint64) ([]*PollView, error) {
	polls, err := s.pollRepo.ListUpcoming(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.views(polls), nil
}

// ListFinished 已结束的投票，ends_at 倒序
func (s *PollService) ListFinished(ctx context.Context, userID uint64) ([]*PollView, error) {
	polls, err := s.pollRepo.ListFinished(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.views(polls), nil
}

// DeletePoll 软删除（不级联到任何引用了作答行的采集数据）
func (s *PollService) DeletePoll(ctx context.Context, userID, id uint64) error {
	if _, err := s.pollRepo.GetOwnedPoll(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.Poll{}, id)
	return err
}

// DeletePollResult 软删除一条作答。引用它的采集行保持原样：
// poll_result 外链只在物理删除时 SET NULL，软删不动它
func (s *PollService) DeletePollResult(ctx context.Context, userID, id uint64) error {
	if _, err := s.pollRepo.GetOwnedResult(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.PollResult{}, id)
	return err
}

// SubmitResponse 提交作答，重复提交是替换语义：
// 同一事务内先对 (poll, user_identifier) 的活跃行加写锁、停用，再插入新行。
// 锁-停用-插入的顺序是强制的——不加锁的话两个并发提交都可能看到"无活跃行"而双插，
// 击穿 (poll, user_identifier) 至多一条活跃作答的不变量
func (s *PollService) SubmitResponse(ctx context.Context, userID, pollID uint64, answerID *uint64, userIdentifier string) (*model.PollResult, error) {
	poll, err := s.pollRepo.GetOwnedPoll(ctx, userID, pollID)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	userIdentifier = strings.TrimSpace(userIdentifier)
	if userIdentifier == "" {
		return nil, invalidf("user_identifier", "user_identifier is required")
	}
	if !poll.IsLiveAt(s.now()) {
		return nil, ErrPollNotLive
	}
	if answerID != nil {
		answer, err := s.questionRepo.GetActiveAnswer(ctx, *answerID)
		if err != nil {
			return nil, wrapNotFound(err)
		}
		if answer.QuestionID != poll.QuestionID {
			return nil, invalidf("answer", "answer does not belong to this poll's question")
		}
	}

	var created *model.PollResult
	err = withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			repo := repository.NewPollRepository(tx)

			existing, err := repo.ActiveResultsForUpdate(ctx, pollID, userIdentifier)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				ids := make([]uint64, 0, len(existing))
				for _, pr := range existing {
					ids = append(ids, pr.ID)
				}
				if err := repo.DeactivateResults(ctx, ids); err != nil {
					return err
				}
			}

			pr := &model.PollResult{
				PollID:         pollID,
				AnswerID:       answerID,
				UserIdentifier: userIdentifier,
			}
			pr.IsActive = true
			if err := translateWriteErr(repo.CreateResult(ctx, pr)); err != nil {
				return err
			}
			created = pr
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Results 某投票的活跃作答列表
func (s *PollService) Results(ctx context.Context, userID, pollID uint64) ([]*model.PollResult, error) {
	if _, err := s.pollRepo.GetOwnedPoll(ctx, userID, pollID); err != nil {
		return nil, wrapNotFound(err)
	}
	return s.pollRepo.ListResults(ctx, pollID)
}

// Summary 按答案聚合活跃作答并标注答案文本（票数倒序）。
// 文本只从问题的活跃答案里查：投完票才被软删的答案仍按 id 计票，但 answer_text 为 null
func (s *PollService) Summary(ctx context.Context, userID, pollID uint64) ([]SummaryRow, error) {
	poll, err := s.pollRepo.GetOwnedPoll(ctx, userID, pollID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	counts, err := s.pollRepo.CountByAnswer(ctx, pollID)
	if err != nil {
		return nil, err
	}
	answers, err := s.questionRepo.ListAnswers(ctx, poll.QuestionID)
	if err != nil {
		return nil, err
	}
	labels := make(map[uint64]string, len(answers))
	for _, a := range answers {
		labels[a.ID] = a.Answer
	}

	rows := make([]SummaryRow, 0, len(counts))
	for _, c := range counts {
		row := SummaryRow{AnswerID: c.AnswerID, Count: c.Count}
		if c.AnswerID != nil {
			if text, ok := labels[*c.AnswerID]; ok {
				row.AnswerText = &text
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
