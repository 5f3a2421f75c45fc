package service

import (
	"context"
	"strings"

	"FireMe/internal/model"
	"FireMe/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// QuestionService 问题与候选答案的业务逻辑
type QuestionService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	questionRepo repository.QuestionRepository
}

// NewQuestionService 创建 QuestionService
func NewQuestionService(db *gorm.DB, logger *logrus.Logger) *QuestionService {
	return &QuestionService{
		db:           db,
		logger:       logger,
		questionRepo: repository.NewQuestionRepository(db),
	}
}

// CreateQuestion 新建问题（题干非空白）
func (s *QuestionService) CreateQuestion(ctx context.Context, userID uint64, text string) (*model.Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("question", "question text is required")
	}
	q := &model.Question{UserID: userID, Question: text}
	q.IsActive = true
	if err := s.questionRepo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuestions 我的问题列表，支持题干子串搜索
func (s *QuestionService) ListQuestions(ctx context.Context, userID uint64, search string) ([]*model.Question, error) {
	return s.questionRepo.ListQuestions(ctx, userID, search)
}

// GetQuestion 问题详情
func (s *QuestionService) GetQuestion(ctx context.Context, userID, id uint64) (*model.Question, error) {
	q, err := s.questionRepo.GetOwnedQuestion(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return q, nil
}

// UpdateQuestion 更新题干
func (s *QuestionService) UpdateQuestion(ctx context.Context, userID, id uint64, text string) (*model.Question, error) {
	q, err := s.questionRepo.GetOwnedQuestion(ctx, userID, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("question", "question text is required")
	}
	q.Question = text
	if err := s.questionRepo.SaveQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion 软删除
func (s *QuestionService) DeleteQuestion(ctx context.Context, userID, id uint64) error {
	if _, err := s.questionRepo.GetOwnedQuestion(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.Question{}, id)
	return err
}

// ListAnswers 问题下的活跃答案
func (s *QuestionService) ListAnswers(ctx context.Context, userID, questionID uint64) ([]*model.Answer, error) {
	if _, err := s.questionRepo.GetOwnedQuestion(ctx, userID, questionID); err != nil {
		return nil, wrapNotFound(err)
	}
	return s.questionRepo.ListAnswers(ctx, questionID)
}

// AddAnswer 追加候选答案：非空白，活跃行内同题下文本唯一（唯一索引兜底）
func (s *QuestionService) AddAnswer(ctx context.Context, userID, questionID uint64, text string) (*model.Answer, error) {
	if _, err := s.questionRepo.GetOwnedQuestion(ctx, userID, questionID); err != nil {
		return nil, wrapNotFound(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidf("answer", "answer text is required")
	}
	a := &model.Answer{QuestionID: questionID, Answer: text}
	a.IsActive = true
	if err := translateWriteErr(s.questionRepo.CreateAnswer(ctx, a)); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAnswer 软删除；历史作答仍按该答案 id 计票
func (s *QuestionService) DeleteAnswer(ctx context.Context, userID, id uint64) error {
	if _, err := s.questionRepo.GetOwnedAnswer(ctx, userID, id); err != nil {
		return wrapNotFound(err)
	}
	_, err := repository.SoftDelete(ctx, s.db, &model.Answer{}, id)
	return err
}
